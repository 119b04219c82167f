// ABOUTME: Tests for the root command and global flag handling
// ABOUTME: Verifies environment variable and flag configuration

package cmd

import (
	"testing"
)

func TestGetAPIURL_Default(t *testing.T) {
	t.Setenv("VOCALSWAP_API_URL", "")
	apiURL = "" // Reset flag

	url := GetAPIURL()
	if url != "http://localhost:3000" {
		t.Errorf("expected default URL http://localhost:3000, got %s", url)
	}
}

func TestGetAPIURL_FromEnv(t *testing.T) {
	t.Setenv("VOCALSWAP_API_URL", "http://web.example.com")
	apiURL = "" // Reset flag

	url := GetAPIURL()
	if url != "http://web.example.com" {
		t.Errorf("expected http://web.example.com, got %s", url)
	}
}

func TestGetAPIURL_FlagOverridesEnv(t *testing.T) {
	t.Setenv("VOCALSWAP_API_URL", "http://web.example.com")
	apiURL = "http://flag-override.example.com"
	defer func() { apiURL = "" }()

	url := GetAPIURL()
	if url != "http://flag-override.example.com" {
		t.Errorf("expected flag to override env, got %s", url)
	}
}

func TestJSONOutput(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	if !IsJSONOutput() {
		t.Error("expected IsJSONOutput to return true")
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{{"serve"}, {"health"}, {"projects", "list"}, {"voices", "list"}} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd == rootCmd {
			t.Errorf("command %v not registered", path)
		}
	}
}

func TestCredentials(t *testing.T) {
	email = ""
	t.Setenv("VOCALSWAP_EMAIL", "")
	t.Setenv("VOCALSWAP_PASSWORD", "")
	if _, _, err := credentials(); err != errNoCredentials {
		t.Errorf("expected errNoCredentials, got %v", err)
	}

	t.Setenv("VOCALSWAP_EMAIL", "env@example.com")
	t.Setenv("VOCALSWAP_PASSWORD", "Secret123")
	addr, pw, err := credentials()
	if err != nil || addr != "env@example.com" || pw != "Secret123" {
		t.Errorf("unexpected credentials %q %q %v", addr, pw, err)
	}

	email = "flag@example.com"
	defer func() { email = "" }()
	if addr, _, _ := credentials(); addr != "flag@example.com" {
		t.Errorf("expected flag to override env, got %s", addr)
	}
}
