// ABOUTME: Sign-in helper shared by the client commands
// ABOUTME: Logs in with credentials from flags or environment before any resource call

package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/vocalswap/vocalswap-web/client"
)

var email string

var errNoCredentials = errors.New("credentials required: set --email (or VOCALSWAP_EMAIL) and VOCALSWAP_PASSWORD")

func init() {
	rootCmd.PersistentFlags().StringVar(&email, "email", "", "Account email (overrides VOCALSWAP_EMAIL)")
}

// credentials returns the account email and password. The password is only
// read from the environment so it never shows up in shell history.
func credentials() (string, string, error) {
	addr := email
	if addr == "" {
		addr = os.Getenv("VOCALSWAP_EMAIL")
	}
	password := os.Getenv("VOCALSWAP_PASSWORD")
	if addr == "" || password == "" {
		return "", "", errNoCredentials
	}
	return addr, password, nil
}

// signedIn returns a client holding a fresh session.
func signedIn(ctx context.Context) (*client.Client, error) {
	addr, password, err := credentials()
	if err != nil {
		return nil, err
	}
	c := client.New(GetAPIURL())
	if _, err := c.Auth.Login(ctx, addr, password); err != nil {
		return nil, err
	}
	return c, nil
}

// signOut ends the session; failures only mean the server already forgot it.
func signOut(c *client.Client) {
	_ = c.Auth.Logout(context.Background())
}
