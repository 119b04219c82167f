// ABOUTME: Root command for the vocalswap-web binary
// ABOUTME: Handles global flags shared by the server and the client commands

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL     string
	jsonOutput bool
)

const defaultAPIURL = "http://localhost:3000"

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "vocalswap-web",
	Short: "VocalSwap web server and command-line client",
	Long: `vocalswap-web serves the VocalSwap browser front end and keeps the
session tokens in HttpOnly cookies on behalf of the browser.

The client commands talk to a running server the same way the browser does.

Environment Variables:
  VOCALSWAP_API_URL   Web server URL for client commands (default: http://localhost:3000)
  VOCALSWAP_EMAIL     Account email for client commands
  VOCALSWAP_PASSWORD  Account password for client commands`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Web server URL (overrides VOCALSWAP_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// GetAPIURL returns the web server URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("VOCALSWAP_API_URL"); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
