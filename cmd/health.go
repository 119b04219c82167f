// ABOUTME: Health command for the vocalswap-web client
// ABOUTME: Checks web server connectivity and the backend snapshot it reports

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vocalswap/vocalswap-web/client"
	"github.com/vocalswap/vocalswap-web/models"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check web server and backend health",
	Long:  `Check connectivity to the VocalSwap web server and show the backend health it reports.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code:
// 0 healthy, 1 degraded, 2 unreachable.
func runHealth(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	c := client.New(url)

	resp, err := c.Health.Server(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(url, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	if resp.Status != "ok" {
		return 1
	}
	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *models.ServiceHealth) string {
	if resp.Backend == nil {
		return fmt.Sprintf(`Server:   %s
Status:   %s
Backend:  %s`, url, resp.Status, resp.BackendError)
	}
	return fmt.Sprintf(`Server:   %s
Status:   %s
Backend:  %s (version %s)
Database: %s
Redis:    %s`, url, resp.Status, resp.Backend.Status, resp.Backend.Version, resp.Backend.Database, resp.Backend.Redis)
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *models.ServiceHealth) string {
	output := map[string]interface{}{
		"server": url,
		"health": resp,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
