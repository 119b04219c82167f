// ABOUTME: Voices commands for the vocalswap-web client
// ABOUTME: Lists the signed-in user's voice personas

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vocalswap/vocalswap-web/models"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "Work with voice personas",
}

var voicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List voice personas",
	Long:  `List one page of the signed-in user's voice personas with their training status.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runVoicesList(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	voicesCmd.AddCommand(voicesListCmd)
	rootCmd.AddCommand(voicesCmd)
}

// runVoicesList prints one page of voice personas and returns exit code
func runVoicesList(ctx context.Context, w io.Writer) int {
	c, err := signedIn(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer signOut(c)

	page, err := c.Voices.List(ctx, listPage, listPageSize)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(page, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprint(w, formatVoicesHuman(page))
	}
	return 0
}

// formatVoicesHuman renders a voice persona page as a table
func formatVoicesHuman(page *models.Page[models.VoicePersona]) string {
	if len(page.Items) == 0 {
		return "No voice personas.\n"
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSAMPLES")
	for _, v := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", v.ID, v.Name, v.Status.Label(), len(v.SamplePaths))
	}
	tw.Flush()
	fmt.Fprintf(&b, "Page %d of %d (%d total)\n", page.Page, page.Pages, page.Total)
	return b.String()
}
