// ABOUTME: Projects commands for the vocalswap-web client
// ABOUTME: Lists the signed-in user's vocal replacement projects

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

var (
	listPage     int
	listPageSize int
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Work with projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Long:  `List one page of the signed-in user's projects with their processing status.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runProjectsList(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{projectsListCmd, voicesListCmd} {
		c.Flags().IntVar(&listPage, "page", 1, "Page number")
		c.Flags().IntVar(&listPageSize, "page-size", 20, "Items per page")
	}
	projectsCmd.AddCommand(projectsListCmd)
	rootCmd.AddCommand(projectsCmd)
}

// runProjectsList prints one page of projects and returns exit code
func runProjectsList(ctx context.Context, w io.Writer) int {
	c, err := signedIn(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer signOut(c)

	page, err := c.Projects.List(ctx, listPage, listPageSize)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(page, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprint(w, formatProjectsHuman(page))
	}
	return 0
}

// formatProjectsHuman renders a project page as a table
func formatProjectsHuman(page *models.Page[models.Project]) string {
	if len(page.Items) == 0 {
		return "No projects.\n"
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tMODE\tDURATION")
	for _, p := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Status.Label(), p.VocalMode.Label(), formatSeconds(p.DurationSeconds))
	}
	tw.Flush()
	fmt.Fprintf(&b, "Page %d of %d (%d total)\n", page.Page, page.Pages, page.Total)
	return b.String()
}

func formatSeconds(s *float64) string {
	if s == nil {
		return "-"
	}
	total := int(*s + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
