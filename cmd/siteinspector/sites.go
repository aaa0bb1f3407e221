package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/siteinspector/internal/storage"
	"github.com/steveyegge/siteinspector/internal/types"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage the sites known to the bundled store",
}

var sitesAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a site or update its status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")
		formerStatus, _ := cmd.Flags().GetString("former-status")
		reason, _ := cmd.Flags().GetString("reason")

		site := &types.Site{
			Name:         args[0],
			Status:       status,
			FormerStatus: formerStatus,
			Reason:       reason,
		}
		if err := store.UpsertSite(cmd.Context(), site); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Saved site %s (%s)\n", green("✓"), site.Name, site.Status)
		if !types.IsCheckedStatus(site.Status) {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("  %s status %q has no check frequency; the site will never be inspected\n", yellow("⚠"), site.Status)
		}
	},
}

var sitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sites",
	Run: func(cmd *cobra.Command, args []string) {
		if err := listSites(cmd.Context(), store, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var sitesShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a site and its recent checks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("history")
		if err := showSite(cmd.Context(), store, args[0], limit, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	sitesAddCmd.Flags().String("status", types.StatusActive, "Current status (Active, Probing, Banned, ...)")
	sitesAddCmd.Flags().String("former-status", "", "Previous status")
	sitesAddCmd.Flags().String("reason", "", "Reason for the current status")
	sitesShowCmd.Flags().Int("history", 10, "Number of recent checks to show")

	sitesCmd.AddCommand(sitesAddCmd, sitesListCmd, sitesShowCmd)
	rootCmd.AddCommand(sitesCmd)
}

func listSites(ctx context.Context, store storage.Storage, out io.Writer) error {
	sites, err := store.ListSites(ctx)
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		fmt.Fprintln(out, "No sites")
		return nil
	}

	gray := color.New(color.FgHiBlack).SprintFunc()
	for _, site := range sites {
		fmt.Fprintf(out, "%-30s %-10s %s\n", site.Name, site.Status, gray(formatLastCheck(site.LastCheckTime)))
	}
	return nil
}

func showSite(ctx context.Context, store storage.Storage, name string, limit int, out io.Writer) error {
	site, err := store.GetSite(ctx, name)
	if err != nil {
		return err
	}
	if site == nil {
		return fmt.Errorf("site not found: %s", name)
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s\n", cyan(site.Name))
	fmt.Fprintf(out, "  Status:        %s\n", site.Status)
	fmt.Fprintf(out, "  Former status: %s\n", site.FormerStatus)
	fmt.Fprintf(out, "  Reason:        %s\n", site.Reason)
	fmt.Fprintf(out, "  Last check:    %s\n", formatLastCheck(site.LastCheckTime))

	if limit <= 0 {
		return nil
	}
	history, err := store.GetCheckHistory(ctx, name, limit)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		fmt.Fprintf(out, "  Recent checks:\n")
		for _, at := range history {
			fmt.Fprintf(out, "    %s\n", at.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func formatLastCheck(t *time.Time) string {
	if t == nil {
		return "never checked"
	}
	return fmt.Sprintf("%s (%v ago)", t.Format("2006-01-02 15:04:05"), time.Since(*t).Round(time.Second))
}
