package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mr-lens/internal/cache"
	"mr-lens/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached snapshots and last fetch info",
	Long:  `Display the cached merge-request snapshots and information about the most recent fetch.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	lastFetch, err := store.GetLastFetch()
	if err != nil {
		return fmt.Errorf("getting last fetch: %w", err)
	}

	fmt.Println("=== Last Fetch ===")
	if lastFetch == nil {
		fmt.Println("No fetches recorded yet.")
	} else {
		ago := time.Since(lastFetch.FetchedAt).Round(time.Second)
		fmt.Printf("Time:        %s (%s ago)\n", lastFetch.FetchedAt.Format(time.RFC3339), ago)
		fmt.Printf("Query:       %s\n", lastFetch.QueryFP)
		fmt.Printf("Items found: %d\n", lastFetch.ItemsFound)
		if lastFetch.DurationMs.Valid {
			fmt.Printf("Duration:    %dms\n", lastFetch.DurationMs.Int64)
		}
		if lastFetch.ErrorMessage.Valid && lastFetch.ErrorMessage.String != "" {
			fmt.Printf("Error:       %s\n", lastFetch.ErrorMessage.String)
		}
	}

	fmt.Println()

	snaps, err := store.Snapshots()
	if err != nil {
		return fmt.Errorf("getting snapshots: %w", err)
	}

	fmt.Println("=== Cached Snapshots ===")
	if len(snaps) == 0 {
		fmt.Println("No snapshots cached.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUERY\tITEMS\tFETCHED")

	for _, snap := range snaps {
		fmt.Fprintf(w, "%s\t%d\t%s ago\n",
			snap.QueryFP, snap.ItemCount, time.Since(snap.FetchedAt).Round(time.Second))
	}

	w.Flush()

	return nil
}
