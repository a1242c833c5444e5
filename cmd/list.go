package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mr-lens/internal/cache"
	"mr-lens/internal/config"
	"mr-lens/internal/gitlab"
	"mr-lens/internal/session"
	"mr-lens/internal/view"
)

var (
	listSearch  string
	listScope   string
	listState   string
	listPerPage int
	listDrafts  bool
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List merge requests matching the given filters",
	Long: `List merge requests from the configured GitLab instance, ordered by
last update. Each entry shows state, pipeline status, approval and
reviewer information.

With scope "all" a search term is required; an unscoped search over a
whole instance is refused.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Search within merge request titles")
	listCmd.Flags().StringVar(&listScope, "scope", string(gitlab.ScopeAssignedToMe), "Scope: assigned_to_me, created_by_me, reviews_for_me or all")
	listCmd.Flags().StringVar(&listState, "state", string(gitlab.StateOpened), "State: opened, merged, closed or all")
	listCmd.Flags().IntVar(&listPerPage, "per-page", 0, "Number of results (default from config)")
	listCmd.Flags().BoolVar(&listDrafts, "drafts", false, "Include draft merge requests")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print rows as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	q, err := buildQuery(cfg)
	if err != nil {
		return err
	}

	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	client := gitlab.NewClient(cfg.BaseURL, cfg.Token, http.DefaultClient)
	sess := session.New(client, gitlab.NewResolver(client), store)

	result, err := sess.List(cmd.Context(), q)
	if err != nil {
		return err
	}

	if result.Deferred {
		if !GetQuiet() {
			fmt.Fprintln(os.Stderr, "Refusing to search the whole instance: give --search a term, or narrow --scope.")
		}
		return nil
	}

	includeDrafts := listDrafts || cfg.IncludeDrafts
	rows := view.Build(result.Items, includeDrafts)

	if result.Stale && !GetQuiet() {
		age := time.Since(result.FetchedAt).Round(time.Second)
		fmt.Fprintf(os.Stderr, "Fetch failed (%v); showing cached result from %s ago.\n", result.Err, age)
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	printRows(rows)
	return nil
}

func buildQuery(cfg *config.Config) (gitlab.Query, error) {
	scope, err := gitlab.ParseScope(listScope)
	if err != nil {
		return gitlab.Query{}, err
	}

	state, err := gitlab.ParseState(listState)
	if err != nil {
		return gitlab.Query{}, err
	}

	perPage := listPerPage
	if perPage <= 0 {
		perPage = cfg.PerPage
	}
	if perPage <= 0 {
		perPage = gitlab.DefaultPerPage
	}

	return gitlab.Query{
		Search:  listSearch,
		Scope:   scope,
		State:   state,
		PerPage: perPage,
	}, nil
}

func printRows(rows []view.Row) {
	if len(rows) == 0 {
		fmt.Println("No merge requests found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tTITLE\tSTATE\tBADGES\tUPDATED")

	for _, row := range rows {
		icon := row.StateIcon
		if row.PipelineIcon != "" {
			icon += row.PipelineIcon
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			icon, truncate(row.Title, 56), row.StateTag,
			strings.Join(row.Badges, ", "), row.UpdatedTooltip)
	}

	w.Flush()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
