package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mr-lens/internal/cache"
	"mr-lens/internal/config"
	"mr-lens/internal/gitlab"
	"mr-lens/internal/server"
	"mr-lens/internal/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the merge-request list over HTTP",
	Long: `Run a small HTTP server exposing the merge-request list as JSON for a
launcher or other UI to consume, plus Prometheus metrics on /metrics.

The previous successful result stays visible while a refresh is in
flight or failing.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:7419", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Token == "" {
		return gitlab.ErrNotConfigured
	}

	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	client := gitlab.NewClient(cfg.BaseURL, cfg.Token, http.DefaultClient)
	sess := session.New(client, gitlab.NewResolver(client), store)

	handler := server.NewHandler(sess, server.NewMetrics(), logger, cfg.PerPage, cfg.IncludeDrafts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx, serveAddr, handler)
}
