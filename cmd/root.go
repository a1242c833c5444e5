package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "mr-lens",
	Short: "Browse GitLab merge requests from the command line",
	Long: `mr-lens queries a GitLab instance for merge requests relevant to you
and renders a searchable, filterable list with approval and pipeline
status at a glance.

The last successful result is cached, so a failed refresh still shows
the previous list marked as stale.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.config/mr-lens/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
}

func GetConfigPath() string {
	return configPath
}

func GetQuiet() bool {
	return quiet
}
