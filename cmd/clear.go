package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mr-lens/internal/config"
)

var forceFlag bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the snapshot cache and start fresh",
	Long:  `Delete the mr-lens cache database to drop all stored snapshots and fetch history.`,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Skip confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cachePath := cfg.CachePath

	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		fmt.Println("Cache does not exist. Nothing to clear.")
		return nil
	}

	if !forceFlag {
		fmt.Printf("This will delete: %s\n", cachePath)
		fmt.Print("Are you sure? [y/N] ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := os.Remove(cachePath); err != nil {
		return fmt.Errorf("deleting cache: %w", err)
	}

	fmt.Printf("Deleted: %s\n", cachePath)
	return nil
}
