package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	apiKey              string
	settingsPath        string
	inferencePromptPath string
	inferenceSchemaPath string
	debugMode           bool
	noColor             bool
)

var rootCmd = &cobra.Command{
	Use:   "scrapboard",
	Short: "Scrapbook board for web links and handwritten notes",
	Long: `A scrapbook diary that turns links into cards on a spatial board.
Links are classified by site, their metadata is fetched and cached, and the
resulting items can be moved, stacked and organised by day or month.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode {
			SetDebugMode(true)
		}
		if noColor || !isTTY() {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Anthropic API key for metadata inference (or ANTHROPIC_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Path to settings file")
	rootCmd.PersistentFlags().StringVar(&inferencePromptPath, "inference-prompt", "", "Path to custom inference system prompt")
	rootCmd.PersistentFlags().StringVar(&inferenceSchemaPath, "inference-schema", "", "Path to custom inference JSON schema")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	registerCommands(rootCmd)
}

// isTTY reports whether stdout is a terminal
func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
