package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/blendga/internal/store"
)

var (
	logLevel  string
	logger    *slog.Logger
	dataDir   string
	storeKind string
)

var rootCmd = &cobra.Command{
	Use:   "blendga",
	Short: "Blend crossover genetic algorithm for bounded minimization",
	Long: `blendga minimizes continuous objectives over a box with a generational
genetic algorithm: truncation selection, blend crossover and reset mutation.
Runs are reproducible from their seed and can be stored, replayed and served.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logger
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stdout, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Base directory for stored runs")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "fs", "Run store backend (fs, sqlite)")
}

// openStore opens the run store selected by --store and --data-dir.
func openStore() (store.Store, error) {
	runStore, err := store.NewStore(storeKind, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return runStore, nil
}
