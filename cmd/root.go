package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zebutron/turbine-scoring-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "turbine",
	Short: "Deterministic lead scoring engine",
	Long:  "Scores companies and contacts from staging tables using keyword-rule scoring, fuzzy company matching, and batch-relative normalization.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
