package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metroviz/crimedash/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crimedash",
	Short: "Crime incident dashboard for Mexico City open data",
	Long:  "Prepares the public crime incident files (normalization, coordinate imputation, offense categorization) and serves the interactive dashboard.",
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
