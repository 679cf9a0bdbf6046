package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/account-intel/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "account-intel",
	Short: "Customer account scoring and classification",
	Long:  "Aggregates sales transactions into per-account facts, scores attrition risk and account health, classifies buying behavior, sizes cross-sell opportunities, and reconciles sales records against the contract tracking board.",
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
