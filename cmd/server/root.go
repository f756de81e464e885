package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cerebro/internal/config"
	"cerebro/internal/pkg/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "cerebro",
	Short: "Multimodal research analysis backend",
	Long: `cerebro - ingest research files, analyze them with a generative model
and chat with an agent that can search the local archive.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to serve if no subcommand specified
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "TOML config file (defaults to $CONFIG_FILE or configs/config.toml)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config failed: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.App.Env, cfg.Log.File)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger failed: %w", err)
	}
	return cfg, log.With(zap.String("app", cfg.App.Name)), nil
}
