package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/config"
	"github.com/ppiankov/actiongate/internal/model"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "actiongate",
	Short: "Safety gate for autonomous browser agents",
	Long: "Classifies every browser action an agent is about to take, scores its risk\n" +
		"against rules and page context, and allows, blocks or asks a human before\n" +
		"anything irreversible happens. Every decision is audited.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.actiongate/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config and applies the command's path and level overrides.
func loadConfig(level, rules, domains string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if level != "" {
		lvl, err := model.ParseEnforcementLevel(level)
		if err != nil {
			return config.Config{}, err
		}
		cfg.EnforcementLevel = lvl
	}
	if rules != "" {
		cfg.RulesPath = rules
	}
	if domains != "" {
		cfg.DomainsPath = domains
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
