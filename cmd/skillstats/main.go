package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/udisondev/skillstats/internal/config"
	"github.com/udisondev/skillstats/internal/skillmodule"
)

const (
	DefaultConfigPath = "config/skillstats.yaml"
	DefaultEnvFile    = ".env"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// cli holds state shared by subcommands after PersistentPreRunE.
type cli struct {
	configPath string
	envFile    string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "skillstats",
		Short:         "Skills section of the character-stats panel",
		Version:       skillmodule.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `skillstats provisions the per-account skills table, renders the skills
section of the character-stats panel and serves it over HTTP.

Config is read from YAML (` + DefaultConfigPath + ` by default); SKILLSTATS_*
environment variables, optionally loaded from a .env file, override it.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", DefaultConfigPath, "config file")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", DefaultEnvFile, "dotenv file with SKILLSTATS_* overrides")

	root.AddCommand(
		c.installCmd(),
		c.uninstallCmd(),
		c.statsCmd(),
		c.serveCmd(),
		c.accountCmd(),
		c.skillCmd(),
		c.settingsCmd(),
	)
	return root
}

// init loads .env, config and configures slog from config.LogLevel.
func (c *cli) init() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading env file %s: %w", c.envFile, err)
		}
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Debug("config loaded", "path", c.configPath, "driver", cfg.Database.Driver)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
