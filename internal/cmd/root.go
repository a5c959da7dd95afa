package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Digital-Shane/vod2strm/internal/config"
	"github.com/Digital-Shane/vod2strm/internal/log"
	"github.com/spf13/cobra"
)

// rootCmd runs an export when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "vod2strm",
	Short: "Export Dispatcharr VOD as .strm/.nfo libraries",
	Long: `vod2strm exports the movies and series Dispatcharr knows about into
per-account directory trees of .strm pointer files, with optional .nfo
metadata and artwork, for Emby, Jellyfin and Kodi.

Runs are idempotent: unchanged files are not rewritten and files for items
that disappeared upstream are removed when DELETE_OLD is enabled.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExport,
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var (
	configPath string
	dryRun     bool
	clearCache bool
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the vars file (default: $VOD2STRM_CONFIG or VOD2strm_vars.sh beside the binary)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log planned changes without touching the output tree or caches")
	rootCmd.PersistentFlags().BoolVar(&clearCache, "clear-cache", false, "Clear cached catalogue and provider-info data before exporting")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN or ERROR")
}

// loadConfig loads the vars file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.ConfigPath(configPath))
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if flags.Changed("clear-cache") {
		cfg.ClearCache = clearCache
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
}

// newLogger builds the run logger from cfg.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	return log.New(log.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
}
