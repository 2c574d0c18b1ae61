package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quidome/mediasort/pkg/config"
	"github.com/quidome/mediasort/pkg/logging"
)

const version = "0.2.0"

type options struct {
	verbose    bool
	dryRun     bool
	configPath string
	logFormat  string
	logLevel   string
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "mediasort",
		Short: "Sort recovered photos and videos into year folders",
		Long: "mediasort walks a folder of recovered media, works out the year each photo or video was made, " +
			"and moves it into <dest>/<year>/. Byte-identical copies go to a separate duplicates tree.",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "perform a dry run without making changes")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/mediasort/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: console or json")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newSortCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newCensusCmd(opts))

	return rootCmd
}

// loadConfig reads the config file and applies the logging flags on top.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, _, _, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}
