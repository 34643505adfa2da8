// Command hirescope serves deterministic GitHub hiring analyses over HTTP and
// runs one-shot analyses from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/hirescope/internal/config"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
)

// Set by the release build through -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "hirescope",
	Short:         "Evidence-based GitHub profile analysis for hiring.",
	Long:          `HireScope samples a GitHub account's representative repositories, inspects them and turns the measured signals into role-weighted scores and a hiring report.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./.hirescope.yaml or $HOME/.hirescope.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd, analyzeCmd, versionCmd)
}

// loadConfig resolves the configuration and installs a JSON logger writing to w
func loadConfig(ctx context.Context, w io.Writer) (*config.Config, *monitoring.Logger, error) {
	v := config.New()
	if logLevel != "" {
		v.Set("log-level", logLevel)
	}

	cfg, err := config.Load(ctx, v, config.Options{ConfigFile: configFile})
	if err != nil {
		return nil, nil, err
	}

	level, err := monitoring.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := monitoring.NewLoggerTo(w, level)
	slog.SetDefault(logger.Logger)

	return cfg, logger, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
