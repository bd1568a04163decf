// Command chesscoach analyzes finished chess games and serves the results.
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vytor/chesscoach/internal/analysis"
	"github.com/vytor/chesscoach/internal/config"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/services"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chesscoach",
		Short:         "Post-game chess analysis and player metrics",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	return rootCmd
}

// setupLogger installs the default logger for cfg.
func setupLogger(cfg config.Config, out io.Writer, colors bool) *logger.Logger {
	log := logger.New(
		logger.WithOutput(out),
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(colors),
	)
	logger.SetDefault(log)
	return log
}

// analysisConfig builds the pipeline settings from cfg and the thresholds file.
func analysisConfig(cfg config.Config) (services.AnalysisConfig, error) {
	thresholds, err := config.LoadThresholds(cfg.ThresholdsPath, analysis.DefaultThresholds())
	if err != nil {
		return services.AnalysisConfig{}, err
	}
	return services.AnalysisConfig{
		Depth:       cfg.AnalysisDepth,
		DeepDepth:   cfg.AnalysisDeepDepth,
		Lines:       cfg.AnalysisLines,
		CallTimeout: cfg.EvalTimeout,
		Thresholds:  thresholds,
	}, nil
}
