// Package cmd implements the sparkqual command-line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sparkqual/sparkqual/internal/config"
	"github.com/sparkqual/sparkqual/internal/observability"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	cfg         *config.Config
	cfgPath     string
	logLevel    string
	outputDir   string
	outputFmt   string
	concurrency int
)

var rootCmd = &cobra.Command{
	Use:   "sparkqual",
	Short: "Profile Spark event logs and score them for acceleration",
	Long: `sparkqual reconstructs an application model from Spark event logs,
computes timing and diagnostic reports, and scores how well-suited a
run is for accelerated execution.

Event logs may be plain or gzipped files, directories of logs, or
objects in S3.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if outputDir != "" {
			cfg.Output.Dir = outputDir
		}
		if outputFmt != "" {
			cfg.Output.Format = outputFmt
		}
		if concurrency > 0 {
			cfg.Source.Concurrency = concurrency
		}
		return observability.Init(cfg.Logging.Level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for report output")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "", "Report format (text, csv, json, yaml)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "Parallel application analyses")
	rootCmd.Version = Version
}

// Execute runs the CLI.
func Execute() error {
	defer observability.Sync()
	return rootCmd.Execute()
}
