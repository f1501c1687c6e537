// Package main provides the opslens CLI: the HTTP server, one-shot collection
// and offline classification.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "opslens/src/collector/cloudwatch" // Import for collector registration
	_ "opslens/src/collector/docker"     // Import for collector registration
	_ "opslens/src/collector/jenkins"    // Import for collector registration
	_ "opslens/src/collector/kubernetes" // Import for collector registration
	"opslens/src/config"
	"opslens/src/logger"
	"opslens/src/metrics"
	"opslens/src/pipeline"
)

// app holds what every subcommand shares once configuration is loaded.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics
	svc     *pipeline.Service
	sync    func() error
}

func newApp(cfg *config.Config, log logger.Logger) *app {
	m := metrics.New()
	return &app{
		cfg:     cfg,
		log:     log,
		metrics: m,
		svc:     pipeline.NewFromConfig(cfg, log, m),
		sync:    func() error { return nil },
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		a          = &app{}
	)

	root := &cobra.Command{
		Use:   "opslens",
		Short: "opslens - infrastructure log aggregation and classification",
		Long: `opslens collects logs from Kubernetes, Docker, Jenkins and CloudWatch,
classifies every line by category and severity, keeps a bounded history and
serves it with analytics over HTTP.

Set OPSLENS_BROKERS to consume collected batches from Redpanda.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			zl, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			*a = *newApp(cfg, zl)
			a.sync = zl.Sync
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.sync()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("OPSLENS_CONFIG"), "Path to a YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newCollectCmd(a),
		newClassifyCmd(a),
		newRulesCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
