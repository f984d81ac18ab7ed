package main

import (
	"fmt"
	"os"

	"jobmatch/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const app = "jobmatch"

// Actual version can be specified in build command.
var version = "unknown"

type rootOptions struct {
	configFile string
	debug      bool
	json       bool
}

// setup 读取配置并构造 logger；命令行参数优先于配置文件。
func (o *rootOptions) setup() (AppConfig, *zap.Logger, error) {
	cfg, err := loadConfig(o.configFile)
	if err != nil {
		return AppConfig{}, nil, err
	}
	log, err := logger.New(o.json || cfg.Log.JSON, o.debug || cfg.Log.Debug)
	if err != nil {
		return AppConfig{}, nil, fmt.Errorf("creating a logger: %w", err)
	}
	log.Debug("config loaded", zap.String("version", version), zap.String("database", cfg.Database.Driver))
	return cfg, log, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           app,
		Short:         "jobmatch ranks candidates for jobs and jobs for candidates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "a config file (default is $CONFIG_FILE or config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "json format for logging")

	root.AddCommand(
		newServeCmd(opts),
		newMatchCmd(opts),
		newRecommendCmd(opts),
		newSweepCmd(opts),
		newImportCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
			},
		},
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
