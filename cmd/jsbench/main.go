package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethpandaops/jsbench/pkg/config"
	"github.com/ethpandaops/jsbench/pkg/store"
	"github.com/ethpandaops/jsbench/pkg/testcase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information set at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFiles []string
	logLevel string
	log      *logrus.Logger
)

func main() {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("Failed to execute command")
	}
}

var rootCmd = &cobra.Command{
	Use:   "jsbench",
	Short: "JavaScript benchmark test case store",
	Long: `jsbench stores JavaScript micro-benchmark test cases with their revision
history and aggregates the results submitted from browsers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}

		log.SetLevel(level)

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jsbench %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVar(&cfgFiles, "config", nil,
		"config file path, may be repeated (later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"log level ("+strings.Join(logLevels(), ", ")+")")

	rootCmd.AddCommand(versionCmd)
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}

	return levels
}

// loadConfig loads and validates the configuration. The config's log level
// applies unless --log-level was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFiles...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if !cmd.Flags().Changed("log-level") {
		level, _ := logrus.ParseLevel(cfg.Global.LogLevel)
		log.SetLevel(level)
	}

	return cfg, nil
}

// openService starts the configured store and builds the service on top.
// The caller stops the returned store.
func openService(
	ctx context.Context, cfg *config.Config,
) (store.Store, testcase.Service, error) {
	st := store.NewStore(log, &cfg.API.Database)
	if err := st.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("starting store: %w", err)
	}

	return st, testcase.NewService(log, st), nil
}
