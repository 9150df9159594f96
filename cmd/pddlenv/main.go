package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pddlenv/internal/config"
	"pddlenv/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose       bool
	configPath    string
	heuristicName string
	algorithm     string
	timeout       time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pddlenv",
	Short: "Ground, search and explore STRIPS planning problems",
	Long: `pddlenv grounds typed STRIPS domains described in YAML, searches them with
greedy best-first or hill-climbing search, and exposes the state space as an
environment with rewards.

Problems are YAML descriptors with an inline domain or a domain_ref naming an
embedded domain (blocks) or a file next to the descriptor.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if heuristicName != "" {
			cfg.Heuristic.Name = heuristicName
		}
		if algorithm != "" {
			cfg.Search.Algorithm = algorithm
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		zc := zap.NewProductionConfig()
		if cfg.Logging.Format == "console" {
			zc.Encoding = "console"
			zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}
		level := zapcore.InfoLevel
		if cfg.Logging.Level != "" {
			if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
			}
		}
		if verbose || cfg.Logging.DebugMode {
			level = zapcore.DebugLevel
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Attach(logger, cfg.Logging.Categories)
		logging.BootDebug("config %s: algorithm=%s heuristic=%s", configPath, cfg.Search.Algorithm, cfg.Heuristic.Name)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pddlenv.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&heuristicName, "heuristic", "", "Heuristic name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&algorithm, "algorithm", "", "Search algorithm: gbfs or hill (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(groundCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(reachableCmd)
	rootCmd.AddCommand(reachCmd)
	rootCmd.AddCommand(towerCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext bounds a command by --timeout and cancels it on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
