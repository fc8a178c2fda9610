// Package main provides the career_agent CLI: ask questions, serve the HTTP API, and ingest transitions.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonathan/career-transitions/internal/config"
)

var (
	configPath string
	verbose    bool
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "career_agent",
	Short: "Career transition analytics",
	Long: "career_agent answers free-text questions about career transitions, such as where people go after " +
		"leaving a company, by inferring job-to-job moves from employment histories and aggregating them.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (overrides environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and progress output")
}

// logLevelAnnotation overrides the info default for commands whose output is meant for a terminal.
const logLevelAnnotation = "log-level"

func setupLogger(cmd *cobra.Command, _ []string) error {
	level := zapcore.InfoLevel
	if name, ok := cmd.Annotations[logLevelAnnotation]; ok {
		parsed, err := zapcore.ParseLevel(name)
		if err != nil {
			return fmt.Errorf("invalid log level for %s: %w", cmd.Name(), err)
		}
		level = parsed
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = l
	return nil
}

// loadConfig layers --config over the environment over defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
