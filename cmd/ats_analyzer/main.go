// Package main provides the entry point for the ATS resume analyzer CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/ats-analyzer/internal/config"
	"github.com/jonathan/ats-analyzer/internal/ingestion"
	"github.com/jonathan/ats-analyzer/internal/logger"
	"github.com/jonathan/ats-analyzer/internal/observability"
	"github.com/jonathan/ats-analyzer/internal/scoring"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath     string
	jsonLogs       bool
	debugLogs      bool
	vocabularyPath string

	// Resolved by loadRuntime before any subcommand runs
	appConfig config.Config
	appLog    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ats_analyzer",
	Short: "ATS resume compatibility analyzer",
	Long: "ats_analyzer scores resumes for applicant tracking system compatibility across 15 factors " +
		"and reports prioritized improvements, from the command line or via REST API.",
	SilenceUsage:       true,
	PersistentPreRunE:  loadRuntime,
	PersistentPostRunE: syncLogger,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&vocabularyPath, "vocabulary", "", "Path to YAML vocabulary replacing the built-in word lists")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadRuntime resolves configuration (file, then environment, then flags) and builds the logger.
func loadRuntime(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()

	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded.MergeWithDefaults(cfg)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("json-logs") {
		cfg.JSONLogs = jsonLogs
	}
	if flags.Changed("debug") {
		cfg.Debug = debugLogs
	}
	if flags.Changed("vocabulary") {
		cfg.VocabularyPath = vocabularyPath
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.JSONLogs, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	appConfig = cfg
	appLog = log
	return nil
}

func syncLogger(_ *cobra.Command, _ []string) error {
	// Sync errors on stderr are ignored
	_ = appLog.Sync()
	return nil
}

// newAnalyzer builds an analyzer from the resolved configuration
func newAnalyzer(cfg config.Config, log *zap.Logger) (*scoring.Analyzer, error) {
	opts := []scoring.Option{scoring.WithReporter(observability.NewZapReporter(log))}

	if cfg.VocabularyPath != "" {
		vocab, err := scoring.LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			return nil, err
		}
		log.Info("loaded vocabulary", zap.String(logger.FieldFile, cfg.VocabularyPath))
		opts = append(opts, scoring.WithVocabulary(vocab))
	}

	return scoring.NewAnalyzer(opts...)
}

// newExtractor builds an extractor from the resolved configuration
func newExtractor(cfg config.Config, log *zap.Logger) *ingestion.Extractor {
	return ingestion.NewExtractor(
		ingestion.WithMinFallbackChars(cfg.MinFallbackChars),
		ingestion.WithLogger(log),
	)
}
