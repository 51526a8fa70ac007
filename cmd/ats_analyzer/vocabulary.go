package main

import (
	"fmt"
	"os"

	"github.com/jonathan/ats-analyzer/internal/scoring"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var vocabularyCmd = &cobra.Command{
	Use:   "vocabulary",
	Short: "Print or check the scoring vocabulary",
	Long: "Prints the vocabulary in effect (built-in, or --vocabulary / ATS_VOCABULARY_PATH) as YAML. " +
		"With --check, validates a vocabulary file instead.",
	RunE: runVocabulary,
}

var (
	vocabularyOutput string
	vocabularyCheck  string
)

func init() {
	vocabularyCmd.Flags().StringVarP(&vocabularyOutput, "out", "o", "", "Write the vocabulary YAML to this file instead of stdout")
	vocabularyCmd.Flags().StringVar(&vocabularyCheck, "check", "", "Validate this vocabulary file and exit")

	rootCmd.AddCommand(vocabularyCmd)
}

func runVocabulary(cmd *cobra.Command, _ []string) error {
	if vocabularyCheck != "" {
		vocab, err := scoring.LoadVocabulary(vocabularyCheck)
		if err != nil {
			return err
		}
		if _, err := scoring.NewAnalyzer(scoring.WithVocabulary(vocab)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Vocabulary OK: %d technical keywords, %d strong verbs, %d buzzwords\n",
			len(vocab.TechnicalKeywords), len(vocab.StrongVerbs), len(vocab.Buzzwords))
		return nil
	}

	analyzer, err := newAnalyzer(appConfig, appLog)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(analyzer.Vocabulary())
	if err != nil {
		return fmt.Errorf("failed to marshal vocabulary: %w", err)
	}

	if vocabularyOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(vocabularyOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write vocabulary file: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Vocabulary written to %s\n", vocabularyOutput)
	return nil
}
