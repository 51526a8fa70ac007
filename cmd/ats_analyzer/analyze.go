package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/ats-analyzer/internal/ingestion"
	"github.com/jonathan/ats-analyzer/internal/logger"
	"github.com/jonathan/ats-analyzer/internal/observability"
	"github.com/jonathan/ats-analyzer/internal/schemas"
	"github.com/jonathan/ats-analyzer/internal/scoring"
	"github.com/jonathan/ats-analyzer/internal/types"
	reportschema "github.com/jonathan/ats-analyzer/schemas"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume> [resume...]",
	Short: "Score resume files for ATS compatibility",
	Long: "Extracts text from PDF, DOCX, HTML or plain-text resumes and scores each one. " +
		"With a single file and no --out, the report JSON is written to stdout.",
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeOutput      string
	analyzeConcurrency int
	analyzeVerbose     bool
	analyzeSaveText    string
	analyzeMinScore    int
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "out", "o", "", "Report JSON file (one resume) or directory (several resumes)")
	analyzeCmd.Flags().IntVarP(&analyzeConcurrency, "concurrency", "c", 4, "Maximum resumes analyzed at once")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print a formatted report for each resume")
	analyzeCmd.Flags().StringVar(&analyzeSaveText, "save-text", "", "Directory to write extracted text and metadata")
	analyzeCmd.Flags().IntVar(&analyzeMinScore, "min-score", 0, "Fail when any resume scores below this ATS score")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeConcurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}

	analyzer, err := newAnalyzer(appConfig, appLog)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	extractor := newExtractor(appConfig, appLog)

	results := make([]observability.BatchResult, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(analyzeConcurrency)
	for i, path := range args {
		g.Go(func() error {
			report, err := analyzeFile(ctx, analyzer, extractor, path)
			results[i] = observability.BatchResult{Source: path, Report: report, Err: err}
			// Per-file failures are reported in the summary; only cancellation stops the batch
			if errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeReports(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if analyzeVerbose {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		for _, r := range results {
			if r.Err == nil {
				printer.PrintReport(r.Source, r.Report)
			}
		}
	}
	if len(results) > 1 {
		observability.NewPrinter(cmd.OutOrStdout()).PrintBatchSummary(results)
	}

	return batchError(results, analyzeMinScore)
}

// analyzeFile extracts and scores one resume
func analyzeFile(ctx context.Context, analyzer *scoring.Analyzer, extractor *ingestion.Extractor, path string) (*types.Report, error) {
	log := appLog.With(zap.String(logger.FieldFile, path))

	doc, err := extractor.ExtractFile(ctx, path)
	if err != nil {
		log.Warn("extraction failed", zap.Error(err))
		return nil, err
	}

	if analyzeSaveText != "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := ingestion.WriteOutput(analyzeSaveText, base, doc.Text, doc.Metadata); err != nil {
			return nil, err
		}
	}

	text := strings.TrimSpace(doc.Text)
	if utf8.RuneCountInString(text) < appConfig.MinTextChars {
		return nil, fmt.Errorf("file contains no readable text (%d characters extracted)", utf8.RuneCountInString(text))
	}

	report := analyzer.Observed(observability.NewZapReporter(log)).Analyze(text)
	log.Info("analysis complete",
		zap.Int(logger.FieldScore, report.ATSScore),
		zap.Int("raw_score", report.RawScore),
		zap.String("method", doc.Metadata.Method),
	)
	return report, nil
}

// writeReports writes report JSON to --out, or to stdout for a single
// resume when neither --out nor --verbose is set.
func writeReports(stdout io.Writer, results []observability.BatchResult) error {
	if analyzeOutput == "" {
		if len(results) == 1 && !analyzeVerbose && results[0].Err == nil {
			data, err := results[0].Report.ToJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(stdout, string(data))
			return err
		}
		return nil
	}

	if len(results) == 1 {
		if results[0].Err != nil {
			return nil
		}
		return writeReport(analyzeOutput, results[0].Report)
	}

	if err := os.MkdirAll(analyzeOutput, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	names := reportNames(results)
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		if err := writeReport(filepath.Join(analyzeOutput, names[i]), r.Report); err != nil {
			return err
		}
	}
	return nil
}

// reportNames derives "<base>.report.json" per source in argument order,
// suffixing "-2", "-3", ... when two sources share a base name.
func reportNames(results []observability.BatchResult) []string {
	names := make([]string, len(results))
	used := make(map[string]bool, len(results))
	for i, r := range results {
		base := strings.TrimSuffix(filepath.Base(r.Source), filepath.Ext(r.Source))
		name := base + ".report.json"
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d.report.json", base, n)
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

// writeReport writes one report and checks it against the report schema (non-fatal)
func writeReport(path string, report *types.Report) error {
	// Ensure output directory exists
	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := report.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to output file: %w", err)
	}

	// Schema on disk when present, else the embedded copy
	if schemaPath := schemas.ResolveSchemaPath(reportschema.ReportSchemaPath); schemaPath != "" {
		err = schemas.ValidateJSON(schemaPath, path)
	} else {
		err = schemas.ValidateReportJSON(data)
	}
	if err != nil {
		appLog.Warn("generated report does not validate against schema",
			zap.String(logger.FieldFile, path), zap.Error(err))
	}
	return nil
}

// batchError summarizes failed resumes and resumes scoring below minScore
func batchError(results []observability.BatchResult, minScore int) error {
	var failed, low []string
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed = append(failed, r.Source)
		case minScore > 0 && r.Report.ATSScore < minScore:
			low = append(low, fmt.Sprintf("%s (%d)", r.Source, r.Report.ATSScore))
		}
	}

	switch {
	case len(failed) == 1 && len(results) == 1:
		return fmt.Errorf("failed to analyze %s: %w", results[0].Source, results[0].Err)
	case len(failed) > 0:
		return fmt.Errorf("failed to analyze %d of %d resume(s): %s", len(failed), len(results), strings.Join(failed, ", "))
	case len(low) > 0:
		return fmt.Errorf("%d resume(s) scored below %d: %s", len(low), minScore, strings.Join(low, ", "))
	}
	return nil
}
