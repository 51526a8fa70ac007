package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/ats-analyzer/internal/schemas"
	"github.com/spf13/cobra"
)

var validateReportCmd = &cobra.Command{
	Use:   "validate-report",
	Short: "Validate a report JSON file against the report schema",
	Long:  "Validates a report produced by analyze against the embedded report schema, or against --schema when given.",
	RunE:  runValidateReport,
}

var (
	validateReportInput  string
	validateReportSchema string
)

func init() {
	validateReportCmd.Flags().StringVarP(&validateReportInput, "in", "i", "", "Path to report JSON file (required)")
	validateReportCmd.Flags().StringVarP(&validateReportSchema, "schema", "s", "", "Path to a JSON Schema file (default: embedded report schema)")

	if err := validateReportCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateReportCmd)
}

func runValidateReport(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(validateReportInput); os.IsNotExist(err) {
		return fmt.Errorf("report file not found: %s", validateReportInput)
	}

	var err error
	if validateReportSchema != "" {
		err = schemas.ValidateJSON(validateReportSchema, validateReportInput)
	} else {
		data, readErr := os.ReadFile(validateReportInput)
		if readErr != nil {
			return fmt.Errorf("failed to read report file: %w", readErr)
		}
		err = schemas.ValidateReportJSON(data)
	}

	if err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), validationErr.Error())
			return fmt.Errorf("report has %d schema violation(s)", len(validationErr.Errors))
		}
		return fmt.Errorf("failed to validate report: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation passed: %s\n", validateReportInput)
	return nil
}
