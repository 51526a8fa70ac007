// Package schemas holds the JSON Schema documents describing the analyzer's output.
package schemas

import _ "embed"

// ReportSchemaPath is the repo-relative location of the report schema
const ReportSchemaPath = "schemas/report.schema.json"

// ReportSchema is the embedded report schema document
//
//go:embed report.schema.json
var ReportSchema string
