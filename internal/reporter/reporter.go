// Package reporter renders batch results for people and programs.
//
// Supported output formats:
//   - Console: human-readable summary for terminal display
//   - JSON: the full result structure for programmatic consumption
//   - CSV: one row per extracted transaction for spreadsheets
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"receipt-batch-service/internal/batch"
	"receipt-batch-service/internal/models"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for result rendering
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeTransactions bool `json:"include_transactions"`
	IncludeDuplicates   bool `json:"include_duplicates"`
	IncludeWarnings     bool `json:"include_warnings"`
	IncludeInsights     bool `json:"include_insights"`
	IncludeTax          bool `json:"include_tax"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default rendering configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:              FormatConsole,
		IncludeTransactions: true,
		IncludeDuplicates:   true,
		IncludeWarnings:     true,
		IncludeInsights:     true,
		IncludeTax:          true,
		CSVDelimiter:        ',',
		CSVHeaders:          true,
	}
}

// Validate validates the rendering configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.CSVDelimiter == 0 {
		return fmt.Errorf("csv delimiter cannot be empty")
	}

	return nil
}

// Reporter renders batch results
type Reporter struct {
	config *ReportConfig
}

// NewReporter creates a reporter. A nil config selects defaults.
func NewReporter(config *ReportConfig) (*Reporter, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Reporter{config: config}, nil
}

// Render writes the result to w in the configured format
func (r *Reporter) Render(result *batch.Result, w io.Writer) error {
	switch r.config.Format {
	case FormatJSON:
		return r.renderJSON(result, w)
	case FormatCSV:
		return r.renderCSV(result, w)
	default:
		return r.renderConsole(result, w)
	}
}

func (r *Reporter) renderJSON(result *batch.Result, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (r *Reporter) renderCSV(result *batch.Result, w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = r.config.CSVDelimiter
	defer writer.Flush()

	if r.config.CSVHeaders {
		header := []string{"file", "amount", "merchant", "category", "date", "type", "confidence"}
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	for _, record := range result.ExtractedTransactions {
		date := ""
		if record.HasDate() {
			date = models.DayKey(record.Date)
		}

		row := []string{
			record.FileName,
			record.Amount.StringFixed(2),
			record.Merchant,
			record.Category,
			date,
			record.Type.String(),
			fmt.Sprintf("%.2f", record.Confidence),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func (r *Reporter) renderConsole(result *batch.Result, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("BATCH PROCESSING RESULT\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	fmt.Fprintf(&sb, "Batch ID:        %s\n", result.BatchID)
	fmt.Fprintf(&sb, "Files:           %d total, %d successful, %d failed\n",
		result.TotalFiles, result.SuccessfulFiles, result.FailedFiles)
	fmt.Fprintf(&sb, "Processing time: %s\n", result.ProcessingTime)

	if result.Summary != nil {
		fmt.Fprintf(&sb, "Total spending:  %s\n", result.Summary.TotalSpending.StringFixed(2))
		fmt.Fprintf(&sb, "Avg confidence:  %.2f\n", result.Summary.AverageConfidence)

		if result.Summary.DateRange != nil {
			fmt.Fprintf(&sb, "Date range:      %s to %s\n",
				models.DayKey(result.Summary.DateRange.Start),
				models.DayKey(result.Summary.DateRange.End))
		}
	}
	sb.WriteString("\n")

	if r.config.IncludeTransactions && len(result.ExtractedTransactions) > 0 {
		sb.WriteString("EXTRACTED TRANSACTIONS\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		for _, record := range result.ExtractedTransactions {
			date := "unknown"
			if record.HasDate() {
				date = models.DayKey(record.Date)
			}
			fmt.Fprintf(&sb, "  %-24s %10s  %-12s %s\n",
				truncate(record.FileName, 24), record.Amount.StringFixed(2),
				date, truncate(record.Merchant, 24))
		}
		sb.WriteString("\n")
	}

	if r.config.IncludeDuplicates && len(result.DuplicateGroups) > 0 {
		fmt.Fprintf(&sb, "DUPLICATE GROUPS (%d redundant records)\n", result.DuplicatesFound)
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		for i, group := range result.DuplicateGroups {
			fmt.Fprintf(&sb, "  Group %d: %d records, %s match (confidence %.2f)\n",
				i+1, group.Size(), group.Analysis.MatchType, group.Analysis.Confidence)
			for _, record := range group.Records {
				fmt.Fprintf(&sb, "    - %s (%s at %s)\n",
					record.FileName, record.Amount.StringFixed(2), record.Merchant)
			}
		}
		sb.WriteString("\n")
	}

	if r.config.IncludeWarnings && len(result.Warnings) > 0 {
		fmt.Fprintf(&sb, "WARNINGS (%d)\n", len(result.Warnings))
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		for _, warning := range result.Warnings {
			fmt.Fprintf(&sb, "  [%s] %s\n", warning.Type, warning.Description)
		}
		sb.WriteString("\n")
	}

	if result.ExpenseReport != nil {
		sb.WriteString("SPENDING BY CATEGORY\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		for _, category := range result.ExpenseReport.Categories {
			fmt.Fprintf(&sb, "  %-24s %10s  %5.1f%%  %s\n",
				truncate(category.Category, 24), category.TotalAmount.StringFixed(2),
				category.Percentage, category.Trend)
		}
		sb.WriteString("\n")

		if r.config.IncludeTax && result.ExpenseReport.Tax != nil {
			tax := result.ExpenseReport.Tax
			sb.WriteString("TAX ESTIMATE\n")
			sb.WriteString(strings.Repeat("-", 50) + "\n")
			fmt.Fprintf(&sb, "  Taxable spending: %s\n", tax.TotalTaxable.StringFixed(2))
			fmt.Fprintf(&sb, "  Estimated tax:    %s (CGST %s / SGST %s)\n",
				tax.EstimatedTax.StringFixed(2), tax.CGST.StringFixed(2), tax.SGST.StringFixed(2))
			fmt.Fprintf(&sb, "  Deductible:       %s\n", tax.DeductibleAmount.StringFixed(2))
			sb.WriteString("\n")
		}

		if r.config.IncludeInsights && len(result.ExpenseReport.Insights) > 0 {
			sb.WriteString("INSIGHTS\n")
			sb.WriteString(strings.Repeat("-", 50) + "\n")
			for _, insight := range result.ExpenseReport.Insights {
				fmt.Fprintf(&sb, "  [%s] %s\n", insight.Impact, insight.Title)
				fmt.Fprintf(&sb, "         %s\n", insight.Description)
			}
			sb.WriteString("\n")
		}

		if result.ExpenseReport.Compliance != nil {
			compliance := result.ExpenseReport.Compliance
			fmt.Fprintf(&sb, "Compliance: %d issue(s), audit ready: %t\n\n",
				len(compliance.Issues), compliance.AuditReady)
		}

		if result.ExpenseReport.Metadata != nil {
			meta := result.ExpenseReport.Metadata
			fmt.Fprintf(&sb, "Report quality: %s (%d record(s) need manual review)\n",
				meta.Quality, meta.ManualReviewCount)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// truncate shortens s to max characters with an ellipsis
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
