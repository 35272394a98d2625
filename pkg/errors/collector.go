package errors

import (
	"fmt"
	"strings"
)

// ExtractionFailure records a single per-file extraction failure together
// with the position of the file in the batch.
type ExtractionFailure struct {
	FileName   string      `json:"file_name"`
	BatchIndex int         `json:"batch_index"`
	Err        *BatchError `json:"error"`
}

// FailureCollector accumulates per-file extraction failures for a batch.
// Extraction failures never abort the batch, so the coordinator collects
// them here and reports an aggregate count to the caller.
type FailureCollector struct {
	failures    []*ExtractionFailure
	total       int
	maxFailures int
}

// NewFailureCollector creates a collector. maxFailures caps how many
// failures are retained in detail; zero means unlimited.
func NewFailureCollector(maxFailures int) *FailureCollector {
	return &FailureCollector{
		failures:    []*ExtractionFailure{},
		maxFailures: maxFailures,
	}
}

// Add records a failure. Returns false once the detail cap is reached;
// the count keeps incrementing regardless.
func (c *FailureCollector) Add(fileName string, batchIndex int, err *BatchError) bool {
	c.total++

	if c.maxFailures > 0 && len(c.failures) >= c.maxFailures {
		return false
	}

	c.failures = append(c.failures, &ExtractionFailure{
		FileName:   fileName,
		BatchIndex: batchIndex,
		Err:        err,
	})
	return true
}

// Count returns the number of failures added, including any dropped by
// the detail cap
func (c *FailureCollector) Count() int {
	return c.total
}

// HasFailures checks if any failures were recorded
func (c *FailureCollector) HasFailures() bool {
	return c.total > 0
}

// Failures returns the recorded failures
func (c *FailureCollector) Failures() []*ExtractionFailure {
	return c.failures
}

// Summary builds an ErrorSummary over the collected failures
func (c *FailureCollector) Summary() *ErrorSummary {
	batchErrors := make([]*BatchError, 0, len(c.failures))
	for _, f := range c.failures {
		batchErrors = append(batchErrors, f.Err)
	}
	return NewErrorSummary(batchErrors)
}

// FormatForLog renders a compact one-line-per-failure view for logging
func (c *FailureCollector) FormatForLog() string {
	if c.total == 0 {
		return "no extraction failures"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d extraction failure(s):", c.total)
	for _, f := range c.failures {
		fmt.Fprintf(&sb, "\n  [%d] %s: %s", f.BatchIndex, f.FileName, f.Err.Message)
	}
	if dropped := c.total - len(c.failures); dropped > 0 {
		fmt.Fprintf(&sb, "\n  ... and %d more", dropped)
	}
	return sb.String()
}
