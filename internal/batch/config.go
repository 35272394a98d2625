package batch

import (
	"fmt"
	"time"

	"receipt-batch-service/internal/report"
	"receipt-batch-service/internal/similarity"
)

// ProcessingMode selects how files in a batch are extracted
type ProcessingMode string

const (
	// ModeParallel extracts several files at once, bounded by WindowSize
	ModeParallel ProcessingMode = "parallel"
	// ModeSequential extracts files one at a time in input order
	ModeSequential ProcessingMode = "sequential"
)

// Supported input document types
var allowedMIMETypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// Config holds the tunable parameters for batch processing
type Config struct {
	// MaxFiles caps how many documents one batch may contain
	MaxFiles int `json:"max_files"`

	// MaxFileSize caps the size of a single document in bytes
	MaxFileSize int64 `json:"max_file_size"`

	// WindowSize bounds how many extractions run concurrently in
	// parallel mode
	WindowSize int `json:"window_size"`

	// ProcessingMode selects parallel or sequential extraction
	ProcessingMode ProcessingMode `json:"processing_mode"`

	// ExtractTimeout bounds a single extraction call. Zero disables the
	// per-call timeout.
	ExtractTimeout time.Duration `json:"extract_timeout"`

	// EnableDuplicateDetection toggles the duplicate grouping stage
	EnableDuplicateDetection bool `json:"enable_duplicate_detection"`

	// EnableCrossValidation toggles the advisory consistency stage
	EnableCrossValidation bool `json:"enable_cross_validation"`

	// EnableReportGeneration toggles the expense report stage
	EnableReportGeneration bool `json:"enable_report_generation"`

	// MaxFailureDetails caps how many per-file failures are retained in
	// detail on the result. Zero keeps all of them.
	MaxFailureDetails int `json:"max_failure_details"`

	// Similarity configures the duplicate analyzer. Nil selects defaults.
	Similarity *similarity.Config `json:"similarity,omitempty"`

	// Report configures the expense report generator. Nil selects
	// defaults.
	Report *report.Config `json:"report,omitempty"`
}

// DefaultConfig returns the standard batch configuration
func DefaultConfig() *Config {
	return &Config{
		MaxFiles:                 50,
		MaxFileSize:              10 * 1024 * 1024,
		WindowSize:               5,
		ProcessingMode:           ModeParallel,
		EnableDuplicateDetection: true,
		EnableCrossValidation:    true,
		EnableReportGeneration:   true,
		MaxFailureDetails:        0,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MaxFiles <= 0 {
		return fmt.Errorf("max files must be positive: %d", c.MaxFiles)
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive: %d", c.MaxFileSize)
	}

	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive: %d", c.WindowSize)
	}

	if c.ProcessingMode != ModeParallel && c.ProcessingMode != ModeSequential {
		return fmt.Errorf("invalid processing mode: %s", c.ProcessingMode)
	}

	if c.ExtractTimeout < 0 {
		return fmt.Errorf("extract timeout cannot be negative: %s", c.ExtractTimeout)
	}

	if c.MaxFailureDetails < 0 {
		return fmt.Errorf("max failure details cannot be negative: %d", c.MaxFailureDetails)
	}

	if c.Similarity != nil {
		if err := c.Similarity.Validate(); err != nil {
			return fmt.Errorf("similarity configuration: %w", err)
		}
	}

	if c.Report != nil {
		if err := c.Report.Validate(); err != nil {
			return fmt.Errorf("report configuration: %w", err)
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	if c.Similarity != nil {
		clone.Similarity = c.Similarity.Clone()
	}
	if c.Report != nil {
		clone.Report = c.Report.Clone()
	}
	return &clone
}

// IsAllowedMIMEType reports whether the given type can be processed
func IsAllowedMIMEType(mimeType string) bool {
	return allowedMIMETypes[mimeType]
}
