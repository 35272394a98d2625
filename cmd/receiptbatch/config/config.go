// Package config builds component configurations from CLI inputs
package config

import (
	"fmt"
	"time"

	"receipt-batch-service/internal/batch"
	"receipt-batch-service/internal/extract"
	"receipt-batch-service/internal/reporter"
	"receipt-batch-service/internal/similarity"
	"receipt-batch-service/pkg/logger"
)

// CreateSimilarityConfig creates a similarity configuration for the named
// profile with the given tolerance overrides. Negative overrides keep the
// profile value.
func CreateSimilarityConfig(profile string, amountTolerance float64, dateTolerance int) (*similarity.Config, error) {
	var config *similarity.Config

	switch profile {
	case "", "default":
		config = similarity.DefaultConfig()
	case "strict":
		config = similarity.StrictConfig()
	case "relaxed":
		config = similarity.RelaxedConfig()
	default:
		return nil, fmt.Errorf("unknown matching profile: %s (use default, strict, or relaxed)", profile)
	}

	if amountTolerance >= 0 {
		config.AmountTolerance = amountTolerance
	}
	if dateTolerance >= 0 {
		config.DateToleranceDays = dateTolerance
	}

	return config, nil
}

// BatchOptions carries the CLI inputs that shape batch processing
type BatchOptions struct {
	Mode             string
	WindowSize       int
	MaxFiles         int
	ExtractTimeout   time.Duration
	DetectDuplicates bool
	CrossValidate    bool
	GenerateReport   bool
	Profile          string
	AmountTolerance  float64
	DateTolerance    int
}

// CreateBatchConfig creates a batch configuration from CLI options
func CreateBatchConfig(opts BatchOptions) (*batch.Config, error) {
	config := batch.DefaultConfig()

	switch opts.Mode {
	case "", "parallel":
		config.ProcessingMode = batch.ModeParallel
	case "sequential":
		config.ProcessingMode = batch.ModeSequential
	default:
		return nil, fmt.Errorf("unknown processing mode: %s (use parallel or sequential)", opts.Mode)
	}

	if opts.WindowSize > 0 {
		config.WindowSize = opts.WindowSize
	}
	if opts.MaxFiles > 0 {
		config.MaxFiles = opts.MaxFiles
	}
	config.ExtractTimeout = opts.ExtractTimeout
	config.EnableDuplicateDetection = opts.DetectDuplicates
	config.EnableCrossValidation = opts.CrossValidate
	config.EnableReportGeneration = opts.GenerateReport

	similarityConfig, err := CreateSimilarityConfig(opts.Profile, opts.AmountTolerance, opts.DateTolerance)
	if err != nil {
		return nil, err
	}
	config.Similarity = similarityConfig

	return config, nil
}

// CreateExtractorConfig creates the Gemini extractor configuration
func CreateExtractorConfig(model, apiKey string) *extract.GeminiConfig {
	return &extract.GeminiConfig{
		Model:  model,
		APIKey: apiKey,
	}
}

// CreateReportConfig creates a rendering configuration for the specified
// output format
func CreateReportConfig(format string) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()

	switch format {
	case "", "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	default:
		return nil, fmt.Errorf("unknown output format: %s (use console, json, or csv)", format)
	}

	return config, nil
}

// CreateLoggerConfig creates a logger configuration for CLI usage
func CreateLoggerConfig(verbose bool) *logger.Config {
	if verbose {
		return logger.DebugConfig()
	}
	return logger.DefaultConfig()
}
