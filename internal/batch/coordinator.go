// Package batch orchestrates the full pipeline for one batch of scanned
// documents: validation, concurrent extraction, duplicate grouping,
// advisory cross-document checks, and expense report generation.
package batch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"receipt-batch-service/internal/extract"
	"receipt-batch-service/internal/models"
	"receipt-batch-service/internal/report"
	"receipt-batch-service/internal/similarity"
	"receipt-batch-service/pkg/errors"
	"receipt-batch-service/pkg/logger"
)

// Progress is the payload handed to progress callbacks. Extraction
// progress arrives in completion order, not input order.
type Progress struct {
	BatchID     string `json:"batch_id"`
	Stage       Stage  `json:"stage"`
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
	CurrentFile string `json:"current_file,omitempty"`
}

// ProgressFunc receives progress updates during processing. Callbacks are
// invoked serially; a slow callback slows the batch down.
type ProgressFunc func(Progress)

// Result is the outcome of one processed batch
type Result struct {
	BatchID               string                       `json:"batch_id"`
	TotalFiles            int                          `json:"total_files"`
	SuccessfulFiles       int                          `json:"successful_files"`
	FailedFiles           int                          `json:"failed_files"`
	ProcessingTime        time.Duration                `json:"processing_time"`
	DuplicatesFound       int                          `json:"duplicates_found"`
	DuplicateGroups       []*similarity.DuplicateGroup `json:"duplicate_groups,omitempty"`
	ExtractedTransactions []*models.TransactionRecord  `json:"extracted_transactions"`
	Warnings              []*Warning                   `json:"warnings,omitempty"`
	ExpenseReport         *report.ExpenseReport        `json:"expense_report,omitempty"`
	Summary               *Summary                     `json:"summary,omitempty"`
	Failures              []*errors.ExtractionFailure  `json:"failures,omitempty"`
}

// Summary condenses the batch for callers that do not need the full
// expense report
type Summary struct {
	AverageConfidence float64           `json:"average_confidence"`
	TopMerchants      []NameCount       `json:"top_merchants"`
	TopCategories     []NameCount       `json:"top_categories"`
	DateRange         *DateRange        `json:"date_range,omitempty"`
	TotalSpending     decimal.Decimal   `json:"total_spending"`
	Anomalies         []*report.Anomaly `json:"anomalies,omitempty"`
}

// NameCount pairs a label with how often it occurred
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DateRange spans the earliest and latest transaction dates in the batch
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Coordinator runs batches through the pipeline. Safe for concurrent use;
// each ProcessBatch call is independent and tracked in the shared
// registry.
type Coordinator struct {
	config    *Config
	extractor extract.Extractor
	grouper   *similarity.Grouper
	generator *report.Generator
	registry  *Registry
	logger    logger.Logger
}

// NewCoordinator creates a coordinator. A nil config selects defaults.
func NewCoordinator(config *Config, extractor extract.Extractor) (*Coordinator, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "batch", nil, err)
	}

	if extractor == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "extractor", nil, nil)
	}

	analyzer, err := similarity.NewAnalyzer(config.Similarity)
	if err != nil {
		return nil, err
	}

	generator, err := report.NewGenerator(config.Report)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		config:    config,
		extractor: extractor,
		grouper:   similarity.NewGrouper(analyzer),
		generator: generator,
		registry:  NewRegistry(),
		logger:    logger.GetGlobalLogger().WithComponent("batch"),
	}, nil
}

// Registry exposes the batch registry for status queries and cancellation
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// ProcessBatch runs the full pipeline over the given files. Per-file
// extraction failures do not abort the batch; the batch only fails on
// invalid input, cancellation, or report generation errors. progress may
// be nil.
func (c *Coordinator) ProcessBatch(ctx context.Context, files []*models.BatchFile, progress ProgressFunc) (*Result, error) {
	startTime := time.Now()
	batchID := uuid.New().String()

	log := c.logger.WithField("batch_id", batchID)

	if err := c.validateBatch(files); err != nil {
		log.WithError(err).Error("Batch validation failed")
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.registry.register(batchID, len(files), cancel)

	log.WithFields(logger.Fields{
		"files": len(files),
		"mode":  c.config.ProcessingMode,
	}).Info("Starting batch")

	notify := func(stage Stage, completed int, currentFile string) {
		if progress != nil {
			progress(Progress{
				BatchID:     batchID,
				Stage:       stage,
				Completed:   completed,
				Total:       len(files),
				CurrentFile: currentFile,
			})
		}
	}

	notify(StageInitializing, 0, "")

	c.registry.setStage(batchID, StageProcessing)
	records, failures, err := c.extractAll(ctx, batchID, files, notify)
	if err != nil {
		stage := StageFailed
		if ctx.Err() != nil {
			stage = StageCancelled
		}
		c.registry.setStage(batchID, stage)
		log.WithError(err).Error("Batch aborted during extraction")
		return nil, err
	}

	result := &Result{
		BatchID:               batchID,
		TotalFiles:            len(files),
		SuccessfulFiles:       len(records),
		FailedFiles:           failures.Count(),
		ExtractedTransactions: records,
		Failures:              failures.Failures(),
	}

	if failures.HasFailures() {
		log.Warn(failures.FormatForLog())
	}

	if c.config.EnableDuplicateDetection && len(records) > 0 {
		c.registry.setStage(batchID, StageDuplicates)
		notify(StageDuplicates, len(files), "")

		result.DuplicateGroups = c.grouper.Group(records)
		result.DuplicatesFound = similarity.DuplicateRecordCount(result.DuplicateGroups)
	}

	if c.config.EnableCrossValidation && len(records) > 0 {
		c.registry.setStage(batchID, StageValidation)
		notify(StageValidation, len(files), "")

		result.Warnings = c.crossValidate(records)
	}

	if c.config.EnableReportGeneration && len(records) > 0 {
		c.registry.setStage(batchID, StageReporting)
		notify(StageReporting, len(files), "")

		expenseReport, err := c.generator.Generate(records, nil)
		if err != nil {
			c.registry.setStage(batchID, StageFailed)
			log.WithError(err).Error("Report generation failed")
			return nil, err
		}
		result.ExpenseReport = expenseReport
	}

	if len(records) > 0 {
		result.Summary = c.buildSummary(records, result.DuplicateGroups)
	}

	result.ProcessingTime = time.Since(startTime)
	c.registry.setStage(batchID, StageComplete)
	notify(StageComplete, len(files), "")

	log.WithFields(logger.Fields{
		"successful": result.SuccessfulFiles,
		"failed":     result.FailedFiles,
		"duplicates": result.DuplicatesFound,
		"elapsed":    result.ProcessingTime,
	}).Info("Batch complete")

	return result, nil
}

// extractAll runs extraction over every file and returns the successful
// records in input order. In parallel mode at most WindowSize extractions
// run at once.
func (c *Coordinator) extractAll(ctx context.Context, batchID string, files []*models.BatchFile, notify func(Stage, int, string)) ([]*models.TransactionRecord, *errors.FailureCollector, error) {
	results := make([]*models.TransactionRecord, len(files))
	collector := errors.NewFailureCollector(c.config.MaxFailureDetails)

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "extraction",
		Total:     int64(len(files)),
		Logger:    c.logger.WithField("batch_id", batchID),
	})
	defer tracker.Finish()

	var mu sync.Mutex
	completed := 0
	failed := 0

	finishOne := func(index int, record *models.TransactionRecord, err error) {
		mu.Lock()
		defer mu.Unlock()

		completed++
		if err != nil {
			failed++
			batchErr, ok := errors.AsBatchError(err)
			if !ok {
				batchErr = errors.ExtractionError(errors.CodeExtractionFailed, files[index].Name, err)
			}
			collector.Add(files[index].Name, index, batchErr)
			tracker.IncrementFailed()
		} else {
			results[index] = record
			tracker.Increment()
		}

		c.registry.setProgress(batchID, completed, failed)
		notify(StageProcessing, completed, files[index].Name)
	}

	if c.config.ProcessingMode == ModeSequential {
		for i, file := range files {
			if ctx.Err() != nil {
				return nil, nil, errors.InternalError(errors.CodeProcessingError, "batch cancelled", ctx.Err())
			}
			record, err := c.extractOne(ctx, file, i)
			finishOne(i, record, err)
		}
	} else {
		sem := semaphore.NewWeighted(int64(c.config.WindowSize))
		var wg sync.WaitGroup

		for i, file := range files {
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return nil, nil, errors.InternalError(errors.CodeProcessingError, "batch cancelled", err)
			}

			wg.Add(1)
			go func(index int, f *models.BatchFile) {
				defer wg.Done()
				defer sem.Release(1)

				record, err := c.extractOne(ctx, f, index)
				finishOne(index, record, err)
			}(i, file)
		}

		wg.Wait()

		if ctx.Err() != nil {
			return nil, nil, errors.InternalError(errors.CodeProcessingError, "batch cancelled", ctx.Err())
		}
	}

	records := make([]*models.TransactionRecord, 0, len(files))
	for _, record := range results {
		if record != nil {
			records = append(records, record)
		}
	}

	return records, collector, nil
}

// extractOne runs a single extraction with the configured per-call
// timeout and stamps batch provenance onto the record
func (c *Coordinator) extractOne(ctx context.Context, file *models.BatchFile, index int) (*models.TransactionRecord, error) {
	if c.config.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ExtractTimeout)
		defer cancel()
	}

	record, err := c.extractor.Extract(ctx, file)
	if err != nil {
		return nil, err
	}

	record.FileName = file.Name
	record.BatchIndex = index
	if record.ExtractedAt.IsZero() {
		record.ExtractedAt = time.Now()
	}

	return record, nil
}

// buildSummary condenses the extracted records into the batch summary.
// TotalSpending counts each duplicate group once; the redundant members
// of every group are excluded from the sum.
func (c *Coordinator) buildSummary(records []*models.TransactionRecord, groups []*similarity.DuplicateGroup) *Summary {
	total := models.SumAmounts(records)
	for _, group := range groups {
		for _, redundant := range group.Records[1:] {
			if redundant.HasAmount() {
				total = total.Sub(redundant.Amount)
			}
		}
	}

	summary := &Summary{
		AverageConfidence: models.AverageConfidence(records),
		TotalSpending:     total,
		TopMerchants:      topCounts(records, func(r *models.TransactionRecord) string { return r.Merchant }),
		TopCategories:     topCounts(records, func(r *models.TransactionRecord) string { return r.Category }),
		Anomalies:         c.generator.DetectAnomalies(records),
	}

	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		if summary.DateRange == nil {
			summary.DateRange = &DateRange{Start: r.Date, End: r.Date}
			continue
		}
		if r.Date.Before(summary.DateRange.Start) {
			summary.DateRange.Start = r.Date
		}
		if r.Date.After(summary.DateRange.End) {
			summary.DateRange.End = r.Date
		}
	}

	return summary
}

// topCounts returns up to five labels ranked by occurrence count, with
// ties broken alphabetically. Records with an empty label are skipped.
func topCounts(records []*models.TransactionRecord, label func(*models.TransactionRecord) string) []NameCount {
	counts := map[string]int{}
	for _, r := range records {
		if name := label(r); name != "" {
			counts[name]++
		}
	}

	result := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, NameCount{Name: name, Count: count})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count == result[j].Count {
			return result[i].Name < result[j].Name
		}
		return result[i].Count > result[j].Count
	})

	if len(result) > 5 {
		result = result[:5]
	}
	return result
}
