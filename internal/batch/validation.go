package batch

import (
	"fmt"

	"receipt-batch-service/internal/models"
	"receipt-batch-service/pkg/errors"
)

// validateBatch checks the input files before any processing starts.
// The whole batch is rejected on the first violation.
func (c *Coordinator) validateBatch(files []*models.BatchFile) error {
	if len(files) == 0 {
		return errors.ValidationError(errors.CodeEmptyBatch, "files", nil, nil)
	}

	if len(files) > c.config.MaxFiles {
		return errors.ValidationError(errors.CodeTooManyFiles, "files", len(files), nil).
			WithContext("max_files", c.config.MaxFiles)
	}

	for i, file := range files {
		if file.Size > c.config.MaxFileSize {
			return errors.ValidationError(errors.CodeFileTooLarge, "size", file.Size, nil).
				WithContext("file", file.Name).
				WithContext("index", i).
				WithContext("max_file_size", c.config.MaxFileSize)
		}

		if !IsAllowedMIMEType(file.MIMEType) {
			return errors.ValidationError(errors.CodeUnsupportedType, "mime_type", file.MIMEType, nil).
				WithContext("file", file.Name).
				WithContext("index", i)
		}
	}

	return nil
}

// Warning is an advisory finding from cross-document validation. Warnings
// never fail the batch.
type Warning struct {
	Type        WarningType `json:"type"`
	Description string      `json:"description"`
	FileNames   []string    `json:"file_names,omitempty"`
}

// WarningType classifies cross-document warnings
type WarningType string

const (
	WarningMissingAmount   WarningType = "missing_amount"
	WarningMissingDate     WarningType = "missing_date"
	WarningConflictingData WarningType = "conflicting_data"
	WarningLowConfidence   WarningType = "low_confidence"
)

// crossValidate inspects the extracted records as a set and reports
// inconsistencies a reviewer should look at
func (c *Coordinator) crossValidate(records []*models.TransactionRecord) []*Warning {
	warnings := []*Warning{}

	for _, r := range records {
		if !r.HasAmount() {
			warnings = append(warnings, &Warning{
				Type:        WarningMissingAmount,
				Description: fmt.Sprintf("No amount could be read from %s", r.FileName),
				FileNames:   []string{r.FileName},
			})
		}

		if !r.HasDate() {
			warnings = append(warnings, &Warning{
				Type:        WarningMissingDate,
				Description: fmt.Sprintf("No date could be read from %s", r.FileName),
				FileNames:   []string{r.FileName},
			})
		}

		if r.Confidence < 0.5 {
			warnings = append(warnings, &Warning{
				Type:        WarningLowConfidence,
				Description: fmt.Sprintf("Extraction from %s has confidence %.2f and should be reviewed", r.FileName, r.Confidence),
				FileNames:   []string{r.FileName},
			})
		}
	}

	// Same merchant and day but different amounts often means a split or
	// corrected receipt
	byMerchantDay := map[string][]*models.TransactionRecord{}
	for _, r := range records {
		if !r.HasMerchant() || !r.HasDate() {
			continue
		}
		key := r.Merchant + "|" + models.DayKey(r.Date)
		byMerchantDay[key] = append(byMerchantDay[key], r)
	}

	for _, group := range byMerchantDay {
		if len(group) < 2 {
			continue
		}

		conflicting := false
		for i := 1; i < len(group); i++ {
			if !group[i].Amount.Equal(group[0].Amount) {
				conflicting = true
				break
			}
		}
		if !conflicting {
			continue
		}

		names := make([]string, 0, len(group))
		for _, r := range group {
			names = append(names, r.FileName)
		}
		warnings = append(warnings, &Warning{
			Type: WarningConflictingData,
			Description: fmt.Sprintf("%d documents from %s on %s carry different amounts",
				len(group), group[0].Merchant, models.DayKey(group[0].Date)),
			FileNames: names,
		})
	}

	return warnings
}
