// Package models defines the shared data types for the receipt batch
// pipeline: the transaction records produced by document recognition and
// the batch file inputs they come from.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	// TransactionTypeIncome represents money received
	TransactionTypeIncome TransactionType = "income"
	// TransactionTypeExpense represents money spent
	TransactionTypeExpense TransactionType = "expense"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// TransactionRecord is a single transaction extracted from a scanned
// document. Every field the recognition engine could not read is left at
// its zero value; downstream consumers treat zero amounts, empty strings,
// and zero dates as absent. Records are immutable once created and owned
// by the batch that produced them.
type TransactionRecord struct {
	Amount      decimal.Decimal `json:"amount"`
	Merchant    string          `json:"merchant,omitempty"`
	Category    string          `json:"category,omitempty"`
	Date        time.Time       `json:"date,omitempty"`
	Description string          `json:"description,omitempty"`
	Confidence  float64         `json:"confidence"`
	Type        TransactionType `json:"type,omitempty"`

	// Batch provenance, attached by the coordinator
	FileName    string    `json:"file_name,omitempty"`
	BatchIndex  int       `json:"batch_index"`
	ExtractedAt time.Time `json:"extracted_at,omitempty"`
}

// HasAmount reports whether the record carries a usable amount
func (r *TransactionRecord) HasAmount() bool {
	return !r.Amount.IsZero()
}

// HasMerchant reports whether the record carries a merchant name
func (r *TransactionRecord) HasMerchant() bool {
	return strings.TrimSpace(r.Merchant) != ""
}

// HasDate reports whether the record carries a transaction date
func (r *TransactionRecord) HasDate() bool {
	return !r.Date.IsZero()
}

// Validate performs basic validation on the TransactionRecord
func (r *TransactionRecord) Validate() error {
	if r.Confidence < 0.0 || r.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0: %f", r.Confidence)
	}

	if r.Amount.IsNegative() {
		return fmt.Errorf("amount cannot be negative: %s", r.Amount.String())
	}

	if r.Type != "" && !r.Type.IsValid() {
		return fmt.Errorf("invalid transaction type: %s", r.Type)
	}

	return nil
}

// String returns a string representation of the TransactionRecord
func (r *TransactionRecord) String() string {
	date := "unknown"
	if r.HasDate() {
		date = r.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("TransactionRecord{Amount: %s, Merchant: %s, Date: %s, Confidence: %.2f}",
		r.Amount.String(), r.Merchant, date, r.Confidence)
}

// MarshalJSON implements custom JSON marshaling for TransactionRecord
func (r *TransactionRecord) MarshalJSON() ([]byte, error) {
	type Alias TransactionRecord
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date,omitempty"`
		*Alias
	}{
		Amount: r.Amount.String(),
		Alias:  (*Alias)(r),
	}
	if r.HasDate() {
		aux.Date = r.Date.Format("2006-01-02")
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements custom JSON unmarshaling for TransactionRecord
func (r *TransactionRecord) UnmarshalJSON(data []byte) error {
	type Alias TransactionRecord
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Amount != "" {
		amount, err := decimal.NewFromString(aux.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount format: %w", err)
		}
		r.Amount = amount
	}

	if aux.Date != "" {
		date, err := ParseDateWithFormats(aux.Date)
		if err != nil {
			return fmt.Errorf("invalid date format: %w", err)
		}
		r.Date = date
	}

	return nil
}

// SameCalendarDay reports whether two records fall on the same calendar date
func (r *TransactionRecord) SameCalendarDay(other *TransactionRecord) bool {
	if !r.HasDate() || other == nil || !other.HasDate() {
		return false
	}
	return r.Date.Format("2006-01-02") == other.Date.Format("2006-01-02")
}

// BatchFile is a single input document: raw bytes plus the declared type
// and size used for validation before any processing starts.
type BatchFile struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Data     []byte `json:"-"`
}

// String returns a string representation of the BatchFile
func (f *BatchFile) String() string {
	return fmt.Sprintf("BatchFile{Name: %s, Type: %s, Size: %d}", f.Name, f.MIMEType, f.Size)
}

// Utility functions shared by the extractor and parsers

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove common currency symbols and thousand separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseTransactionType parses and validates a transaction type from string
func ParseTransactionType(s string) (TransactionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "income", "credit", "in":
		return TransactionTypeIncome, nil
	case "expense", "debit", "out":
		return TransactionTypeExpense, nil
	default:
		return "", fmt.Errorf("invalid transaction type '%s': must be income or expense", s)
	}
}

// ParseDateWithFormats attempts to parse a date from string using multiple
// formats commonly produced by recognition engines
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"01/02/2006",
		"02-01-2006",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// DayKey returns the canonical map key for a calendar date
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SumAmounts totals the amounts of the given records, treating missing
// amounts as zero
func SumAmounts(records []*TransactionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// AverageConfidence returns the mean confidence across records, zero when
// the list is empty
func AverageConfidence(records []*TransactionRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	sum := 0.0
	for _, r := range records {
		sum += r.Confidence
	}
	return sum / float64(len(records))
}
