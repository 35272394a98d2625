// Package extract turns scanned documents into transaction records. The
// Extractor interface hides the recognition backend so the coordinator
// and tests can run against anything that honors the contract.
package extract

import (
	"context"

	"receipt-batch-service/internal/models"
)

// Extractor extracts a single transaction record from one document.
// Implementations must be safe for concurrent use; the coordinator calls
// Extract from multiple workers at once.
type Extractor interface {
	Extract(ctx context.Context, file *models.BatchFile) (*models.TransactionRecord, error)
}

// ExtractorFunc adapts a function to the Extractor interface
type ExtractorFunc func(ctx context.Context, file *models.BatchFile) (*models.TransactionRecord, error)

// Extract implements Extractor
func (f ExtractorFunc) Extract(ctx context.Context, file *models.BatchFile) (*models.TransactionRecord, error) {
	return f(ctx, file)
}
