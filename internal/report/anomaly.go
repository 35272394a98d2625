package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"receipt-batch-service/internal/models"
)

// Anomaly flags a transaction whose amount is far above the batch norm
type Anomaly struct {
	Record      *models.TransactionRecord `json:"record"`
	Severity    Severity                  `json:"severity"`
	Multiplier  float64                   `json:"multiplier"`
	Description string                    `json:"description"`
}

// Severity grades anomalies
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DetectAnomalies flags records whose amount exceeds the configured
// multiple of the mean. The mean is taken over positive amounts only so
// unreadable records do not drag it down.
func (g *Generator) DetectAnomalies(records []*models.TransactionRecord) []*Anomaly {
	sum := decimal.Zero
	count := 0
	for _, r := range records {
		if r.Amount.IsPositive() {
			sum = sum.Add(r.Amount)
			count++
		}
	}

	if count == 0 {
		return nil
	}

	mean, _ := sum.Div(decimal.NewFromInt(int64(count))).Float64()
	if mean == 0 {
		return nil
	}

	anomalies := []*Anomaly{}
	for _, r := range records {
		amount, _ := r.Amount.Float64()
		multiplier := amount / mean
		if multiplier <= g.config.AnomalyMultiplier {
			continue
		}

		severity := SeverityMedium
		if multiplier >= g.config.HighSeverityMultiplier {
			severity = SeverityHigh
		}

		anomalies = append(anomalies, &Anomaly{
			Record:     r,
			Severity:   severity,
			Multiplier: multiplier,
			Description: fmt.Sprintf("Amount %s is %.1fx higher than average",
				r.Amount.StringFixed(2), multiplier),
		})
	}

	return anomalies
}
