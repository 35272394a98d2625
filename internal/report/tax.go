package report

import (
	"time"

	"github.com/shopspring/decimal"

	"receipt-batch-service/internal/models"
)

// TaxSummary estimates the tax embedded in the batch. A flat rate is
// applied to spending in taxable categories and split equally between the
// central and state components.
type TaxSummary struct {
	TotalTaxable     decimal.Decimal `json:"total_taxable"`
	EstimatedTax     decimal.Decimal `json:"estimated_tax"`
	CGST             decimal.Decimal `json:"cgst"`
	SGST             decimal.Decimal `json:"sgst"`
	DeductibleAmount decimal.Decimal `json:"deductible_amount"`
	Documents        []*TaxDocument  `json:"documents"`
}

// TaxDocument is the per-record line item backing the tax estimate
type TaxDocument struct {
	Merchant  string          `json:"merchant"`
	Category  string          `json:"category"`
	Date      time.Time       `json:"date,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

func (g *Generator) taxSummary(records []*models.TransactionRecord) *TaxSummary {
	summary := &TaxSummary{
		Documents: []*TaxDocument{},
	}

	rate := decimal.NewFromFloat(g.config.TaxRate)
	total := decimal.Zero

	for _, r := range records {
		total = total.Add(r.Amount)

		if !g.config.IsTaxableCategory(categoryName(r)) {
			continue
		}

		taxAmount := r.Amount.Mul(rate)
		summary.TotalTaxable = summary.TotalTaxable.Add(r.Amount)
		summary.EstimatedTax = summary.EstimatedTax.Add(taxAmount)

		summary.Documents = append(summary.Documents, &TaxDocument{
			Merchant:  merchantName(r),
			Category:  categoryName(r),
			Date:      r.Date,
			Amount:    r.Amount,
			TaxAmount: taxAmount,
		})
	}

	half := decimal.NewFromInt(2)
	summary.CGST = summary.EstimatedTax.Div(half)
	summary.SGST = summary.EstimatedTax.Div(half)
	summary.DeductibleAmount = total.Sub(summary.EstimatedTax)

	return summary
}
