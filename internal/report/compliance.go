package report

import (
	"fmt"

	"receipt-batch-service/internal/models"
)

// ComplianceReport lists records needing attention before the report can
// back a filing or reimbursement claim
type ComplianceReport struct {
	Issues     []*ComplianceIssue `json:"issues"`
	AuditReady bool               `json:"audit_ready"`
}

// ComplianceIssue flags a single record
type ComplianceIssue struct {
	Type        IssueType `json:"type"`
	Description string    `json:"description"`
	Merchant    string    `json:"merchant"`
	Amount      string    `json:"amount"`
}

// IssueType classifies compliance issues
type IssueType string

const (
	IssueUncategorized      IssueType = "uncategorized_spending"
	IssueReceiptRecommended IssueType = "receipt_recommended"
)

func (g *Generator) complianceReport(records []*models.TransactionRecord) *ComplianceReport {
	report := &ComplianceReport{
		Issues: []*ComplianceIssue{},
	}

	for _, r := range records {
		amount, _ := r.Amount.Float64()

		if r.Category == "" && amount > g.config.UncategorizedFlagAmount {
			report.Issues = append(report.Issues, &ComplianceIssue{
				Type: IssueUncategorized,
				Description: fmt.Sprintf("Uncategorized transaction of %s should be classified",
					r.Amount.StringFixed(2)),
				Merchant: merchantName(r),
				Amount:   r.Amount.StringFixed(2),
			})
		}

		if amount > g.config.ReceiptRecommendedAmount {
			report.Issues = append(report.Issues, &ComplianceIssue{
				Type: IssueReceiptRecommended,
				Description: fmt.Sprintf("Transaction of %s should retain its original receipt",
					r.Amount.StringFixed(2)),
				Merchant: merchantName(r),
				Amount:   r.Amount.StringFixed(2),
			})
		}
	}

	report.AuditReady = len(report.Issues) < g.config.MaxIssuesForAuditReady
	return report
}
