package report

import (
	"fmt"
)

// Config holds the tunable parameters for expense report generation
type Config struct {
	// TaxRate is the flat rate applied to taxable spending (0.18 = 18%)
	TaxRate float64 `json:"tax_rate"`

	// TaxableCategories lists the categories tax estimation applies to
	TaxableCategories []string `json:"taxable_categories"`

	// CategoryBudgets maps category names to spending limits. Categories
	// without an entry have no budget and never raise a budget insight.
	CategoryBudgets map[string]float64 `json:"category_budgets,omitempty"`

	// UncategorizedFlagAmount is the amount above which an uncategorized
	// record becomes a compliance issue
	UncategorizedFlagAmount float64 `json:"uncategorized_flag_amount"`

	// ReceiptRecommendedAmount is the amount above which a record should
	// carry supporting documentation
	ReceiptRecommendedAmount float64 `json:"receipt_recommended_amount"`

	// MaxIssuesForAuditReady is the issue count at or above which the
	// report is no longer considered audit ready
	MaxIssuesForAuditReady int `json:"max_issues_for_audit_ready"`

	// ManualReviewThreshold is the confidence below which a record is
	// counted toward manual review
	ManualReviewThreshold float64 `json:"manual_review_threshold"`

	// AnomalyMultiplier flags amounts above this multiple of the mean
	AnomalyMultiplier float64 `json:"anomaly_multiplier"`

	// HighSeverityMultiplier escalates anomalies at or above this multiple
	HighSeverityMultiplier float64 `json:"high_severity_multiplier"`
}

// DefaultConfig returns the standard report configuration
func DefaultConfig() *Config {
	return &Config{
		TaxRate: 0.18,
		TaxableCategories: []string{
			"Food & Dining",
			"Shopping",
			"Entertainment",
			"Travel",
			"Business",
			"Services",
			"Technology",
			"Education",
			"Healthcare",
		},
		CategoryBudgets:          map[string]float64{},
		UncategorizedFlagAmount:  500,
		ReceiptRecommendedAmount: 2000,
		MaxIssuesForAuditReady:   5,
		ManualReviewThreshold:    0.7,
		AnomalyMultiplier:        3.0,
		HighSeverityMultiplier:   5.0,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.TaxRate < 0 || c.TaxRate > 1 {
		return fmt.Errorf("tax rate must be between 0 and 1: %f", c.TaxRate)
	}

	if c.UncategorizedFlagAmount < 0 {
		return fmt.Errorf("uncategorized flag amount cannot be negative: %f", c.UncategorizedFlagAmount)
	}

	if c.ReceiptRecommendedAmount < 0 {
		return fmt.Errorf("receipt recommended amount cannot be negative: %f", c.ReceiptRecommendedAmount)
	}

	if c.MaxIssuesForAuditReady < 0 {
		return fmt.Errorf("max issues for audit ready cannot be negative: %d", c.MaxIssuesForAuditReady)
	}

	if c.ManualReviewThreshold < 0 || c.ManualReviewThreshold > 1 {
		return fmt.Errorf("manual review threshold must be between 0 and 1: %f", c.ManualReviewThreshold)
	}

	if c.AnomalyMultiplier <= 0 {
		return fmt.Errorf("anomaly multiplier must be positive: %f", c.AnomalyMultiplier)
	}

	if c.HighSeverityMultiplier < c.AnomalyMultiplier {
		return fmt.Errorf("high severity multiplier (%f) cannot be below anomaly multiplier (%f)",
			c.HighSeverityMultiplier, c.AnomalyMultiplier)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c

	clone.TaxableCategories = make([]string, len(c.TaxableCategories))
	copy(clone.TaxableCategories, c.TaxableCategories)

	clone.CategoryBudgets = make(map[string]float64, len(c.CategoryBudgets))
	for k, v := range c.CategoryBudgets {
		clone.CategoryBudgets[k] = v
	}

	return &clone
}

// IsTaxableCategory reports whether the given category is tax-relevant
func (c *Config) IsTaxableCategory(category string) bool {
	for _, taxable := range c.TaxableCategories {
		if taxable == category {
			return true
		}
	}
	return false
}
