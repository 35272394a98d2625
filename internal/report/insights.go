package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"receipt-batch-service/internal/models"
)

// Insight is an actionable observation derived from the batch
type Insight struct {
	Type             InsightType     `json:"type"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Impact           Impact          `json:"impact"`
	Confidence       float64         `json:"confidence"`
	EstimatedSavings decimal.Decimal `json:"estimated_savings,omitempty"`
}

// InsightType classifies insights by what they describe
type InsightType string

const (
	InsightTopCategory    InsightType = "top_category"
	InsightCostSaving     InsightType = "cost_saving"
	InsightSpendingTrend  InsightType = "spending_trend"
	InsightBudgetExceeded InsightType = "budget_exceeded"
)

// Impact grades how much an insight matters
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

var impactWeight = map[Impact]int{
	ImpactHigh:   3,
	ImpactMedium: 2,
	ImpactLow:    1,
}

// insights derives observations from the records and the already-computed
// category breakdowns, sorted by impact
func (g *Generator) insights(records []*models.TransactionRecord, categories []*CategoryBreakdown) []*Insight {
	result := []*Insight{}

	// Categories arrive sorted by total, so the first is the top spender
	if len(categories) > 0 {
		top := categories[0]
		result = append(result, &Insight{
			Type:  InsightTopCategory,
			Title: fmt.Sprintf("Highest spending: %s", top.Category),
			Description: fmt.Sprintf("%s accounts for %.1f%% of spending (%s across %d transactions)",
				top.Category, top.Percentage, top.TotalAmount.StringFixed(2), top.Count),
			Impact:     ImpactHigh,
			Confidence: 0.95,
		})
	}

	for _, merchant := range g.merchantSummaries(records) {
		if merchant.Loyalty != LoyaltyHigh {
			continue
		}

		savings := merchant.TotalAmount.Mul(decimal.NewFromFloat(0.05))
		result = append(result, &Insight{
			Type:  InsightCostSaving,
			Title: fmt.Sprintf("Frequent merchant: %s", merchant.Merchant),
			Description: fmt.Sprintf("%d transactions at %s; a loyalty program or bulk arrangement could reduce costs",
				merchant.Count, merchant.Merchant),
			Impact:           ImpactMedium,
			Confidence:       0.8,
			EstimatedSavings: savings,
		})
	}

	for _, category := range categories {
		if category.Trend != TrendIncreasing {
			continue
		}

		result = append(result, &Insight{
			Type:  InsightSpendingTrend,
			Title: fmt.Sprintf("Rising spend in %s", category.Category),
			Description: fmt.Sprintf("%s spending is up more than 10%% against the previous period",
				category.Category),
			Impact:     ImpactMedium,
			Confidence: 0.85,
		})
	}

	for _, category := range categories {
		budget, ok := g.config.CategoryBudgets[category.Category]
		if !ok {
			continue
		}

		limit := decimal.NewFromFloat(budget)
		if category.TotalAmount.GreaterThan(limit) {
			over := category.TotalAmount.Sub(limit)
			result = append(result, &Insight{
				Type:  InsightBudgetExceeded,
				Title: fmt.Sprintf("Budget exceeded: %s", category.Category),
				Description: fmt.Sprintf("%s spending of %s exceeds the %s budget by %s",
					category.Category, category.TotalAmount.StringFixed(2),
					limit.StringFixed(2), over.StringFixed(2)),
				Impact:     ImpactHigh,
				Confidence: 1.0,
			})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return impactWeight[result[i].Impact] > impactWeight[result[j].Impact]
	})

	return result
}
