// Package report turns a batch of extracted transactions into an expense
// report: category and merchant breakdowns, time-bucketed summaries, tax
// estimates, insights, compliance checks, and quality metadata.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"receipt-batch-service/internal/models"
	"receipt-batch-service/pkg/errors"
	"receipt-batch-service/pkg/logger"
)

// Fallback labels for records the recognition engine could not classify
const (
	uncategorizedLabel  = "Uncategorized"
	unknownMerchantName = "Unknown"
)

// ExpenseReport is the full aggregation output for one batch
type ExpenseReport struct {
	Categories []*CategoryBreakdown `json:"categories"`
	Merchants  []*MerchantSummary   `json:"merchants"`
	Daily      []*DailySummary      `json:"daily"`
	Weekly     []*WeeklySummary     `json:"weekly"`
	Monthly    []*MonthlySummary    `json:"monthly"`
	Tax        *TaxSummary          `json:"tax"`
	Insights   []*Insight           `json:"insights"`
	Compliance *ComplianceReport    `json:"compliance"`
	Metadata   *ReportMetadata      `json:"metadata"`
}

// CategoryBreakdown summarizes spending in one category
type CategoryBreakdown struct {
	Category      string          `json:"category"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Count         int             `json:"count"`
	Percentage    float64         `json:"percentage"`
	AverageAmount decimal.Decimal `json:"average_amount"`
	Trend         Trend           `json:"trend"`
}

// Trend describes the direction of category spending against the
// previous period
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// MerchantSummary summarizes spending at one merchant
type MerchantSummary struct {
	Merchant    string          `json:"merchant"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int             `json:"count"`
	Loyalty     Loyalty         `json:"loyalty"`
	FirstDate   time.Time       `json:"first_date,omitempty"`
	LastDate    time.Time       `json:"last_date,omitempty"`
}

// Loyalty buckets merchants by visit frequency
type Loyalty string

const (
	LoyaltyHigh   Loyalty = "high"
	LoyaltyMedium Loyalty = "medium"
	LoyaltyLow    Loyalty = "low"
)

// DailySummary summarizes one calendar day
type DailySummary struct {
	Date        string          `json:"date"`
	DayOfWeek   string          `json:"day_of_week"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int             `json:"count"`
	TopCategory string          `json:"top_category,omitempty"`
	TopMerchant string          `json:"top_merchant,omitempty"`
}

// WeeklySummary summarizes one Sunday-aligned week
type WeeklySummary struct {
	WeekStart    string          `json:"week_start"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Count        int             `json:"count"`
	DailyAverage decimal.Decimal `json:"daily_average"`
	GrowthPct    float64         `json:"growth_pct"`
}

// MonthlySummary summarizes one calendar month
type MonthlySummary struct {
	Month        string          `json:"month"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Count        int             `json:"count"`
	DailyAverage decimal.Decimal `json:"daily_average"`
}

// ReportMetadata carries quality measures for the report as a whole
type ReportMetadata struct {
	GeneratedAt       time.Time `json:"generated_at"`
	RecordCount       int       `json:"record_count"`
	Accuracy          float64   `json:"accuracy"`
	ManualReviewCount int       `json:"manual_review_count"`
	Quality           Quality   `json:"quality"`
}

// Quality grades overall extraction accuracy
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// Generator builds expense reports from transaction records
type Generator struct {
	config *Config
	logger logger.Logger
}

// NewGenerator creates a report generator. A nil config selects defaults.
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", config, err)
	}

	return &Generator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("report"),
	}, nil
}

// Generate builds the full expense report. previousPeriod may be nil; it
// only feeds trend calculation. Generation fails on an empty batch since
// every downstream consumer expects at least one record.
func (g *Generator) Generate(records []*models.TransactionRecord, previousPeriod []*models.TransactionRecord) (*ExpenseReport, error) {
	if len(records) == 0 {
		return nil, errors.AggregationError(errors.CodeNoRecords, "report generation", nil)
	}

	g.logger.WithFields(logger.Fields{
		"records":  len(records),
		"previous": len(previousPeriod),
	}).Debug("Generating expense report")

	categories := g.categoryBreakdown(records, previousPeriod)

	report := &ExpenseReport{
		Categories: categories,
		Merchants:  g.merchantSummaries(records),
		Daily:      g.dailySummaries(records),
		Weekly:     g.weeklySummaries(records),
		Monthly:    g.monthlySummaries(records),
		Tax:        g.taxSummary(records),
		Compliance: g.complianceReport(records),
		Metadata:   g.metadata(records),
	}
	report.Insights = g.insights(records, categories)

	return report, nil
}

// categoryName resolves the effective category of a record
func categoryName(r *models.TransactionRecord) string {
	if r.Category == "" {
		return uncategorizedLabel
	}
	return r.Category
}

// merchantName resolves the effective merchant of a record
func merchantName(r *models.TransactionRecord) string {
	if !r.HasMerchant() {
		return unknownMerchantName
	}
	return r.Merchant
}

func (g *Generator) categoryBreakdown(records, previousPeriod []*models.TransactionRecord) []*CategoryBreakdown {
	totals := map[string]decimal.Decimal{}
	counts := map[string]int{}
	grandTotal := decimal.Zero

	for _, r := range records {
		name := categoryName(r)
		totals[name] = totals[name].Add(r.Amount)
		counts[name]++
		grandTotal = grandTotal.Add(r.Amount)
	}

	previousTotals := map[string]decimal.Decimal{}
	for _, r := range previousPeriod {
		name := categoryName(r)
		previousTotals[name] = previousTotals[name].Add(r.Amount)
	}

	breakdowns := make([]*CategoryBreakdown, 0, len(totals))
	for name, total := range totals {
		breakdown := &CategoryBreakdown{
			Category:    name,
			TotalAmount: total,
			Count:       counts[name],
			Trend:       g.trend(total, previousTotals[name]),
		}

		if grandTotal.IsPositive() {
			pct, _ := total.Div(grandTotal).Mul(decimal.NewFromInt(100)).Float64()
			breakdown.Percentage = pct
		}

		breakdown.AverageAmount = total.Div(decimal.NewFromInt(int64(counts[name])))
		breakdowns = append(breakdowns, breakdown)
	}

	sort.Slice(breakdowns, func(i, j int) bool {
		if breakdowns[i].TotalAmount.Equal(breakdowns[j].TotalAmount) {
			return breakdowns[i].Category < breakdowns[j].Category
		}
		return breakdowns[i].TotalAmount.GreaterThan(breakdowns[j].TotalAmount)
	})

	return breakdowns
}

// trend compares current against previous spending. Movement beyond 10%
// in either direction counts as a trend; a category with no history is
// stable.
func (g *Generator) trend(current, previous decimal.Decimal) Trend {
	if !previous.IsPositive() {
		return TrendStable
	}

	ratio, _ := current.Div(previous).Float64()
	switch {
	case ratio > 1.1:
		return TrendIncreasing
	case ratio < 0.9:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func (g *Generator) merchantSummaries(records []*models.TransactionRecord) []*MerchantSummary {
	summaries := map[string]*MerchantSummary{}

	for _, r := range records {
		name := merchantName(r)
		summary, ok := summaries[name]
		if !ok {
			summary = &MerchantSummary{Merchant: name}
			summaries[name] = summary
		}

		summary.TotalAmount = summary.TotalAmount.Add(r.Amount)
		summary.Count++

		if r.HasDate() {
			if summary.FirstDate.IsZero() || r.Date.Before(summary.FirstDate) {
				summary.FirstDate = r.Date
			}
			if summary.LastDate.IsZero() || r.Date.After(summary.LastDate) {
				summary.LastDate = r.Date
			}
		}
	}

	result := make([]*MerchantSummary, 0, len(summaries))
	for _, summary := range summaries {
		switch {
		case summary.Count >= 10:
			summary.Loyalty = LoyaltyHigh
		case summary.Count >= 5:
			summary.Loyalty = LoyaltyMedium
		default:
			summary.Loyalty = LoyaltyLow
		}
		result = append(result, summary)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalAmount.Equal(result[j].TotalAmount) {
			return result[i].Merchant < result[j].Merchant
		}
		return result[i].TotalAmount.GreaterThan(result[j].TotalAmount)
	})

	return result
}

func (g *Generator) dailySummaries(records []*models.TransactionRecord) []*DailySummary {
	type dayBucket struct {
		summary        *DailySummary
		categoryTotals map[string]decimal.Decimal
		merchantTotals map[string]decimal.Decimal
	}

	buckets := map[string]*dayBucket{}
	for _, r := range records {
		if !r.HasDate() {
			continue
		}

		key := models.DayKey(r.Date)
		bucket, ok := buckets[key]
		if !ok {
			bucket = &dayBucket{
				summary: &DailySummary{
					Date:      key,
					DayOfWeek: r.Date.Weekday().String(),
				},
				categoryTotals: map[string]decimal.Decimal{},
				merchantTotals: map[string]decimal.Decimal{},
			}
			buckets[key] = bucket
		}

		bucket.summary.TotalAmount = bucket.summary.TotalAmount.Add(r.Amount)
		bucket.summary.Count++
		bucket.categoryTotals[categoryName(r)] = bucket.categoryTotals[categoryName(r)].Add(r.Amount)
		bucket.merchantTotals[merchantName(r)] = bucket.merchantTotals[merchantName(r)].Add(r.Amount)
	}

	result := make([]*DailySummary, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.summary.TopCategory = topByAmount(bucket.categoryTotals)
		bucket.summary.TopMerchant = topByAmount(bucket.merchantTotals)
		result = append(result, bucket.summary)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result
}

// topByAmount returns the key carrying the highest total, with ties
// broken alphabetically for stable output
func topByAmount(totals map[string]decimal.Decimal) string {
	top := ""
	topAmount := decimal.Zero

	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if top == "" || totals[key].GreaterThan(topAmount) {
			top = key
			topAmount = totals[key]
		}
	}
	return top
}

// weekStart returns the Sunday that begins the week containing t
func weekStart(t time.Time) time.Time {
	daysBack := int(t.Weekday())
	return time.Date(t.Year(), t.Month(), t.Day()-daysBack, 0, 0, 0, 0, t.Location())
}

func (g *Generator) weeklySummaries(records []*models.TransactionRecord) []*WeeklySummary {
	buckets := map[string]*WeeklySummary{}

	for _, r := range records {
		if !r.HasDate() {
			continue
		}

		key := models.DayKey(weekStart(r.Date))
		bucket, ok := buckets[key]
		if !ok {
			bucket = &WeeklySummary{WeekStart: key}
			buckets[key] = bucket
		}

		bucket.TotalAmount = bucket.TotalAmount.Add(r.Amount)
		bucket.Count++
	}

	result := make([]*WeeklySummary, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.DailyAverage = bucket.TotalAmount.Div(decimal.NewFromInt(7))
		result = append(result, bucket)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].WeekStart < result[j].WeekStart
	})

	// Growth compares each week to the immediately preceding summary
	for i := 1; i < len(result); i++ {
		previous := result[i-1].TotalAmount
		if previous.IsPositive() {
			growth, _ := result[i].TotalAmount.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
			result[i].GrowthPct = growth
		}
	}

	return result
}

func (g *Generator) monthlySummaries(records []*models.TransactionRecord) []*MonthlySummary {
	type monthBucket struct {
		summary *MonthlySummary
		days    int
	}

	buckets := map[string]*monthBucket{}
	for _, r := range records {
		if !r.HasDate() {
			continue
		}

		key := r.Date.Format("2006-01")
		bucket, ok := buckets[key]
		if !ok {
			bucket = &monthBucket{
				summary: &MonthlySummary{Month: key},
				days:    daysInMonth(r.Date),
			}
			buckets[key] = bucket
		}

		bucket.summary.TotalAmount = bucket.summary.TotalAmount.Add(r.Amount)
		bucket.summary.Count++
	}

	result := make([]*MonthlySummary, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.summary.DailyAverage = bucket.summary.TotalAmount.Div(decimal.NewFromInt(int64(bucket.days)))
		result = append(result, bucket.summary)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Month < result[j].Month
	})

	return result
}

// daysInMonth returns the number of days in the month containing t
func daysInMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	return firstOfNext.AddDate(0, 0, -1).Day()
}

func (g *Generator) metadata(records []*models.TransactionRecord) *ReportMetadata {
	accuracy := models.AverageConfidence(records)

	manualReview := 0
	for _, r := range records {
		if r.Confidence < g.config.ManualReviewThreshold {
			manualReview++
		}
	}

	var quality Quality
	switch {
	case accuracy >= 0.9:
		quality = QualityExcellent
	case accuracy >= 0.8:
		quality = QualityGood
	case accuracy >= 0.7:
		quality = QualityFair
	default:
		quality = QualityPoor
	}

	return &ReportMetadata{
		GeneratedAt:       time.Now(),
		RecordCount:       len(records),
		Accuracy:          accuracy,
		ManualReviewCount: manualReview,
		Quality:           quality,
	}
}
