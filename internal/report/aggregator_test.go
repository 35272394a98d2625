package report

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"receipt-batch-service/internal/models"
	"receipt-batch-service/pkg/errors"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	generator, err := NewGenerator(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}
	return generator
}

func expense(amount float64, date, merchant, category string) *models.TransactionRecord {
	var d time.Time
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		d = parsed
	}
	return &models.TransactionRecord{
		Amount:     decimal.NewFromFloat(amount),
		Date:       d,
		Merchant:   merchant,
		Category:   category,
		Confidence: 0.9,
		Type:       models.TransactionTypeExpense,
	}
}

func TestGenerateEmptyInputFails(t *testing.T) {
	generator := newTestGenerator(t)

	_, err := generator.Generate(nil, nil)
	if err == nil {
		t.Fatal("Expected error for empty input")
	}

	batchErr, ok := errors.AsBatchError(err)
	if !ok {
		t.Fatalf("Expected BatchError, got %T", err)
	}
	if batchErr.Code != errors.CodeNoRecords {
		t.Errorf("Expected code %s, got %s", errors.CodeNoRecords, batchErr.Code)
	}
}

func TestCategoryPercentagesSumToHundred(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{
		expense(100, "2024-01-01", "A", "Food & Dining"),
		expense(200, "2024-01-02", "B", "Travel"),
		expense(300, "2024-01-03", "C", "Shopping"),
		expense(50, "2024-01-04", "D", ""),
	}

	result, err := generator.Generate(records, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	sum := 0.0
	for _, c := range result.Categories {
		sum += c.Percentage
	}
	if math.Abs(sum-100) > 0.001 {
		t.Errorf("Expected percentages to sum to 100, got %f", sum)
	}

	// Uncategorized records get the fallback label
	found := false
	for _, c := range result.Categories {
		if c.Category == "Uncategorized" {
			found = true
		}
	}
	if !found {
		t.Error("Expected an Uncategorized breakdown for the unclassified record")
	}
}

func TestCategoriesSortedByTotal(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{
		expense(50, "2024-01-01", "A", "Food & Dining"),
		expense(500, "2024-01-02", "B", "Travel"),
	}

	result, err := generator.Generate(records, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Categories[0].Category != "Travel" {
		t.Errorf("Expected Travel first, got %s", result.Categories[0].Category)
	}
}

func TestTaxEstimate(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{
		expense(1000, "2024-01-01", "Store", "Shopping"),
	}

	result, err := generator.Generate(records, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tax := result.Tax
	if !tax.EstimatedTax.Equal(decimal.NewFromInt(180)) {
		t.Errorf("Expected estimated tax 180, got %s", tax.EstimatedTax)
	}
	if !tax.CGST.Equal(decimal.NewFromInt(90)) || !tax.SGST.Equal(decimal.NewFromInt(90)) {
		t.Errorf("Expected 90/90 split, got %s/%s", tax.CGST, tax.SGST)
	}
	if !tax.DeductibleAmount.Equal(decimal.NewFromInt(820)) {
		t.Errorf("Expected deductible 820, got %s", tax.DeductibleAmount)
	}
	if len(tax.Documents) != 1 {
		t.Errorf("Expected 1 tax document, got %d", len(tax.Documents))
	}
}

func TestTaxSkipsNonTaxableCategories(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{
		expense(1000, "2024-01-01", "Landlord", "Rent"),
	}

	result, err := generator.Generate(records, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !result.Tax.EstimatedTax.IsZero() {
		t.Errorf("Expected zero tax for non-taxable category, got %s", result.Tax.EstimatedTax)
	}
	if len(result.Tax.Documents) != 0 {
		t.Errorf("Expected no tax documents, got %d", len(result.Tax.Documents))
	}
}

func TestMerchantLoyaltyBuckets(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{}
	for i := 0; i < 10; i++ {
		records = append(records, expense(10, "2024-01-05", "Daily Cafe", "Food & Dining"))
	}
	for i := 0; i < 5; i++ {
		records = append(records, expense(20, "2024-01-10", "Weekly Shop", "Shopping"))
	}
	records = append(records, expense(30, "2024-01-15", "One Off", "Travel"))

	summaries := generator.merchantSummaries(records)

	loyaltyByMerchant := map[string]Loyalty{}
	for _, s := range summaries {
		loyaltyByMerchant[s.Merchant] = s.Loyalty
	}

	if loyaltyByMerchant["Daily Cafe"] != LoyaltyHigh {
		t.Errorf("Expected high loyalty for 10 visits, got %s", loyaltyByMerchant["Daily Cafe"])
	}
	if loyaltyByMerchant["Weekly Shop"] != LoyaltyMedium {
		t.Errorf("Expected medium loyalty for 5 visits, got %s", loyaltyByMerchant["Weekly Shop"])
	}
	if loyaltyByMerchant["One Off"] != LoyaltyLow {
		t.Errorf("Expected low loyalty for 1 visit, got %s", loyaltyByMerchant["One Off"])
	}
}

func TestTrendAgainstPreviousPeriod(t *testing.T) {
	generator := newTestGenerator(t)

	current := []*models.TransactionRecord{
		expense(150, "2024-02-01", "A", "Food & Dining"),
		expense(50, "2024-02-02", "B", "Travel"),
		expense(100, "2024-02-03", "C", "Shopping"),
	}
	previous := []*models.TransactionRecord{
		expense(100, "2024-01-01", "A", "Food & Dining"),
		expense(100, "2024-01-02", "B", "Travel"),
		expense(100, "2024-01-03", "C", "Shopping"),
	}

	result, err := generator.Generate(current, previous)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	trends := map[string]Trend{}
	for _, c := range result.Categories {
		trends[c.Category] = c.Trend
	}

	if trends["Food & Dining"] != TrendIncreasing {
		t.Errorf("Expected increasing trend, got %s", trends["Food & Dining"])
	}
	if trends["Travel"] != TrendDecreasing {
		t.Errorf("Expected decreasing trend, got %s", trends["Travel"])
	}
	if trends["Shopping"] != TrendStable {
		t.Errorf("Expected stable trend, got %s", trends["Shopping"])
	}
}

func TestDailySummaries(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{
		expense(100, "2024-01-15", "Big Store", "Shopping"),
		expense(20, "2024-01-15", "Small Cafe", "Food & Dining"),
		expense(50, "2024-01-16", "Other", "Travel"),
	}

	daily := generator.dailySummaries(records)

	if len(daily) != 2 {
		t.Fatalf("Expected 2 daily summaries, got %d", len(daily))
	}

	first := daily[0]
	if first.Date != "2024-01-15" {
		t.Errorf("Expected summaries sorted by date, got %s first", first.Date)
	}
	if first.TopCategory != "Shopping" {
		t.Errorf("Expected Shopping as top category, got %s", first.TopCategory)
	}
	if first.TopMerchant != "Big Store" {
		t.Errorf("Expected Big Store as top merchant, got %s", first.TopMerchant)
	}
	if first.DayOfWeek != "Monday" {
		t.Errorf("Expected Monday for 2024-01-15, got %s", first.DayOfWeek)
	}
}

func TestWeeklySummaries(t *testing.T) {
	generator := newTestGenerator(t)

	// 2024-01-07 and 2024-01-14 are Sundays
	records := []*models.TransactionRecord{
		expense(70, "2024-01-08", "A", "Shopping"),
		expense(140, "2024-01-15", "B", "Shopping"),
	}

	weekly := generator.weeklySummaries(records)

	if len(weekly) != 2 {
		t.Fatalf("Expected 2 weekly summaries, got %d", len(weekly))
	}

	if weekly[0].WeekStart != "2024-01-07" {
		t.Errorf("Expected Sunday-aligned week start, got %s", weekly[0].WeekStart)
	}
	if !weekly[0].DailyAverage.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected daily average 10, got %s", weekly[0].DailyAverage)
	}
	if math.Abs(weekly[1].GrowthPct-100) > 0.001 {
		t.Errorf("Expected 100%% growth, got %f", weekly[1].GrowthPct)
	}
}

func TestMonthlySummaries(t *testing.T) {
	generator := newTestGenerator(t)

	// January has 31 days
	records := []*models.TransactionRecord{
		expense(310, "2024-01-10", "A", "Shopping"),
	}

	monthly := generator.monthlySummaries(records)

	if len(monthly) != 1 {
		t.Fatalf("Expected 1 monthly summary, got %d", len(monthly))
	}
	if monthly[0].Month != "2024-01" {
		t.Errorf("Expected month 2024-01, got %s", monthly[0].Month)
	}
	if !monthly[0].DailyAverage.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected daily average 10, got %s", monthly[0].DailyAverage)
	}
}

func TestMetadataQualityGrades(t *testing.T) {
	generator := newTestGenerator(t)

	tests := []struct {
		confidence float64
		expected   Quality
	}{
		{0.95, QualityExcellent},
		{0.85, QualityGood},
		{0.75, QualityFair},
		{0.5, QualityPoor},
	}

	for _, tt := range tests {
		records := []*models.TransactionRecord{
			{Amount: decimal.NewFromInt(10), Confidence: tt.confidence},
		}
		meta := generator.metadata(records)
		if meta.Quality != tt.expected {
			t.Errorf("Confidence %f: expected quality %s, got %s",
				tt.confidence, tt.expected, meta.Quality)
		}
	}
}

func TestMetadataManualReviewCount(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{
		{Amount: decimal.NewFromInt(10), Confidence: 0.95},
		{Amount: decimal.NewFromInt(10), Confidence: 0.6},
		{Amount: decimal.NewFromInt(10), Confidence: 0.5},
	}

	meta := generator.metadata(records)
	if meta.ManualReviewCount != 2 {
		t.Errorf("Expected 2 records needing review, got %d", meta.ManualReviewCount)
	}
}

func TestComplianceIssues(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{
		expense(600, "2024-01-01", "Mystery", ""),
		expense(2500, "2024-01-02", "Big Ticket", "Shopping"),
		expense(100, "2024-01-03", "Normal", "Food & Dining"),
	}

	compliance := generator.complianceReport(records)

	if len(compliance.Issues) != 2 {
		t.Fatalf("Expected 2 issues, got %d", len(compliance.Issues))
	}

	if compliance.Issues[0].Type != IssueUncategorized {
		t.Errorf("Expected uncategorized issue first, got %s", compliance.Issues[0].Type)
	}
	if compliance.Issues[1].Type != IssueReceiptRecommended {
		t.Errorf("Expected receipt issue, got %s", compliance.Issues[1].Type)
	}
	if !compliance.AuditReady {
		t.Error("Expected audit ready with fewer than 5 issues")
	}
}

func TestComplianceNotAuditReady(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{}
	for i := 0; i < 5; i++ {
		records = append(records, expense(3000, "2024-01-01", "Spender", "Shopping"))
	}

	compliance := generator.complianceReport(records)
	if compliance.AuditReady {
		t.Error("Expected not audit ready with 5 issues")
	}
}

func TestInsightsSortedByImpact(t *testing.T) {
	config := DefaultConfig()
	config.CategoryBudgets["Shopping"] = 100

	generator, err := NewGenerator(config)
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}

	records := []*models.TransactionRecord{}
	for i := 0; i < 10; i++ {
		records = append(records, expense(50, "2024-01-05", "Daily Cafe", "Food & Dining"))
	}
	records = append(records, expense(500, "2024-01-10", "Mall", "Shopping"))

	result, err := generator.Generate(records, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Insights) < 3 {
		t.Fatalf("Expected at least 3 insights, got %d", len(result.Insights))
	}

	for i := 1; i < len(result.Insights); i++ {
		if impactWeight[result.Insights[i].Impact] > impactWeight[result.Insights[i-1].Impact] {
			t.Error("Expected insights sorted by descending impact")
		}
	}

	hasBudget := false
	for _, insight := range result.Insights {
		if insight.Type == InsightBudgetExceeded {
			hasBudget = true
			if insight.Confidence != 1.0 {
				t.Errorf("Expected budget insight confidence 1.0, got %f", insight.Confidence)
			}
		}
	}
	if !hasBudget {
		t.Error("Expected a budget exceeded insight")
	}
}

func TestDetectAnomalies(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{}
	for i := 0; i < 9; i++ {
		records = append(records, expense(100, "2024-01-01", "A", "Shopping"))
	}
	outlier := expense(1500, "2024-01-05", "E", "Shopping")
	records = append(records, outlier)

	// Mean is 240, so the outlier sits at 6.25x
	anomalies := generator.DetectAnomalies(records)

	if len(anomalies) != 1 {
		t.Fatalf("Expected 1 anomaly, got %d", len(anomalies))
	}

	anomaly := anomalies[0]
	if anomaly.Severity != SeverityHigh {
		t.Errorf("Expected high severity, got %s", anomaly.Severity)
	}
	if anomaly.Record.Merchant != "E" {
		t.Errorf("Expected the outlier record to be flagged, got %s", anomaly.Record.Merchant)
	}
}

func TestDetectAnomaliesNoOutliers(t *testing.T) {
	generator := newTestGenerator(t)

	records := []*models.TransactionRecord{
		expense(100, "2024-01-01", "A", "Shopping"),
		expense(110, "2024-01-02", "B", "Shopping"),
	}

	if anomalies := generator.DetectAnomalies(records); len(anomalies) != 0 {
		t.Errorf("Expected no anomalies, got %d", len(anomalies))
	}

	if anomalies := generator.DetectAnomalies(nil); anomalies != nil {
		t.Errorf("Expected nil for empty input, got %v", anomalies)
	}
}

func TestConfigValidation(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Expected default config to be valid: %v", err)
	}

	badRate := DefaultConfig()
	badRate.TaxRate = 1.5
	if err := badRate.Validate(); err == nil {
		t.Error("Expected error for tax rate above 1")
	}

	badMultipliers := DefaultConfig()
	badMultipliers.HighSeverityMultiplier = 1.0
	if err := badMultipliers.Validate(); err == nil {
		t.Error("Expected error when high severity multiplier is below anomaly multiplier")
	}
}
