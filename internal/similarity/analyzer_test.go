package similarity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"receipt-batch-service/internal/models"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	analyzer, err := NewAnalyzer(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	return analyzer
}

func record(amount float64, date string, merchant string) *models.TransactionRecord {
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
		Confidence: 0.9,
	}
}

func TestAnalyzeExactMatch(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	first := record(50.00, "2024-01-01", "Cafe X")
	second := record(50.00, "2024-01-01", "Cafe X")

	analysis := analyzer.Analyze(first, second)

	if analysis.MatchType != MatchExact {
		t.Errorf("Expected exact match, got %s", analysis.MatchType)
	}

	if analysis.Confidence < 0.99 {
		t.Errorf("Expected confidence >= 0.99, got %f", analysis.Confidence)
	}

	if !analysis.IsDuplicate {
		t.Error("Expected exact match to be flagged as duplicate")
	}

	if len(analysis.Reasons) == 0 {
		t.Error("Expected at least one reason")
	}
}

func TestAnalyzeNearAmountSameDayMerchant(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	first := record(100.00, "2024-01-15", "Starbucks")
	second := record(100.50, "2024-01-15", "Starbucks")

	analysis := analyzer.Analyze(first, second)

	if analysis.Overall < 0.9 {
		t.Errorf("Expected overall >= 0.9 for near-identical pair, got %f", analysis.Overall)
	}

	if !analysis.IsDuplicate {
		t.Error("Expected near-identical pair to be flagged as duplicate")
	}
}

func TestAnalyzePotentialMatchReasons(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	// Amount lands at 0.9, date one day apart at 0.7, merchant exact;
	// overall 0.82 sits in the potential band
	first := record(100.00, "2024-01-15", "Starbucks")
	second := record(100.50, "2024-01-16", "Starbucks")

	analysis := analyzer.Analyze(first, second)

	if analysis.MatchType != MatchPotential {
		t.Fatalf("Expected potential match, got %s (overall %f)", analysis.MatchType, analysis.Overall)
	}

	expected := []string{"Similar amounts", "Similar merchant names", "Close dates"}
	for _, reason := range expected {
		found := false
		for _, r := range analysis.Reasons {
			if r == reason {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected reason %q, got %v", reason, analysis.Reasons)
		}
	}
}

func TestAnalyzeUnrelatedRecords(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	first := record(50.00, "2024-01-01", "Cafe X")
	second := record(12.00, "2024-02-15", "Shop Y")

	analysis := analyzer.Analyze(first, second)

	if analysis.IsDuplicate {
		t.Errorf("Expected unrelated records not to match, overall %f", analysis.Overall)
	}

	if analysis.MatchType == MatchExact || analysis.MatchType == MatchSimilar {
		t.Errorf("Unexpected match type %s for unrelated records", analysis.MatchType)
	}
}

func TestAmountSimilarityBands(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	tests := []struct {
		name   string
		a, b   float64
		min    float64
		max    float64
	}{
		{"exact", 100.00, 100.00, 1.0, 1.0},
		{"within tolerance", 100.00, 100.50, 0.8, 1.0},
		{"moderate difference", 100.00, 120.00, 0.5, 0.95},
		{"large difference", 100.00, 500.00, 0.0, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := record(tt.a, "2024-01-01", "M")
			second := record(tt.b, "2024-01-01", "M")
			score := analyzer.amountSimilarity(first, second)
			if score < tt.min || score > tt.max {
				t.Errorf("amountSimilarity(%f, %f) = %f, expected in [%f, %f]",
					tt.a, tt.b, score, tt.min, tt.max)
			}
		})
	}
}

func TestAmountSimilarityMissingAmount(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	withAmount := record(100.00, "2024-01-01", "M")
	withoutAmount := &models.TransactionRecord{Merchant: "M"}

	if score := analyzer.amountSimilarity(withAmount, withoutAmount); score != 0 {
		t.Errorf("Expected zero score for missing amount, got %f", score)
	}
}

func TestDateSimilarityBands(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"same day", "2024-01-15", "2024-01-15", 1.0, 1.0},
		{"one day apart", "2024-01-15", "2024-01-16", 0.69, 0.71},
		{"three days apart", "2024-01-15", "2024-01-18", 0.2, 0.31},
		{"two weeks apart", "2024-01-01", "2024-01-15", 0.1, 0.12},
		{"two months apart", "2024-01-01", "2024-03-01", 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := record(1, tt.a, "M")
			second := record(1, tt.b, "M")
			score := analyzer.dateSimilarity(first, second)
			if score < tt.min || score > tt.max {
				t.Errorf("dateSimilarity(%s, %s) = %f, expected in [%f, %f]",
					tt.a, tt.b, score, tt.min, tt.max)
			}
		})
	}
}

func TestMerchantSimilarity(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"case insensitive exact", "Cafe X", "cafe x", 1.0, 1.0},
		{"normalized equal", "Starbucks Coffee Ltd", "Starbucks Coffee", 0.95, 0.95},
		{"alias table hit", "McDonalds", "MCD", 0.9, 1.0},
		{"minor typo", "Starbucks", "Starbuckz", 0.8, 0.95},
		{"unrelated", "Cafe X", "Shop Y", 0.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := record(1, "2024-01-01", tt.a)
			second := record(1, "2024-01-01", tt.b)
			score := analyzer.merchantSimilarity(first, second)
			if score < tt.min || score > tt.max {
				t.Errorf("merchantSimilarity(%q, %q) = %f, expected in [%f, %f]",
					tt.a, tt.b, score, tt.min, tt.max)
			}
		})
	}
}

func TestContextSimilarityDefaultsNeutral(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	first := record(10, "2024-01-01", "M")
	second := record(10, "2024-01-01", "M")

	if score := analyzer.contextSimilarity(first, second); score != 0.5 {
		t.Errorf("Expected neutral 0.5 with no context fields, got %f", score)
	}
}

func TestContextSimilarityWithCategories(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	first := record(10, "2024-01-01", "M")
	first.Category = "Food & Dining"
	second := record(10, "2024-01-01", "M")
	second.Category = "Food & Dining"

	if score := analyzer.contextSimilarity(first, second); score != 1.0 {
		t.Errorf("Expected 1.0 for matching categories, got %f", score)
	}

	second.Category = "Travel"
	if score := analyzer.contextSimilarity(first, second); score != 0 {
		t.Errorf("Expected 0 for mismatched categories, got %f", score)
	}
}

func TestNormalizeMerchantName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Starbucks Coffee Ltd.", "starbucks coffee"},
		{"  McDonald's   Restaurant  ", "mcdonalds"},
		{"Amazon.com", "amazoncom"},
		{"Cafe X", "x"},
	}

	for _, tt := range tests {
		if got := NormalizeMerchantName(tt.input); got != tt.expected {
			t.Errorf("NormalizeMerchantName(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	for name, config := range map[string]*Config{
		"default": DefaultConfig(),
		"strict":  StrictConfig(),
		"relaxed": RelaxedConfig(),
	} {
		if err := config.Validate(); err != nil {
			t.Errorf("Expected %s config to be valid, got: %v", name, err)
		}
	}

	badWeights := DefaultConfig()
	badWeights.AmountWeight = 0.9
	if err := badWeights.Validate(); err == nil {
		t.Error("Expected error when weights do not sum to 1.0")
	}

	badThresholds := DefaultConfig()
	badThresholds.PotentialThreshold = 0.95
	if err := badThresholds.Validate(); err == nil {
		t.Error("Expected error when potential threshold exceeds similar threshold")
	}
}

func TestConfigClone(t *testing.T) {
	original := DefaultConfig()
	clone := original.Clone()

	clone.AmountTolerance = 0.5
	if original.AmountTolerance == 0.5 {
		t.Error("Expected clone to be independent of the original")
	}
}
