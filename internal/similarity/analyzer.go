// Package similarity scores pairs of extracted transactions for likely
// duplication. Four signals contribute to an overall weighted score:
// amount, date, merchant name, and contextual fields (category, type,
// description). The analyzer classifies each pair and the grouper folds
// pairwise results into duplicate groups.
package similarity

import (
	"fmt"
	"math"
	"strings"

	"receipt-batch-service/internal/models"
	"receipt-batch-service/pkg/logger"
)

// MatchType represents how strongly a pair of records matches
type MatchType string

const (
	// MatchExact means amount, date, and merchant all matched exactly
	MatchExact MatchType = "exact"
	// MatchSimilar means the overall score cleared the similar threshold
	MatchSimilar MatchType = "similar"
	// MatchPotential means the overall score cleared the potential threshold
	MatchPotential MatchType = "potential"
	// MatchNone means the pair is not considered a duplicate
	MatchNone MatchType = "none"
)

// Analysis holds the full scoring breakdown for one pair of records
type Analysis struct {
	AmountScore   float64   `json:"amount_score"`
	DateScore     float64   `json:"date_score"`
	MerchantScore float64   `json:"merchant_score"`
	ContextScore  float64   `json:"context_score"`
	Overall       float64   `json:"overall"`
	MatchType     MatchType `json:"match_type"`
	Confidence    float64   `json:"confidence"`
	Reasons       []string  `json:"reasons"`
	IsDuplicate   bool      `json:"is_duplicate"`
}

// Analyzer scores record pairs according to its configuration. Safe for
// concurrent use.
type Analyzer struct {
	config  *Config
	strings StringSimilarity
	logger  logger.Logger
}

// NewAnalyzer creates an analyzer with the given configuration. A nil
// config selects the defaults.
func NewAnalyzer(config *Config) (*Analyzer, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid similarity configuration: %w", err)
	}

	return &Analyzer{
		config:  config,
		strings: NewLevenshteinSimilarity(),
		logger:  logger.GetGlobalLogger().WithComponent("similarity"),
	}, nil
}

// WithStringSimilarity swaps in an alternative string scorer
func (a *Analyzer) WithStringSimilarity(s StringSimilarity) *Analyzer {
	a.strings = s
	return a
}

// Analyze scores a pair of records and classifies the result
func (a *Analyzer) Analyze(first, second *models.TransactionRecord) *Analysis {
	analysis := &Analysis{
		AmountScore:   a.amountSimilarity(first, second),
		DateScore:     a.dateSimilarity(first, second),
		MerchantScore: a.merchantSimilarity(first, second),
		ContextScore:  a.contextSimilarity(first, second),
		Reasons:       []string{},
	}

	analysis.Overall = analysis.AmountScore*a.config.AmountWeight +
		analysis.DateScore*a.config.DateWeight +
		analysis.MerchantScore*a.config.MerchantWeight +
		analysis.ContextScore*a.config.ContextWeight

	a.classify(analysis)

	analysis.IsDuplicate = analysis.Overall >= a.config.PotentialThreshold &&
		analysis.Confidence > a.config.MinConfidence

	return analysis
}

// amountSimilarity scores the amount signal. Exact equality scores 1.0,
// differences inside the tolerance band decay to 0.8, and larger
// differences fall off linearly with the relative difference.
func (a *Analyzer) amountSimilarity(first, second *models.TransactionRecord) float64 {
	if !first.HasAmount() || !second.HasAmount() {
		return 0
	}

	if first.Amount.Equal(second.Amount) {
		return 1.0
	}

	f, _ := first.Amount.Float64()
	s, _ := second.Amount.Float64()

	avg := (f + s) / 2
	if avg == 0 {
		return 0
	}

	pctDiff := math.Abs(f-s) / avg
	if a.config.AmountTolerance > 0 && pctDiff <= a.config.AmountTolerance {
		return 1.0 - (pctDiff/a.config.AmountTolerance)*0.2
	}

	return math.Max(0, 1.0-pctDiff)
}

// dateSimilarity scores the date signal in decaying bands: inside the
// configured tolerance, within a week, within a month, then zero.
func (a *Analyzer) dateSimilarity(first, second *models.TransactionRecord) float64 {
	if !first.HasDate() || !second.HasDate() {
		return 0
	}

	if first.SameCalendarDay(second) {
		return 1.0
	}

	diffDays := math.Abs(first.Date.Sub(second.Date).Hours()) / 24

	tolerance := float64(a.config.DateToleranceDays)
	if tolerance > 0 && diffDays <= tolerance {
		return 1.0 - (diffDays/tolerance)*0.3
	}

	if diffDays <= 7 {
		return 0.5 - diffDays/14
	}

	if diffDays <= 30 {
		return 0.2 - diffDays/150
	}

	return 0
}

// merchantSimilarity scores the merchant signal using exact comparison,
// normalized comparison, edit distance, and the alias table.
func (a *Analyzer) merchantSimilarity(first, second *models.TransactionRecord) float64 {
	if !first.HasMerchant() || !second.HasMerchant() {
		return 0
	}

	if strings.EqualFold(strings.TrimSpace(first.Merchant), strings.TrimSpace(second.Merchant)) {
		return 1.0
	}

	normFirst := NormalizeMerchantName(first.Merchant)
	normSecond := NormalizeMerchantName(second.Merchant)

	if normFirst != "" && normFirst == normSecond {
		return 0.95
	}

	score := a.strings.Similarity(normFirst, normSecond)
	if matchesAlias(normFirst, normSecond) && score < 0.9 {
		score = 0.9
	}

	return score
}

// contextSimilarity averages the secondary signals that happen to be
// populated on both records. With no usable signal the score stays at a
// neutral 0.5 so context never dominates the overall result.
func (a *Analyzer) contextSimilarity(first, second *models.TransactionRecord) float64 {
	factors := []float64{}

	if first.Category != "" && second.Category != "" {
		if strings.EqualFold(first.Category, second.Category) {
			factors = append(factors, 1.0)
		} else {
			factors = append(factors, 0)
		}
	}

	if first.Type != "" && second.Type != "" {
		if first.Type == second.Type {
			factors = append(factors, 1.0)
		} else {
			factors = append(factors, 0)
		}
	}

	if first.Description != "" && second.Description != "" {
		descScore := a.strings.Similarity(
			strings.ToLower(first.Description),
			strings.ToLower(second.Description),
		)
		if descScore > 0.8 {
			factors = append(factors, descScore)
		}
	}

	if len(factors) == 0 {
		return 0.5
	}

	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	return sum / float64(len(factors))
}

// classify assigns the match type, confidence, and reasons based on the
// computed scores
func (a *Analyzer) classify(analysis *Analysis) {
	if analysis.AmountScore >= 1.0 && analysis.DateScore >= 1.0 && analysis.MerchantScore >= 1.0 {
		analysis.MatchType = MatchExact
		analysis.Confidence = 0.99
		analysis.Reasons = append(analysis.Reasons, "Exact match on amount, date, and merchant")
		return
	}

	if analysis.Overall >= a.config.SimilarThreshold {
		analysis.MatchType = MatchSimilar
		analysis.Confidence = analysis.Overall

		if analysis.AmountScore >= 0.95 {
			analysis.Reasons = append(analysis.Reasons, "Very similar amounts")
		}
		if analysis.DateScore >= 0.9 {
			analysis.Reasons = append(analysis.Reasons, "Dates within tolerance")
		}
		if analysis.MerchantScore >= 0.9 {
			analysis.Reasons = append(analysis.Reasons, "Matching merchant names")
		}
		return
	}

	if analysis.Overall >= a.config.PotentialThreshold {
		analysis.MatchType = MatchPotential
		analysis.Confidence = analysis.Overall

		if analysis.AmountScore >= 0.9 {
			analysis.Reasons = append(analysis.Reasons, "Similar amounts")
		}
		if analysis.MerchantScore >= 0.8 {
			analysis.Reasons = append(analysis.Reasons, "Similar merchant names")
		}
		if analysis.DateScore >= 0.7 {
			analysis.Reasons = append(analysis.Reasons, "Close dates")
		}
		return
	}

	analysis.MatchType = MatchNone
	analysis.Confidence = 0
}
