package similarity

import (
	"sort"

	"github.com/google/uuid"

	"receipt-batch-service/internal/models"
	"receipt-batch-service/pkg/logger"
)

// DuplicateGroup is a set of two or more records judged to describe the
// same real-world transaction
type DuplicateGroup struct {
	ID       string                      `json:"id"`
	Records  []*models.TransactionRecord `json:"records"`
	Indices  []int                       `json:"indices"`
	Analysis *GroupAnalysis              `json:"analysis"`
}

// Size returns the number of records in the group
func (g *DuplicateGroup) Size() int {
	return len(g.Records)
}

// GroupAnalysis aggregates the pairwise analyses of a group: scores are
// averaged over all member pairs, reasons are unioned, and the match type
// is the strongest type observed among the pairs.
type GroupAnalysis struct {
	AmountScore   float64   `json:"amount_score"`
	DateScore     float64   `json:"date_score"`
	MerchantScore float64   `json:"merchant_score"`
	ContextScore  float64   `json:"context_score"`
	Overall       float64   `json:"overall"`
	MatchType     MatchType `json:"match_type"`
	Confidence    float64   `json:"confidence"`
	Reasons       []string  `json:"reasons"`
}

// Grouper folds pairwise duplicate analyses into groups
type Grouper struct {
	analyzer *Analyzer
	logger   logger.Logger
}

// NewGrouper creates a grouper on top of the given analyzer
func NewGrouper(analyzer *Analyzer) *Grouper {
	return &Grouper{
		analyzer: analyzer,
		logger:   logger.GetGlobalLogger().WithComponent("grouper"),
	}
}

// Group scans the records and collects duplicate groups. The scan is
// greedy: the first unprocessed record becomes the pivot, every later
// unprocessed record that matches it joins the group, and all members are
// marked processed. Membership is therefore anchored to the pivot, not
// transitive across members. Input order determines pivot order, so the
// same input always yields the same groups.
func (g *Grouper) Group(records []*models.TransactionRecord) []*DuplicateGroup {
	groups := []*DuplicateGroup{}
	processed := make([]bool, len(records))

	for i := 0; i < len(records); i++ {
		if processed[i] {
			continue
		}

		memberIndices := []int{i}
		pairAnalyses := []*Analysis{}

		for j := i + 1; j < len(records); j++ {
			if processed[j] {
				continue
			}

			analysis := g.analyzer.Analyze(records[i], records[j])
			if analysis.IsDuplicate {
				memberIndices = append(memberIndices, j)
				pairAnalyses = append(pairAnalyses, analysis)
			}
		}

		if len(memberIndices) < 2 {
			continue
		}

		members := make([]*models.TransactionRecord, 0, len(memberIndices))
		for _, idx := range memberIndices {
			processed[idx] = true
			members = append(members, records[idx])
		}

		group := &DuplicateGroup{
			ID:       uuid.New().String(),
			Records:  members,
			Indices:  memberIndices,
			Analysis: g.aggregateAnalyses(members, pairAnalyses),
		}
		groups = append(groups, group)

		g.logger.WithFields(logger.Fields{
			"group_id":   group.ID,
			"size":       group.Size(),
			"match_type": group.Analysis.MatchType,
		}).Debug("Duplicate group formed")
	}

	return groups
}

// aggregateAnalyses merges pivot-pair analyses with the remaining member
// pairs into one group-level analysis
func (g *Grouper) aggregateAnalyses(members []*models.TransactionRecord, pivotPairs []*Analysis) *GroupAnalysis {
	analyses := make([]*Analysis, 0, len(pivotPairs))
	analyses = append(analyses, pivotPairs...)

	// Pivot pairs cover (0, j); fill in the pairs among the non-pivot members
	for i := 1; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			analyses = append(analyses, g.analyzer.Analyze(members[i], members[j]))
		}
	}

	result := &GroupAnalysis{
		MatchType: MatchPotential,
		Reasons:   []string{},
	}

	if len(analyses) == 0 {
		return result
	}

	seenReasons := map[string]bool{}
	for _, a := range analyses {
		result.AmountScore += a.AmountScore
		result.DateScore += a.DateScore
		result.MerchantScore += a.MerchantScore
		result.ContextScore += a.ContextScore
		result.Overall += a.Overall
		result.Confidence += a.Confidence

		if promotes(a.MatchType, result.MatchType) {
			result.MatchType = a.MatchType
		}

		for _, reason := range a.Reasons {
			if !seenReasons[reason] {
				seenReasons[reason] = true
				result.Reasons = append(result.Reasons, reason)
			}
		}
	}

	n := float64(len(analyses))
	result.AmountScore /= n
	result.DateScore /= n
	result.MerchantScore /= n
	result.ContextScore /= n
	result.Overall /= n
	result.Confidence /= n

	sort.Strings(result.Reasons)
	return result
}

// matchTypeRank orders match types from weakest to strongest
var matchTypeRank = map[MatchType]int{
	MatchNone:      0,
	MatchPotential: 1,
	MatchSimilar:   2,
	MatchExact:     3,
}

func promotes(candidate, current MatchType) bool {
	return matchTypeRank[candidate] > matchTypeRank[current]
}

// DuplicateRecordCount returns the number of redundant records across the
// groups, counting every group member beyond the first
func DuplicateRecordCount(groups []*DuplicateGroup) int {
	count := 0
	for _, g := range groups {
		if g.Size() > 1 {
			count += g.Size() - 1
		}
	}
	return count
}
