package similarity

import (
	"regexp"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// StringSimilarity computes a similarity score in [0, 1] between two
// strings. Implementations must be safe for concurrent use.
type StringSimilarity interface {
	Similarity(a, b string) float64
}

// LevenshteinSimilarity scores strings by edit distance normalized over
// the longer string, so 1.0 means identical and 0.0 means fully disjoint.
type LevenshteinSimilarity struct{}

// NewLevenshteinSimilarity creates the default string similarity scorer
func NewLevenshteinSimilarity() *LevenshteinSimilarity {
	return &LevenshteinSimilarity{}
}

// Similarity implements StringSimilarity
func (l *LevenshteinSimilarity) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	runesA := []rune(a)
	runesB := []rune(b)

	longer := len(runesA)
	if len(runesB) > longer {
		longer = len(runesB)
	}
	if longer == 0 {
		return 1.0
	}

	distance := levenshtein.DistanceForStrings(runesA, runesB, levenshtein.DefaultOptions)
	return float64(longer-distance) / float64(longer)
}

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	suffixPattern     = regexp.MustCompile(`\b(pvt|ltd|llc|inc|corp|co|restaurant|cafe|store|shop)\b`)
)

// NormalizeMerchantName canonicalizes a merchant name for comparison:
// lowercase, punctuation stripped, legal and venue suffixes removed,
// whitespace collapsed.
func NormalizeMerchantName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = nonWordPattern.ReplaceAllString(normalized, "")
	normalized = suffixPattern.ReplaceAllString(normalized, "")
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// merchantAliases maps canonical merchant names to spellings commonly
// produced by recognition engines. Keys and values are normalized forms.
var merchantAliases = map[string][]string{
	"mcdonalds": {"mcd", "mc donalds", "mac donalds"},
	"starbucks": {"starbucks coffee", "sbux"},
	"amazon":    {"amazoncom", "amzn"},
	"zomato":    {"zomato limited", "zom"},
	"swiggy":    {"swiggy limited", "swiggy food"},
}

// matchesAlias reports whether the two normalized names resolve to the
// same known merchant through the alias table
func matchesAlias(a, b string) bool {
	for canonical, aliases := range merchantAliases {
		aMatches := a == canonical
		bMatches := b == canonical
		for _, alias := range aliases {
			if a == alias {
				aMatches = true
			}
			if b == alias {
				bMatches = true
			}
		}
		if aMatches && bMatches {
			return true
		}
	}
	return false
}
