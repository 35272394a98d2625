package similarity

import (
	"fmt"
)

// Config holds all the tunable parameters for duplicate analysis.
// Tolerances control how far two values can drift while still scoring,
// weights control how much each signal contributes to the overall score,
// and thresholds control classification.
type Config struct {
	// AmountTolerance is the relative difference within which two amounts
	// still score near the top of the band (0.01 = 1%)
	AmountTolerance float64 `json:"amount_tolerance"`

	// DateToleranceDays is the day difference within which two dates still
	// score near the top of the band
	DateToleranceDays int `json:"date_tolerance_days"`

	// Signal weights, expected to sum to 1.0
	AmountWeight   float64 `json:"amount_weight"`
	DateWeight     float64 `json:"date_weight"`
	MerchantWeight float64 `json:"merchant_weight"`
	ContextWeight  float64 `json:"context_weight"`

	// Classification thresholds on the overall score
	SimilarThreshold   float64 `json:"similar_threshold"`
	PotentialThreshold float64 `json:"potential_threshold"`

	// MinConfidence is the confidence floor a pair must clear to count as
	// a duplicate
	MinConfidence float64 `json:"min_confidence"`
}

// DefaultConfig returns the standard analysis configuration
func DefaultConfig() *Config {
	return &Config{
		AmountTolerance:    0.01,
		DateToleranceDays:  1,
		AmountWeight:       0.4,
		DateWeight:         0.3,
		MerchantWeight:     0.2,
		ContextWeight:      0.1,
		SimilarThreshold:   0.9,
		PotentialThreshold: 0.7,
		MinConfidence:      0.5,
	}
}

// StrictConfig returns a configuration that only flags near-identical pairs
func StrictConfig() *Config {
	config := DefaultConfig()
	config.AmountTolerance = 0.001
	config.DateToleranceDays = 0
	config.SimilarThreshold = 0.95
	config.PotentialThreshold = 0.85
	config.MinConfidence = 0.7
	return config
}

// RelaxedConfig returns a configuration that casts a wider net, useful for
// review workflows where false positives are cheap
func RelaxedConfig() *Config {
	config := DefaultConfig()
	config.AmountTolerance = 0.05
	config.DateToleranceDays = 3
	config.SimilarThreshold = 0.8
	config.PotentialThreshold = 0.6
	config.MinConfidence = 0.4
	return config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AmountTolerance < 0 || c.AmountTolerance > 1 {
		return fmt.Errorf("amount tolerance must be between 0 and 1: %f", c.AmountTolerance)
	}

	if c.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", c.DateToleranceDays)
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"amount", c.AmountWeight},
		{"date", c.DateWeight},
		{"merchant", c.MerchantWeight},
		{"context", c.ContextWeight},
	}

	sum := 0.0
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return fmt.Errorf("%s weight must be between 0 and 1: %f", w.name, w.value)
		}
		sum += w.value
	}

	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("signal weights must sum to 1.0, got %f", sum)
	}

	if c.SimilarThreshold < 0 || c.SimilarThreshold > 1 {
		return fmt.Errorf("similar threshold must be between 0 and 1: %f", c.SimilarThreshold)
	}

	if c.PotentialThreshold < 0 || c.PotentialThreshold > 1 {
		return fmt.Errorf("potential threshold must be between 0 and 1: %f", c.PotentialThreshold)
	}

	if c.PotentialThreshold > c.SimilarThreshold {
		return fmt.Errorf("potential threshold (%f) cannot exceed similar threshold (%f)",
			c.PotentialThreshold, c.SimilarThreshold)
	}

	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be between 0 and 1: %f", c.MinConfidence)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
