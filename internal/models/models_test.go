package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionTypeIsValid(t *testing.T) {
	tests := []struct {
		txType   TransactionType
		expected bool
	}{
		{TransactionTypeIncome, true},
		{TransactionTypeExpense, true},
		{TransactionType("transfer"), false},
		{TransactionType(""), false},
	}

	for _, tt := range tests {
		if got := tt.txType.IsValid(); got != tt.expected {
			t.Errorf("IsValid(%s) = %v, expected %v", tt.txType, got, tt.expected)
		}
	}
}

func TestTransactionRecordValidate(t *testing.T) {
	valid := &TransactionRecord{
		Amount:     decimal.NewFromFloat(42.50),
		Merchant:   "Cafe X",
		Date:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Confidence: 0.95,
		Type:       TransactionTypeExpense,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid record, got error: %v", err)
	}

	badConfidence := &TransactionRecord{Confidence: 1.5}
	if err := badConfidence.Validate(); err == nil {
		t.Error("Expected error for confidence above 1.0")
	}

	negative := &TransactionRecord{
		Amount:     decimal.NewFromFloat(-10),
		Confidence: 0.5,
	}
	if err := negative.Validate(); err == nil {
		t.Error("Expected error for negative amount")
	}

	badType := &TransactionRecord{
		Confidence: 0.5,
		Type:       TransactionType("refund"),
	}
	if err := badType.Validate(); err == nil {
		t.Error("Expected error for invalid transaction type")
	}
}

func TestTransactionRecordPresenceHelpers(t *testing.T) {
	empty := &TransactionRecord{}
	if empty.HasAmount() || empty.HasMerchant() || empty.HasDate() {
		t.Error("Expected zero-value record to have no populated fields")
	}

	populated := &TransactionRecord{
		Amount:   decimal.NewFromFloat(12.00),
		Merchant: "Shop Y",
		Date:     time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	}
	if !populated.HasAmount() || !populated.HasMerchant() || !populated.HasDate() {
		t.Error("Expected populated record to report all fields present")
	}

	whitespace := &TransactionRecord{Merchant: "   "}
	if whitespace.HasMerchant() {
		t.Error("Expected whitespace-only merchant to count as absent")
	}
}

func TestTransactionRecordJSONRoundTrip(t *testing.T) {
	original := &TransactionRecord{
		Amount:     decimal.NewFromFloat(100.50),
		Merchant:   "Starbucks",
		Category:   "Food & Dining",
		Date:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Confidence: 0.9,
		Type:       TransactionTypeExpense,
		FileName:   "receipt_001.jpg",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded TransactionRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !decoded.Amount.Equal(original.Amount) {
		t.Errorf("Amount mismatch: expected %s, got %s", original.Amount, decoded.Amount)
	}
	if decoded.Merchant != original.Merchant {
		t.Errorf("Merchant mismatch: expected %s, got %s", original.Merchant, decoded.Merchant)
	}
	if !decoded.SameCalendarDay(original) {
		t.Error("Expected round-tripped date to land on the same day")
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input       string
		expected    string
		expectError bool
	}{
		{"100.50", "100.5", false},
		{"$1,234.56", "1234.56", false},
		{"₹500", "500", false},
		{"  42  ", "42", false},
		{"", "", true},
		{"not-a-number", "", true},
	}

	for _, tt := range tests {
		result, err := ParseDecimalFromString(tt.input)
		if tt.expectError {
			if err == nil {
				t.Errorf("ParseDecimalFromString(%q) expected error, got %s", tt.input, result)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimalFromString(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if result.String() != tt.expected {
			t.Errorf("ParseDecimalFromString(%q) = %s, expected %s", tt.input, result, tt.expected)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input       string
		expected    TransactionType
		expectError bool
	}{
		{"income", TransactionTypeIncome, false},
		{"EXPENSE", TransactionTypeExpense, false},
		{"debit", TransactionTypeExpense, false},
		{"credit", TransactionTypeIncome, false},
		{"transfer", "", true},
	}

	for _, tt := range tests {
		result, err := ParseTransactionType(tt.input)
		if tt.expectError {
			if err == nil {
				t.Errorf("ParseTransactionType(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTransactionType(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("ParseTransactionType(%q) = %s, expected %s", tt.input, result, tt.expected)
		}
	}
}

func TestParseDateWithFormats(t *testing.T) {
	tests := []struct {
		input       string
		expectError bool
	}{
		{"2024-01-15", false},
		{"2024-01-15T10:30:00Z", false},
		{"01/15/2024", false},
		{"Jan 15, 2024", false},
		{"not-a-date", true},
		{"", true},
	}

	for _, tt := range tests {
		result, err := ParseDateWithFormats(tt.input)
		if tt.expectError {
			if err == nil {
				t.Errorf("ParseDateWithFormats(%q) expected error, got %v", tt.input, result)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDateWithFormats(%q) unexpected error: %v", tt.input, err)
		}
	}
}

func TestSumAmounts(t *testing.T) {
	records := []*TransactionRecord{
		{Amount: decimal.NewFromFloat(50.00)},
		{Amount: decimal.NewFromFloat(12.00)},
		{},
	}

	total := SumAmounts(records)
	if !total.Equal(decimal.NewFromFloat(62.00)) {
		t.Errorf("Expected total 62, got %s", total)
	}

	if !SumAmounts(nil).IsZero() {
		t.Error("Expected zero total for empty input")
	}
}

func TestAverageConfidence(t *testing.T) {
	records := []*TransactionRecord{
		{Confidence: 0.9},
		{Confidence: 0.7},
	}

	avg := AverageConfidence(records)
	if avg < 0.799 || avg > 0.801 {
		t.Errorf("Expected average 0.8, got %f", avg)
	}

	if AverageConfidence(nil) != 0 {
		t.Error("Expected zero average for empty input")
	}
}
