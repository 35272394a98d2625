package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"receipt-batch-service/internal/models"
	"receipt-batch-service/pkg/errors"
	"receipt-batch-service/pkg/logger"
)

// DefaultModelName is the recognition model used unless overridden
const DefaultModelName = "gemini-2.0-flash"

const extractionPrompt = "You are a receipt and invoice parser for scanned financial documents.\n\n" +
	"Task:\n" +
	"- Read the attached document and extract the single transaction it describes.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a single JSON object.\n\n" +
	"The object must have these fields:\n" +
	"- \"amount\": string, the total amount as a decimal number, or null if unreadable\n" +
	"- \"merchant\": string or null\n" +
	"- \"category\": string or null (e.g. \"Food & Dining\", \"Shopping\", \"Travel\")\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\", or null\n" +
	"- \"description\": string or null\n" +
	"- \"type\": string, \"income\" or \"expense\"\n" +
	"- \"confidence\": number between 0 and 1 reflecting how legible the document was\n\n" +
	"Rules:\n" +
	"- Use the final total including tax, not a line item.\n" +
	"- Set any field you cannot read to null rather than guessing.\n" +
	"- Return ONLY valid raw JSON.\n" +
	"- Do NOT wrap the response in code fences.\n" +
	"- Output must begin with \"{\" and end with \"}\".\n"

// GeminiConfig configures the Gemini-backed extractor
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API. Empty falls back to
	// the client's ambient credentials.
	APIKey string `json:"-"`

	// Model names the recognition model
	Model string `json:"model"`
}

// GeminiExtractor extracts transaction records by sending document bytes
// to the Gemini API
type GeminiExtractor struct {
	client *genai.Client
	model  string
	logger logger.Logger
}

// NewGeminiExtractor creates an extractor backed by the Gemini API
func NewGeminiExtractor(ctx context.Context, config *GeminiConfig) (*GeminiExtractor, error) {
	if config == nil {
		config = &GeminiConfig{}
	}

	model := config.Model
	if model == "" {
		model = DefaultModelName
	}

	clientConfig := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	}
	if config.APIKey != "" {
		clientConfig.APIKey = config.APIKey
		clientConfig.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "gemini", model,
			fmt.Errorf("create genai client: %w", err))
	}

	return &GeminiExtractor{
		client: client,
		model:  model,
		logger: logger.GetGlobalLogger().WithComponent("extract"),
	}, nil
}

// extractedPayload is the JSON shape the model is instructed to return
type extractedPayload struct {
	Amount      *string  `json:"amount"`
	Merchant    *string  `json:"merchant"`
	Category    *string  `json:"category"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Type        *string  `json:"type"`
	Confidence  *float64 `json:"confidence"`
}

// Extract implements Extractor
func (e *GeminiExtractor) Extract(ctx context.Context, file *models.BatchFile) (*models.TransactionRecord, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: file.MIMEType,
						Data:     file.Data,
					},
				},
			},
		},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.ExtractionError(errors.CodeTimeout, file.Name, err)
		}
		return nil, errors.ExtractionError(errors.CodeExtractionFailed, file.Name, err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, errors.ExtractionError(errors.CodeEmptyResponse, file.Name, nil)
	}

	var payload extractedPayload
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &payload); err != nil {
		return nil, errors.ExtractionError(errors.CodeMalformedRecord, file.Name,
			fmt.Errorf("unmarshal model response: %w", err))
	}

	record, err := payload.toRecord(file.Name)
	if err != nil {
		return nil, errors.ExtractionError(errors.CodeMalformedRecord, file.Name, err)
	}

	e.logger.WithFields(logger.Fields{
		"file":       file.Name,
		"merchant":   record.Merchant,
		"confidence": record.Confidence,
	}).Debug("Extracted transaction")

	return record, nil
}

// toRecord converts the model payload into a TransactionRecord, leaving
// unreadable fields at their zero values
func (p *extractedPayload) toRecord(fileName string) (*models.TransactionRecord, error) {
	record := &models.TransactionRecord{
		FileName:    fileName,
		ExtractedAt: time.Now(),
	}

	if p.Amount != nil && *p.Amount != "" {
		amount, err := models.ParseDecimalFromString(*p.Amount)
		if err != nil {
			return nil, err
		}
		record.Amount = amount
	}

	if p.Merchant != nil {
		record.Merchant = strings.TrimSpace(*p.Merchant)
	}

	if p.Category != nil {
		record.Category = strings.TrimSpace(*p.Category)
	}

	if p.Date != nil && *p.Date != "" {
		date, err := models.ParseDateWithFormats(*p.Date)
		if err != nil {
			return nil, err
		}
		record.Date = date
	}

	if p.Description != nil {
		record.Description = strings.TrimSpace(*p.Description)
	}

	if p.Type != nil && *p.Type != "" {
		txType, err := models.ParseTransactionType(*p.Type)
		if err != nil {
			return nil, err
		}
		record.Type = txType
	}

	if p.Confidence != nil {
		record.Confidence = *p.Confidence
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
