package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/case-billing-api/internal/billing"
	"github.com/yukikurage/case-billing-api/internal/constants"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoItemsDrafted       = errors.New("AI did not draft any line items")
	ErrNarrativeRequired      = errors.New("narrative is required")
)

// chatCompleter is the part of the OpenAI client the drafter needs
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AIService struct {
	client chatCompleter
	model  string
}

// DraftLineItem is a suggested invoice line. Nothing is persisted.
type DraftLineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

// DraftLineItems turns a free-text billing narrative (time entries, expenses)
// into suggested invoice line items. Items that would not pass invoice
// validation are dropped.
func (s *AIService) DraftLineItems(ctx context.Context, narrative string, defaultRate *decimal.Decimal) ([]DraftLineItem, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return nil, invalid("narrative", ErrNarrativeRequired)
	}

	rateHint := "If no rate is stated, use 0."
	if defaultRate != nil {
		rateHint = fmt.Sprintf("If no rate is stated, use the standard hourly rate %s.", defaultRate.StringFixed(billing.MoneyPlaces))
	}

	prompt := fmt.Sprintf(`You prepare invoices for a law firm. Extract billable line items from the text below.

Text:
%s

Return a JSON array only, no prose:
[
  {"description": "short description of the work or expense", "quantity": "hours or units as a decimal string", "rate": "price per unit as a decimal string"}
]

Rules:
- Return [] when nothing is billable
- Quantities must be greater than zero; rates must not be negative
- %s`, narrative, rateHint)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.2,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	items, err := parseDraftLineItems(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrAINoItemsDrafted
	}

	return items, nil
}

// parseDraftLineItems decodes the model output, keeping at most
// MaxAIDraftItems valid items.
func parseDraftLineItems(content string) ([]DraftLineItem, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []struct {
		Description string          `json:"description"`
		Quantity    decimal.Decimal `json:"quantity"`
		Rate        decimal.Decimal `json:"rate"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	items := make([]DraftLineItem, 0, len(raw))
	for _, r := range raw {
		if len(items) == constants.MaxAIDraftItems {
			break
		}
		description := strings.TrimSpace(r.Description)
		line := billing.LineItem{Quantity: r.Quantity.Round(billing.QuantityPlaces), Rate: billing.Round(r.Rate)}
		if description == "" || billing.ValidateLineItem(len(items), line) != nil {
			continue
		}
		items = append(items, DraftLineItem{
			Description: description,
			Quantity:    line.Quantity,
			Rate:        line.Rate,
			Amount:      billing.Round(line.Quantity.Mul(line.Rate)),
		})
	}

	return items, nil
}
