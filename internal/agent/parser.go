package agent

import (
	"context"
	"encoding/json"
	"strings"

	"marketsense/internal/llm"
	"marketsense/internal/models"
)

// ParsedPosition is the three-field record the parser model is asked to emit.
type ParsedPosition struct {
	Ticker   string  `json:"ticker"`
	BuyPrice float64 `json:"buy_price"`
	Quantity int     `json:"quantity"`
}

const parserSystemPrompt = `You extract structured stock positions from casual user text.
Reply with ONLY a JSON object, no prose and no code fences:
{"ticker": "<symbol or UNKNOWN>", "buy_price": <number, 0.0 if not stated>, "quantity": <integer, 1 if not stated>}`

// IntentParser turns free text like "I bought 50 shares of NVDA at $120"
// into a ParsedPosition via one model call.
type IntentParser struct {
	model llm.ChatModel
}

func NewIntentParser(model llm.ChatModel) *IntentParser {
	return &IntentParser{model: model}
}

// Parse never fails past this boundary: malformed or missing model output
// degrades to UNKNOWN/0.0/1 with a fault annotation.
func (p *IntentParser) Parse(ctx context.Context, query string) (ParsedPosition, *models.Fault) {
	fallback := ParsedPosition{Ticker: models.UnknownTicker, BuyPrice: 0, Quantity: 1}

	reply, err := llm.Complete(ctx, p.model, parserSystemPrompt, query)
	if err != nil {
		return fallback, models.Provider("parse.intent", err)
	}

	var parsed ParsedPosition
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &parsed); err != nil {
		return fallback, models.Malformed("parse.intent", err)
	}

	parsed.Ticker = strings.ToUpper(strings.TrimSpace(parsed.Ticker))
	if parsed.Ticker == "" {
		parsed.Ticker = models.UnknownTicker
	}
	if parsed.BuyPrice < 0 {
		parsed.BuyPrice = 0
	}
	if parsed.Quantity < 1 {
		parsed.Quantity = 1
	}
	return parsed, nil
}

// stripCodeFence removes a surrounding markdown fence that models add despite
// instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
