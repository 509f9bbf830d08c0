package agent

import (
	"context"
	"errors"
	"testing"

	"marketsense/internal/models"
)

func TestParseWellFormedReply(t *testing.T) {
	parser := NewIntentParser(&stubModel{replies: []string{
		`{"ticker": "nvda", "buy_price": 120.0, "quantity": 50}`,
	}})

	parsed, fault := parser.Parse(context.Background(), "I bought 50 shares of NVDA at $120")
	if fault != nil {
		t.Fatalf("unexpected fault: %v", fault)
	}
	if parsed.Ticker != "NVDA" || parsed.BuyPrice != 120 || parsed.Quantity != 50 {
		t.Fatalf("parsed = %+v", parsed)
	}
}

func TestParseFencedReply(t *testing.T) {
	parser := NewIntentParser(&stubModel{replies: []string{
		"```json\n{\"ticker\": \"AAPL\", \"buy_price\": 0, \"quantity\": 0}\n```",
	}})

	parsed, fault := parser.Parse(context.Background(), "thinking about apple")
	if fault != nil {
		t.Fatalf("unexpected fault: %v", fault)
	}
	if parsed.Ticker != "AAPL" {
		t.Fatalf("ticker = %q", parsed.Ticker)
	}
	if parsed.Quantity != 1 {
		t.Fatalf("quantity floor not applied: %d", parsed.Quantity)
	}
}

func TestParseMalformedReplyDegrades(t *testing.T) {
	parser := NewIntentParser(&stubModel{replies: []string{"sorry, I can't help with that"}})

	parsed, fault := parser.Parse(context.Background(), "gibberish")
	if fault == nil || fault.Kind != models.KindMalformed {
		t.Fatalf("expected malformed fault, got %v", fault)
	}
	if parsed.Ticker != models.UnknownTicker || parsed.BuyPrice != 0 || parsed.Quantity != 1 {
		t.Fatalf("fallback record wrong: %+v", parsed)
	}
}

func TestParseModelFailureDegrades(t *testing.T) {
	parser := NewIntentParser(&stubModel{err: errors.New("connection refused")})

	parsed, fault := parser.Parse(context.Background(), "anything")
	if fault == nil || fault.Kind != models.KindProvider {
		t.Fatalf("expected provider fault, got %v", fault)
	}
	if parsed.Ticker != models.UnknownTicker {
		t.Fatalf("fallback ticker = %q", parsed.Ticker)
	}
}

func TestParseNegativePriceFloored(t *testing.T) {
	parser := NewIntentParser(&stubModel{replies: []string{
		`{"ticker": "TSLA", "buy_price": -5, "quantity": -2}`,
	}})

	parsed, fault := parser.Parse(context.Background(), "short tesla?")
	if fault != nil {
		t.Fatalf("unexpected fault: %v", fault)
	}
	if parsed.BuyPrice != 0 || parsed.Quantity != 1 {
		t.Fatalf("floors not applied: %+v", parsed)
	}
}
