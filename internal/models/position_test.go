package models

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestComputePnL(t *testing.T) {
	tests := []struct {
		name       string
		entry      float64
		qty        int
		price      float64
		priceKnown bool
		want       float64
	}{
		{"profitable position", 120, 50, 130, true, 500},
		{"losing position", 130, 10, 120, true, -100},
		{"unknown entry price", 0, 50, 130, true, 0},
		{"price unavailable", 120, 50, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Position{EntryPrice: tt.entry, Quantity: tt.qty, Price: tt.price, PriceKnown: tt.priceKnown}
			p.ComputePnL()
			if p.PnL != tt.want {
				t.Fatalf("PnL = %v, want %v", p.PnL, tt.want)
			}
		})
	}
}

func TestPctGain(t *testing.T) {
	p := &Position{EntryPrice: 120, Quantity: 50, Price: 130, PriceKnown: true}
	p.ComputePnL()

	if got := p.PctGain(); math.Abs(got-8.3333) > 0.001 {
		t.Fatalf("PctGain = %v, want ~8.33", got)
	}

	flat := &Position{Quantity: 1}
	flat.ComputePnL()
	if got := flat.PctGain(); got != 0 {
		t.Fatalf("PctGain with unknown entry = %v, want 0", got)
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		decision string
		want     string
	}{
		{"SELL. We are up 15% and the news is cooling off.", ActionSell},
		{"BUY. Sentiment is strong and the dip looks temporary.", ActionBuy},
		{"HOLD. Nothing has changed.", ActionHold},
		{"I would sell here, honestly.", ActionSell},
		{"It makes sense to buy more.", ActionBuy},
		{"", ActionHold},
		{"The model rambled without a verdict.", ActionHold},
	}

	for _, tt := range tests {
		if got := ParseAction(tt.decision); got != tt.want {
			t.Errorf("ParseAction(%q) = %q, want %q", tt.decision, got, tt.want)
		}
	}
}

func TestRationale(t *testing.T) {
	got := Rationale("SELL. We are up 15%.")
	if got != "We are up 15%." {
		t.Fatalf("Rationale = %q", got)
	}

	if got := Rationale("no leading token here"); got != "no leading token here" {
		t.Fatalf("Rationale without token = %q", got)
	}
}

func TestFaultKinds(t *testing.T) {
	base := errors.New("boom")
	f := Provider("market.last_close", base)

	if !IsKind(f, KindProvider) {
		t.Fatal("expected provider kind")
	}
	if IsKind(f, KindMalformed) {
		t.Fatal("provider fault must not match malformed")
	}
	if !errors.Is(f, base) {
		t.Fatal("fault must unwrap to the cause")
	}

	wrapped := fmt.Errorf("stage failed: %w", f)
	got := AsFault("other.op", wrapped)
	if got.Kind != KindProvider || got.Op != "market.last_close" {
		t.Fatalf("AsFault lost the tag: %+v", got)
	}

	untagged := AsFault("news.search", errors.New("dial tcp: timeout"))
	if untagged.Kind != KindProvider {
		t.Fatalf("untagged errors default to provider, got %v", untagged.Kind)
	}
}
