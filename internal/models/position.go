package models

import "strings"

// UnknownTicker is the parser's fallback when it cannot extract a symbol.
const UnknownTicker = "UNKNOWN"

// Position is the accumulating record threaded through one pipeline run.
// Every field except Ticker defaults to a neutral value so a later stage can
// still run after an earlier one degraded. A Position lives for exactly one
// Analyze call and is never persisted.
type Position struct {
	UserQuery string `json:"user_query"`

	Ticker     string  `json:"ticker"`
	EntryPrice float64 `json:"entry_price"` // 0 means unknown
	Quantity   int     `json:"quantity"`

	Price      float64 `json:"price"`
	PriceKnown bool    `json:"price_known"`
	PnL        float64 `json:"pnl"`

	NewsSummary    string  `json:"news_summary"`
	SentimentScore float64 `json:"sentiment_score"` // [-1.0, 1.0], 0 = neutral/unknown
	RiskSummary    string  `json:"risk_summary"`
	FinalDecision  string  `json:"final_decision"`

	// Faults collects the degradations that happened along the way. They are
	// annotations, not failures: the run itself still completes.
	Faults []Fault `json:"faults,omitempty"`
}

func NewPosition(query string) *Position {
	return &Position{
		UserQuery: query,
		Ticker:    UnknownTicker,
		Quantity:  1,
	}
}

// ComputePnL derives profit/loss from the current fields. It is zero unless
// both the entry price and a live price are known.
func (p *Position) ComputePnL() {
	if p.EntryPrice > 0 && p.PriceKnown {
		p.PnL = (p.Price - p.EntryPrice) * float64(p.Quantity)
		return
	}
	p.PnL = 0
}

// PctGain is the percentage gain on the position, 0 when the entry price is
// unknown.
func (p *Position) PctGain() float64 {
	if p.EntryPrice <= 0 || p.Quantity <= 0 {
		return 0
	}
	return p.PnL / (p.EntryPrice * float64(p.Quantity)) * 100
}

func (p *Position) AddFault(f Fault) {
	p.Faults = append(p.Faults, f)
}

// Action tokens the decision model is asked to lead with.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// ParseAction extracts the action token from a decision text. The model is
// prompted to start with the token but is not trusted to: the whole text is
// searched, SELL taking precedence over BUY over HOLD.
func ParseAction(decision string) string {
	upper := strings.ToUpper(decision)
	switch {
	case strings.Contains(upper, ActionSell):
		return ActionSell
	case strings.Contains(upper, ActionBuy):
		return ActionBuy
	default:
		return ActionHold
	}
}

// Rationale strips the leading action token (and trailing punctuation) from a
// decision text, leaving the free-text explanation.
func Rationale(decision string) string {
	text := strings.TrimSpace(decision)
	upper := strings.ToUpper(text)
	for _, token := range []string{ActionSell, ActionBuy, ActionHold} {
		if strings.HasPrefix(upper, token) {
			text = strings.TrimSpace(text[len(token):])
			text = strings.TrimLeft(text, ".:,- ")
			break
		}
	}
	return text
}

// Mover is a display-only quote row for the market watch sidebar. The
// decision pipeline never consumes it.
type Mover struct {
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"change_pct"`
	Sparkline []float64 `json:"sparkline"`
}
