package agent

import (
	"context"
	"fmt"

	"marketsense/internal/llm"
	"marketsense/internal/models"
)

const decisionSystemPrompt = `You are a Senior Portfolio Manager advising a single retail position.

DECISION LOGIC:
- SELL if PnL > 10% and news is weak (take profit).
- SELL if PnL < -5% and news is negative (stop loss).
- BUY if PnL is negative but sentiment is > 0.5 (buy the dip).
- HOLD otherwise.

OUTPUT FORMAT:
Start with exactly one word: BUY, SELL, or HOLD.
Then write a short, human explanation. Do not mention rule numbers; explain the logic directly.

Example:
SELL. We are up 15% and the news is cooling off. It's smart to lock in these gains now.`

// neutralDecision is the degrade path when the decision model itself is
// unreachable.
const neutralDecision = "HOLD. The analysis service was unavailable, so no change to the position is recommended."

// Decider assembles every computed fact into one prompt and asks the
// decision model for an action plus rationale. The reply is best-effort
// compliant; callers must search for the action token rather than trust
// position zero.
type Decider struct {
	model llm.ChatModel
}

func NewDecider(model llm.ChatModel) *Decider {
	return &Decider{model: model}
}

func (d *Decider) Decide(ctx context.Context, pos *models.Position) (string, *models.Fault) {
	price := "unavailable"
	if pos.PriceKnown {
		price = fmt.Sprintf("$%.2f", pos.Price)
	}

	user := fmt.Sprintf(`USER POSITION:
- Stock: %s
- Current price: %s
- PnL: $%.2f (%.2f%%)

DATA:
- Sentiment: %.2f (scale: -1.0 to 1.0)
- News: %s
- Risks: %s`,
		pos.Ticker, price, pos.PnL, pos.PctGain(),
		pos.SentimentScore, pos.NewsSummary, pos.RiskSummary)

	reply, err := llm.Complete(ctx, d.model, decisionSystemPrompt, user)
	if err != nil {
		return neutralDecision, models.Provider("decision.synthesize", err)
	}
	return reply, nil
}
