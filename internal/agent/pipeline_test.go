package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"marketsense/internal/llm"
	"marketsense/internal/models"
	"marketsense/internal/rag"
)

type stubQuotes struct {
	price float64
	err   error
	calls int
}

func (q *stubQuotes) LastClose(ctx context.Context, symbol string) (float64, error) {
	q.calls++
	if q.err != nil {
		return 0, q.err
	}
	return q.price, nil
}

type stubNews struct {
	block string
	err   error
	calls int
}

func (n *stubNews) FinancialNews(ctx context.Context, ticker string) (string, error) {
	n.calls++
	if n.err != nil {
		return "", n.err
	}
	return n.block, nil
}

type stubFilings struct {
	chunk       string
	ensureErr   error
	ensureCalls int
	queryCalls  int
	indexed     map[string]bool
}

func (f *stubFilings) EnsureIndexed(ctx context.Context, ticker string) error {
	f.ensureCalls++
	if f.ensureErr != nil {
		return f.ensureErr
	}
	if f.indexed == nil {
		f.indexed = map[string]bool{}
	}
	f.indexed[ticker] = true
	return nil
}

func (f *stubFilings) Query(ctx context.Context, ticker, query string) (string, error) {
	f.queryCalls++
	if !f.indexed[ticker] {
		return rag.NotIndexedSentinel, nil
	}
	return f.chunk, nil
}

func newTestPipeline(t *testing.T, decision, quick *stubModel, quotes *stubQuotes, news *stubNews, filings *stubFilings) *Pipeline {
	t.Helper()
	p, err := NewPipeline(context.Background(), &llm.Models{Decision: decision, Quick: quick}, quotes, news, filings)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestAnalyzeEndToEnd(t *testing.T) {
	decision := &stubModel{replies: []string{
		`{"ticker": "NVDA", "buy_price": 120, "quantity": 50}`,
		"HOLD. Up 8% with mild sentiment; nothing here forces a move.",
	}}
	quick := &stubModel{replies: []string{
		"- Nvidia beat data center estimates.",
		"0.4",
		"- Dependence on a single foundry partner.",
	}}
	quotes := &stubQuotes{price: 130}
	news := &stubNews{block: "- raw snippet about earnings"}
	filings := &stubFilings{chunk: "risk factor text about foundry dependence"}

	p := newTestPipeline(t, decision, quick, quotes, news, filings)

	pos, err := p.Analyze(context.Background(), "I bought 50 shares of NVDA at $120")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if pos.Ticker != "NVDA" || pos.EntryPrice != 120 || pos.Quantity != 50 {
		t.Fatalf("parsed position wrong: %+v", pos)
	}
	if !pos.PriceKnown || pos.Price != 130 {
		t.Fatalf("price wrong: %+v", pos)
	}
	if pos.PnL != 500 {
		t.Fatalf("PnL = %v, want 500", pos.PnL)
	}
	if pos.SentimentScore != 0.4 {
		t.Fatalf("sentiment = %v", pos.SentimentScore)
	}
	if pos.NewsSummary != "- Nvidia beat data center estimates." {
		t.Fatalf("news summary = %q", pos.NewsSummary)
	}
	if pos.RiskSummary != "- Dependence on a single foundry partner." {
		t.Fatalf("risk summary = %q", pos.RiskSummary)
	}
	if models.ParseAction(pos.FinalDecision) != models.ActionHold {
		t.Fatalf("decision = %q", pos.FinalDecision)
	}
	if len(pos.Faults) != 0 {
		t.Fatalf("clean run recorded faults: %+v", pos.Faults)
	}

	// The synthesizer prompt embeds the derived P&L and percentage gain.
	finalPrompt := decision.prompts[len(decision.prompts)-1]
	if !strings.Contains(finalPrompt, "$500.00") || !strings.Contains(finalPrompt, "8.33%") {
		t.Fatalf("decision prompt missing derived facts:\n%s", finalPrompt)
	}

	if filings.ensureCalls != 1 || filings.queryCalls != 1 {
		t.Fatalf("filing stage call counts: ensure=%d query=%d", filings.ensureCalls, filings.queryCalls)
	}
}

func TestAnalyzeEmptyQuery(t *testing.T) {
	quotes := &stubQuotes{}
	news := &stubNews{}
	filings := &stubFilings{}
	decision := &stubModel{}
	quick := &stubModel{}

	p := newTestPipeline(t, decision, quick, quotes, news, filings)

	_, err := p.Analyze(context.Background(), "   ")
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !models.IsKind(err, models.KindValidation) {
		t.Fatalf("wrong error kind: %v", err)
	}
	if decision.calls+quick.calls+quotes.calls+news.calls+filings.ensureCalls != 0 {
		t.Fatal("empty query must not reach any external collaborator")
	}
}

func TestAnalyzePriceFetchDegrades(t *testing.T) {
	decision := &stubModel{replies: []string{
		`{"ticker": "NVDA", "buy_price": 120, "quantity": 50}`,
		"HOLD. Price data was unavailable, stay put.",
	}}
	quick := &stubModel{replies: []string{"- some news.", "0.0", "- some risk."}}
	quotes := &stubQuotes{err: errors.New("quote provider down")}
	filings := &stubFilings{chunk: "risks"}

	p := newTestPipeline(t, decision, quick, quotes, &stubNews{block: "- raw"}, filings)

	pos, err := p.Analyze(context.Background(), "I bought 50 shares of NVDA at $120")
	if err != nil {
		t.Fatalf("pipeline must continue past a price failure: %v", err)
	}

	if pos.PriceKnown {
		t.Fatal("price should be marked unknown")
	}
	if pos.PnL != 0 {
		t.Fatalf("PnL = %v, want neutral 0", pos.PnL)
	}
	if len(pos.Faults) == 0 || pos.Faults[0].Kind != models.KindProvider {
		t.Fatalf("provider fault not recorded: %+v", pos.Faults)
	}
	if pos.FinalDecision == "" {
		t.Fatal("decision stage must still run")
	}
}

func TestAnalyzeNewsFailureDegradesToNeutral(t *testing.T) {
	decision := &stubModel{replies: []string{
		`{"ticker": "NVDA", "buy_price": 0, "quantity": 1}`,
		"HOLD. Not enough information to act.",
	}}
	// Only the risk summary call reaches the quick model: news summarization
	// and sentiment short-circuit on empty input.
	quick := &stubModel{replies: []string{"- some risk."}}
	filings := &stubFilings{chunk: "risks"}

	p := newTestPipeline(t, decision, quick, &stubQuotes{price: 130}, &stubNews{err: errors.New("search down")}, filings)

	pos, err := p.Analyze(context.Background(), "what about NVDA?")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if pos.NewsSummary != "No news found." {
		t.Fatalf("news summary = %q", pos.NewsSummary)
	}
	if pos.SentimentScore != 0 {
		t.Fatalf("sentiment = %v, want neutral 0", pos.SentimentScore)
	}
}

func TestAnalyzeDecisionModelFailure(t *testing.T) {
	// First reply feeds the parser; then the decider's call fails.
	decision := &stubModel{replies: []string{
		`{"ticker": "NVDA", "buy_price": 120, "quantity": 50}`,
	}}
	quick := &stubModel{replies: []string{"- news.", "0.1", "- risk."}}
	filings := &stubFilings{chunk: "risks"}

	p := newTestPipeline(t, decision, quick, &stubQuotes{price: 130}, &stubNews{block: "- raw"}, filings)

	pos, err := p.Analyze(context.Background(), "I bought 50 shares of NVDA at $120")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if models.ParseAction(pos.FinalDecision) != models.ActionHold {
		t.Fatalf("degraded decision should parse as HOLD: %q", pos.FinalDecision)
	}
	found := false
	for _, f := range pos.Faults {
		if f.Op == "decision.synthesize" {
			found = true
		}
	}
	if !found {
		t.Fatalf("decision fault not recorded: %+v", pos.Faults)
	}
}
