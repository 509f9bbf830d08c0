package agent

import (
	"context"
	"strconv"
	"strings"

	"marketsense/internal/llm"
	"marketsense/internal/models"
	"marketsense/internal/rag"
)

const (
	noNewsSummary  = "No news found."
	noRisksSummary = "No specific risks identified from the 10-K."

	// maxRiskInputChars caps raw retrieval text fed to the summarizer prompt.
	maxRiskInputChars = 20000
)

const sentimentSystemPrompt = `You are a cynical financial analyst. Analyze the provided news snippets.

CRITICAL RULES:
1. If the news is generic updates or marketing fluff, score it 0.0 (Neutral).
2. Only give high positive scores (> 0.5) for CONCRETE hard data (record earnings, major new contract).
3. Look for hidden negatives (delays, missed expectations, regulatory issues).

Return ONLY a floating point number between -1.0 (Negative) and 1.0 (Positive).`

const newsSummarySystemPrompt = `You are a financial news editor. Read raw news snippets (which may contain web scraping garbage) and summarize the key facts.

Instructions:
1. Extract the top 3 most important financial updates (earnings, M&A, product launches, stock moves).
2. Remove all marketing fluff ("Join Pro", "Subscribe", "Login").
3. Format as a clean Markdown list of bullet points.
4. Keep it concise, one sentence per bullet.`

const riskSummarySystemPrompt = `You are a risk analyst reading an SEC 10-K filing. Read the raw "Risk Factors" text.

Instructions:
1. Identify the top 3 SPECIFIC risks to this company (e.g. "Supply chain dependence on Taiwan", "Antitrust investigation").
2. Ignore generic boilerplate risks ("Stock price may fluctuate", "General economic conditions").
3. Format as a clean Markdown list.
4. Be extremely concise.`

// Summarizer wraps the quick model's three single-shot text operations.
// Stateless; repeated calls with identical input are not byte-stable.
type Summarizer struct {
	model llm.ChatModel
}

func NewSummarizer(model llm.ChatModel) *Summarizer {
	return &Summarizer{model: model}
}

// Sentiment scores news text in [-1.0, 1.0]. Empty input and unparseable
// model replies both come back as neutral 0.0; only the latter carries a
// fault.
func (s *Summarizer) Sentiment(ctx context.Context, newsText string) (float64, *models.Fault) {
	if strings.TrimSpace(newsText) == "" || newsText == noNewsSummary {
		return 0, nil
	}

	reply, err := llm.Complete(ctx, s.model, sentimentSystemPrompt, "NEWS: "+newsText)
	if err != nil {
		return 0, models.Provider("sentiment.score", err)
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, models.Malformed("sentiment.score", err)
	}

	if score > 1.0 {
		score = 1.0
	} else if score < -1.0 {
		score = -1.0
	}
	return score, nil
}

// SummarizeNews renders raw snippets as clean bullets.
func (s *Summarizer) SummarizeNews(ctx context.Context, raw string) (string, *models.Fault) {
	if strings.TrimSpace(raw) == "" {
		return noNewsSummary, nil
	}

	reply, err := llm.Complete(ctx, s.model, newsSummarySystemPrompt, "RAW TEXT:\n"+raw)
	if err != nil {
		return noNewsSummary, models.Provider("news.summarize", err)
	}
	return reply, nil
}

// SummarizeRisks renders retrieved risk-factor text as clean bullets. The
// not-indexed sentinel and empty input short-circuit without a model call.
func (s *Summarizer) SummarizeRisks(ctx context.Context, raw string) (string, *models.Fault) {
	if strings.TrimSpace(raw) == "" || strings.Contains(raw, rag.NotIndexedSentinel) {
		return noRisksSummary, nil
	}

	if len(raw) > maxRiskInputChars {
		raw = raw[:maxRiskInputChars]
	}

	reply, err := llm.Complete(ctx, s.model, riskSummarySystemPrompt, "RAW TEXT:\n"+raw)
	if err != nil {
		return noRisksSummary, models.Provider("risk.summarize", err)
	}
	return reply, nil
}
