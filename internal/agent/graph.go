// Package agent wires the five analysis stages into a fixed sequential
// pipeline over an eino compose graph. Each stage receives the accumulated
// Position, merges its partial update into it, and hands it on; gateway
// failures degrade to neutral defaults here rather than aborting the run.
package agent

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"

	"marketsense/internal/llm"
	"marketsense/internal/logger"
	"marketsense/internal/models"
)

// Graph node keys, in execution order.
const (
	nodeParse  = "parse"
	nodeMarket = "market"
	nodeNews   = "news"
	nodeRisk   = "risk"
	nodeDecide = "decide"
)

// riskQuery is the fixed similarity query against the filing index.
const riskQuery = "market risks competition regulation"

// QuoteProvider is the market data gateway consumed by the market stage.
type QuoteProvider interface {
	LastClose(ctx context.Context, symbol string) (float64, error)
}

// NewsProvider is the web-search gateway consumed by the news stage.
type NewsProvider interface {
	FinancialNews(ctx context.Context, ticker string) (string, error)
}

// FilingIndex is the retrieval store consumed by the risk stage.
type FilingIndex interface {
	EnsureIndexed(ctx context.Context, ticker string) error
	Query(ctx context.Context, ticker, query string) (string, error)
}

// Pipeline executes parse → market → news → risk → decide strictly in order.
// No stage runs concurrently with another and no stage is retried.
type Pipeline struct {
	quotes  QuoteProvider
	news    NewsProvider
	filings FilingIndex
	parser  *IntentParser
	analyst *Summarizer
	decider *Decider

	run compose.Runnable[*models.Position, *models.Position]
}

func NewPipeline(ctx context.Context, mdl *llm.Models, quotes QuoteProvider, news NewsProvider, filings FilingIndex) (*Pipeline, error) {
	p := &Pipeline{
		quotes:  quotes,
		news:    news,
		filings: filings,
		parser:  NewIntentParser(mdl.Decision),
		analyst: NewSummarizer(mdl.Quick),
		decider: NewDecider(mdl.Decision),
	}

	g := compose.NewGraph[*models.Position, *models.Position]()

	_ = g.AddLambdaNode(nodeParse, compose.InvokableLambda(p.parseStage))
	_ = g.AddLambdaNode(nodeMarket, compose.InvokableLambda(p.marketStage))
	_ = g.AddLambdaNode(nodeNews, compose.InvokableLambda(p.newsStage))
	_ = g.AddLambdaNode(nodeRisk, compose.InvokableLambda(p.riskStage))
	_ = g.AddLambdaNode(nodeDecide, compose.InvokableLambda(p.decideStage))

	_ = g.AddEdge(compose.START, nodeParse)
	_ = g.AddEdge(nodeParse, nodeMarket)
	_ = g.AddEdge(nodeMarket, nodeNews)
	_ = g.AddEdge(nodeNews, nodeRisk)
	_ = g.AddEdge(nodeRisk, nodeDecide)
	_ = g.AddEdge(nodeDecide, compose.END)

	run, err := g.Compile(ctx, compose.WithGraphName("marketsense-pipeline"))
	if err != nil {
		return nil, err
	}
	p.run = run
	return p, nil
}

// Analyze runs the full pipeline for one free-text position description.
// An empty query is rejected before any external call.
func (p *Pipeline) Analyze(ctx context.Context, query string) (*models.Position, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.Validationf("pipeline.analyze", "empty position description")
	}

	ctx, span := logger.StartSpan(ctx, "pipeline.analyze")
	defer span.End()

	return p.run.Invoke(ctx, models.NewPosition(query))
}

func (p *Pipeline) parseStage(ctx context.Context, pos *models.Position) (*models.Position, error) {
	ctx, span := logger.StartSpan(ctx, "stage.parse")
	defer span.End()

	parsed, fault := p.parser.Parse(ctx, pos.UserQuery)
	if fault != nil {
		pos.AddFault(*fault)
		logger.Warn(ctx, "intent parse degraded", "kind", fault.Kind.String(), "error", fault.Err)
	}
	pos.Ticker = parsed.Ticker
	pos.EntryPrice = parsed.BuyPrice
	pos.Quantity = parsed.Quantity

	logger.Info(ctx, "position parsed", "ticker", pos.Ticker, "entry", pos.EntryPrice, "qty", pos.Quantity)
	return pos, nil
}

func (p *Pipeline) marketStage(ctx context.Context, pos *models.Position) (*models.Position, error) {
	ctx, span := logger.StartSpan(ctx, "stage.market")
	defer span.End()

	price, err := p.quotes.LastClose(ctx, pos.Ticker)
	if err != nil {
		fault := models.AsFault("market.last_close", err)
		pos.AddFault(*fault)
		pos.PriceKnown = false
		logger.Warn(ctx, "price fetch degraded", "ticker", pos.Ticker, "error", err)
	} else {
		pos.Price = price
		pos.PriceKnown = true
	}

	pos.ComputePnL()
	logger.Info(ctx, "market data fetched", "ticker", pos.Ticker, "price_known", pos.PriceKnown, "pnl", pos.PnL)
	return pos, nil
}

func (p *Pipeline) newsStage(ctx context.Context, pos *models.Position) (*models.Position, error) {
	ctx, span := logger.StartSpan(ctx, "stage.news")
	defer span.End()

	raw, err := p.news.FinancialNews(ctx, pos.Ticker)
	if err != nil {
		pos.AddFault(*models.AsFault("news.search", err))
		logger.Warn(ctx, "news fetch degraded", "ticker", pos.Ticker, "error", err)
		raw = ""
	}

	summary, fault := p.analyst.SummarizeNews(ctx, raw)
	if fault != nil {
		pos.AddFault(*fault)
		logger.Warn(ctx, "news summary degraded", "error", fault.Err)
	}
	pos.NewsSummary = summary

	score, fault := p.analyst.Sentiment(ctx, summary)
	if fault != nil {
		pos.AddFault(*fault)
		logger.Warn(ctx, "sentiment degraded to neutral", "error", fault.Err)
	}
	pos.SentimentScore = score

	logger.Info(ctx, "news analyzed", "ticker", pos.Ticker, "sentiment", score)
	return pos, nil
}

func (p *Pipeline) riskStage(ctx context.Context, pos *models.Position) (*models.Position, error) {
	ctx, span := logger.StartSpan(ctx, "stage.risk")
	defer span.End()

	raw := ""
	if err := p.filings.EnsureIndexed(ctx, pos.Ticker); err != nil {
		pos.AddFault(*models.AsFault("filing.ensure_indexed", err))
		logger.Warn(ctx, "filing indexing degraded", "ticker", pos.Ticker, "error", err)
	} else {
		var err error
		raw, err = p.filings.Query(ctx, pos.Ticker, riskQuery)
		if err != nil {
			pos.AddFault(*models.AsFault("filing.query", err))
			logger.Warn(ctx, "filing query degraded", "ticker", pos.Ticker, "error", err)
			raw = ""
		}
	}

	summary, fault := p.analyst.SummarizeRisks(ctx, raw)
	if fault != nil {
		pos.AddFault(*fault)
		logger.Warn(ctx, "risk summary degraded", "error", fault.Err)
	}
	pos.RiskSummary = summary

	logger.Info(ctx, "filing risks analyzed", "ticker", pos.Ticker)
	return pos, nil
}

func (p *Pipeline) decideStage(ctx context.Context, pos *models.Position) (*models.Position, error) {
	ctx, span := logger.StartSpan(ctx, "stage.decide")
	defer span.End()

	decision, fault := p.decider.Decide(ctx, pos)
	if fault != nil {
		pos.AddFault(*fault)
		logger.Warn(ctx, "decision degraded", "error", fault.Err)
	}
	pos.FinalDecision = decision

	logger.Info(ctx, "decision made", "ticker", pos.Ticker, "action", models.ParseAction(decision))
	return pos, nil
}
