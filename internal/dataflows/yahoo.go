package dataflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"marketsense/internal/models"
)

// defaultWatchlist backs the movers sidebar when the caller does not search
// for a specific symbol.
var defaultWatchlist = []string{"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "TSLA", "META"}

// YahooClient fetches prices and history from Yahoo Finance. Single attempt
// per call; the pipeline owns the degrade decision.
type YahooClient struct{}

func NewYahooClient() *YahooClient {
	return &YahooClient{}
}

// LastClose returns the most recent daily close for symbol, rounded to two
// decimal places. ErrNoQuote when the history window is empty.
func (c *YahooClient) LastClose(ctx context.Context, symbol string) (float64, error) {
	bars, err := c.History(ctx, symbol, 5)
	if err != nil {
		return 0, models.Provider("market.last_close", err)
	}
	if len(bars) == 0 {
		return 0, models.Provider("market.last_close", ErrNoQuote)
	}
	last := bars[len(bars)-1].Close.Round(2)
	price, _ := last.Float64()
	return price, nil
}

// History returns up to days of trailing daily bars, oldest first.
func (c *YahooClient) History(ctx context.Context, symbol string, days int) ([]Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	var bars []Bar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, Bar{
			Symbol: symbol,
			Date:   time.Unix(int64(b.Timestamp), 0),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}
	return bars, nil
}

// TrailingCloses returns the close series for the sparkline path.
func (c *YahooClient) TrailingCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	bars, err := c.History(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		v, _ := b.Close.Float64()
		closes = append(closes, v)
	}
	return closes, nil
}

// TopMovers snapshots the default watchlist for the display sidebar.
func (c *YahooClient) TopMovers(ctx context.Context) ([]models.Mover, error) {
	return c.movers(ctx, defaultWatchlist)
}

// Mover looks up a single symbol for the sidebar search box.
func (c *YahooClient) Mover(ctx context.Context, symbol string) (*models.Mover, error) {
	movers, err := c.movers(ctx, []string{strings.ToUpper(strings.TrimSpace(symbol))})
	if err != nil {
		return nil, err
	}
	if len(movers) == 0 {
		return nil, ErrNoQuote
	}
	return &movers[0], nil
}

func (c *YahooClient) movers(ctx context.Context, symbols []string) ([]models.Mover, error) {
	iter := quote.List(symbols)

	var movers []models.Mover
	for iter.Next() {
		q := iter.Quote()
		price, _ := decimal.NewFromFloat(q.RegularMarketPrice).Round(2).Float64()
		m := models.Mover{
			Ticker:    q.Symbol,
			Name:      q.ShortName,
			Price:     price,
			ChangePct: q.RegularMarketChangePercent,
		}
		if closes, err := c.TrailingCloses(ctx, q.Symbol, 7); err == nil {
			m.Sparkline = closes
		}
		movers = append(movers, m)
	}
	if err := iter.Err(); err != nil {
		return nil, models.Provider("market.movers", err)
	}
	return movers, nil
}
