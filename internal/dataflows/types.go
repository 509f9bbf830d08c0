package dataflows

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoQuote marks an empty price history for a symbol, as opposed to a
// provider failure.
var ErrNoQuote = errors.New("no quote history available")

// Bar is one daily OHLCV row from the quote provider.
type Bar struct {
	Symbol string          `json:"symbol"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Snippet is one raw web-search result before filtering.
type Snippet struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
