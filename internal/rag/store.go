package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/philippgille/chromem-go"

	"marketsense/internal/logger"
	"marketsense/internal/models"
)

// NotIndexedSentinel is returned by Query for tickers that were never
// indexed. It is content, not an error: the summarizer downstream knows to
// treat it as "nothing to summarize".
const NotIndexedSentinel = "No 10-K indexed yet."

const (
	collectionName  = "risk-factors"
	topK            = 3
	evictAttempts   = 3
	evictRetryDelay = 500 * time.Millisecond
)

// FilingFetcher supplies the raw filing document. Satisfied by *EdgarClient;
// tests substitute a stub.
type FilingFetcher interface {
	Latest10K(ctx context.Context, ticker string) (string, error)
}

// Store keeps one persistent vector index per ticker under baseDir. Index
// directories are created on first retrieval and never invalidated; Evict is
// the manual operator path. The store assumes exclusive single-process
// access.
type Store struct {
	baseDir string
	fetcher FilingFetcher
	embed   chromem.EmbeddingFunc
}

func NewStore(baseDir string, fetcher FilingFetcher, embed chromem.EmbeddingFunc) *Store {
	return &Store{
		baseDir: baseDir,
		fetcher: fetcher,
		embed:   embed,
	}
}

func (s *Store) indexDir(ticker string) string {
	return filepath.Join(s.baseDir, "index_"+strings.ToUpper(strings.TrimSpace(ticker)))
}

// Indexed reports whether a non-empty index exists for ticker. A cheap
// existence test is the whole cache check.
func (s *Store) Indexed(ticker string) bool {
	entries, err := os.ReadDir(s.indexDir(ticker))
	return err == nil && len(entries) > 0
}

// EnsureIndexed makes the ticker's risk-factor index available: cache hit
// returns immediately, otherwise stale artifacts are purged, the latest 10-K
// is downloaded, its risk section extracted, embedded as one chunk and
// persisted. Calling it twice in a row downloads once.
func (s *Store) EnsureIndexed(ctx context.Context, ticker string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" || ticker == models.UnknownTicker {
		return models.Validationf("filing.ensure_indexed", "no usable ticker")
	}

	if s.Indexed(ticker) {
		logger.Debug(ctx, "filing index cache hit", "ticker", ticker)
		return nil
	}

	// Purge partial artifacts from an earlier failed run. Failure to purge is
	// logged and ignored; indexing below will surface anything fatal.
	if err := s.Evict(ticker); err != nil {
		logger.Warn(ctx, "stale index eviction failed", "ticker", ticker, "error", err)
	}

	logger.Info(ctx, "downloading 10-K", "ticker", ticker)
	raw, err := s.fetcher.Latest10K(ctx, ticker)
	if err != nil {
		return models.Provider("filing.download", err)
	}

	window := ExtractRiskSection(StripMarkup(raw))
	if strings.TrimSpace(window) == "" {
		return models.Malformed("filing.extract", fmt.Errorf("filing for %s produced no text", ticker))
	}

	db, err := chromem.NewPersistentDB(s.indexDir(ticker), false)
	if err != nil {
		return models.Filesystem("filing.index", err)
	}
	collection, err := db.GetOrCreateCollection(collectionName, map[string]string{"ticker": ticker}, s.embed)
	if err != nil {
		return models.Filesystem("filing.index", err)
	}

	doc := chromem.Document{
		ID:      ticker,
		Content: window,
		Metadata: map[string]string{
			"source": "10-K",
			"ticker": ticker,
		},
	}
	if err := collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return models.Provider("filing.embed", err)
	}

	logger.Info(ctx, "10-K risk section indexed", "ticker", ticker, "chars", len(window))
	return nil
}

// Query embeds the query text and returns the top-k most similar stored
// chunks joined with blank lines. A never-indexed ticker yields the
// NotIndexedSentinel, not an error.
func (s *Store) Query(ctx context.Context, ticker, query string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !s.Indexed(ticker) {
		return NotIndexedSentinel, nil
	}

	db, err := chromem.NewPersistentDB(s.indexDir(ticker), false)
	if err != nil {
		return "", models.Filesystem("filing.query", err)
	}
	collection, err := db.GetOrCreateCollection(collectionName, map[string]string{"ticker": ticker}, s.embed)
	if err != nil {
		return "", models.Filesystem("filing.query", err)
	}

	k := topK
	if n := collection.Count(); n < k {
		k = n
	}
	if k == 0 {
		return NotIndexedSentinel, nil
	}

	results, err := collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return "", models.Provider("filing.query", err)
	}

	chunks := make([]string, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, r.Content)
	}
	return strings.Join(chunks, "\n\n"), nil
}

// Evict removes the ticker's index directory if present. Deletion is retried
// a capped number of times with a fixed delay to ride out transient file
// locks, then gives up with a filesystem fault.
func (s *Store) Evict(ticker string) error {
	dir := s.indexDir(ticker)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < evictAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(evictRetryDelay)
		}
		if lastErr = os.RemoveAll(dir); lastErr == nil {
			return nil
		}
	}
	return models.Filesystem("filing.evict", lastErr)
}
