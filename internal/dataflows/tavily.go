package dataflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"marketsense/internal/models"
)

const (
	tavilyBaseURL = "https://api.tavily.com"

	// minSnippetLen drops teaser fragments that carry no real news.
	minSnippetLen = 40
	// maxKeptSnippets caps the joined block handed to the summarizer.
	maxKeptSnippets = 3
)

// blacklistTerms mark boilerplate scraped from paywalls and nav chrome.
var blacklistTerms = []string{
	"subscribe",
	"sign in",
	"log in",
	"newsletter",
	"cookie",
	"join pro",
}

// TavilyClient issues web-search queries against the Tavily REST API.
type TavilyClient struct {
	client     *resty.Client
	apiKey     string
	maxResults int
}

func NewTavilyClient(apiKey string, maxResults int) *TavilyClient {
	client := resty.New()
	client.SetBaseURL(tavilyBaseURL)
	client.SetTimeout(30 * time.Second)

	return &TavilyClient{
		client:     client,
		apiKey:     apiKey,
		maxResults: maxResults,
	}
}

// SetBaseURL points the client at a different endpoint. Used by tests.
func (t *TavilyClient) SetBaseURL(url string) {
	t.client.SetBaseURL(url)
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []Snippet `json:"results"`
}

// FinancialNews searches for recent news about ticker and returns the
// filtered snippets joined as a bullet block. One request, no retry.
func (t *TavilyClient) FinancialNews(ctx context.Context, ticker string) (string, error) {
	query := fmt.Sprintf("%s stock financial news today", strings.ToUpper(ticker))

	var parsed tavilyResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(tavilyRequest{
			APIKey:      t.apiKey,
			Query:       query,
			MaxResults:  t.maxResults,
			SearchDepth: "basic",
		}).
		SetResult(&parsed).
		Post("/search")
	if err != nil {
		return "", models.Provider("news.search", err)
	}
	if resp.StatusCode() != 200 {
		return "", models.Provider("news.search", fmt.Errorf("tavily http %d", resp.StatusCode()))
	}

	return JoinSnippets(FilterSnippets(parsed.Results)), nil
}

// FilterSnippets drops low-signal candidates: too short, boilerplate terms,
// or table-separator characters that mark scraped price grids.
func FilterSnippets(candidates []Snippet) []Snippet {
	var kept []Snippet
	for _, s := range candidates {
		content := strings.TrimSpace(s.Content)
		if len(content) < minSnippetLen {
			continue
		}
		if strings.Contains(content, "|") {
			continue
		}
		lower := strings.ToLower(content)
		blacklisted := false
		for _, term := range blacklistTerms {
			if strings.Contains(lower, term) {
				blacklisted = true
				break
			}
		}
		if blacklisted {
			continue
		}
		kept = append(kept, s)
		if len(kept) == maxKeptSnippets {
			break
		}
	}
	return kept
}

// JoinSnippets renders surviving snippets as one delimited block.
func JoinSnippets(snippets []Snippet) string {
	lines := make([]string, 0, len(snippets))
	for _, s := range snippets {
		lines = append(lines, "- "+strings.TrimSpace(s.Content))
	}
	return strings.Join(lines, "\n")
}
