// Package rag downloads annual filings, extracts their risk-factor text and
// serves similarity queries against a per-ticker on-disk vector index.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	edgarWWWBaseURL  = "https://www.sec.gov"
	edgarDataBaseURL = "https://data.sec.gov"
)

// EdgarClient downloads filings from SEC EDGAR. EDGAR requires a descriptive
// User-Agent identifying the caller.
type EdgarClient struct {
	www  *resty.Client
	data *resty.Client
}

func NewEdgarClient(userAgent string) *EdgarClient {
	newClient := func(base string) *resty.Client {
		c := resty.New()
		c.SetBaseURL(base)
		c.SetTimeout(60 * time.Second)
		c.SetHeader("User-Agent", userAgent)
		return c
	}
	return &EdgarClient{
		www:  newClient(edgarWWWBaseURL),
		data: newClient(edgarDataBaseURL),
	}
}

// SetBaseURLs points both clients at a different host. Used by tests.
func (e *EdgarClient) SetBaseURLs(www, data string) {
	e.www.SetBaseURL(www)
	e.data.SetBaseURL(data)
}

type companyRecord struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

type submissions struct {
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// Latest10K downloads the primary document of the most recent annual filing
// for ticker and returns its raw (usually HTML) content.
func (e *EdgarClient) Latest10K(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	cik, err := e.cikForTicker(ctx, ticker)
	if err != nil {
		return "", err
	}

	var subs submissions
	resp, err := e.data.R().
		SetContext(ctx).
		SetResult(&subs).
		Get(fmt.Sprintf("/submissions/CIK%010d.json", cik))
	if err != nil {
		return "", fmt.Errorf("fetch submissions for %s: %w", ticker, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("fetch submissions for %s: http %d", ticker, resp.StatusCode())
	}

	recent := subs.Filings.Recent
	for i, form := range recent.Form {
		if form != "10-K" {
			continue
		}
		if i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) {
			break
		}
		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		docPath := fmt.Sprintf("/Archives/edgar/data/%d/%s/%s", cik, accession, recent.PrimaryDocument[i])

		doc, err := e.www.R().SetContext(ctx).Get(docPath)
		if err != nil {
			return "", fmt.Errorf("download 10-K for %s: %w", ticker, err)
		}
		if doc.StatusCode() != 200 {
			return "", fmt.Errorf("download 10-K for %s: http %d", ticker, doc.StatusCode())
		}
		return doc.String(), nil
	}

	return "", fmt.Errorf("no 10-K filing found for %s", ticker)
}

func (e *EdgarClient) cikForTicker(ctx context.Context, ticker string) (int, error) {
	var companies map[string]companyRecord
	resp, err := e.www.R().
		SetContext(ctx).
		SetResult(&companies).
		Get("/files/company_tickers.json")
	if err != nil {
		return 0, fmt.Errorf("fetch company tickers: %w", err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("fetch company tickers: http %d", resp.StatusCode())
	}

	for _, rec := range companies {
		if strings.EqualFold(rec.Ticker, ticker) {
			return rec.CIK, nil
		}
	}
	return 0, fmt.Errorf("ticker %s not found in EDGAR company index", ticker)
}
