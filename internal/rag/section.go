package rag

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// riskWindowSize is the extraction window after the located heading. Annual
// filings front-load the heading in the table of contents, so the last
// occurrence is the section body.
const riskWindowSize = 15000

var riskHeadingPattern = regexp.MustCompile(`(?i)Item\s+1A\.?\s+Risk\s+Factors`)

// StripMarkup flattens an HTML filing into whitespace-normalized plain text.
// Non-HTML input passes through with the same normalization.
func StripMarkup(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// ExtractRiskSection locates the risk-factor disclosure in clean filing text
// and returns the window following it. Preference order: last heading match,
// then the only match, then a quarter-length offset into the document. The
// heuristic is best-effort, not a filing parser.
func ExtractRiskSection(clean string) string {
	matches := riskHeadingPattern.FindAllStringIndex(clean, -1)

	var start int
	if len(matches) > 0 {
		start = matches[len(matches)-1][0]
	} else {
		start = len(clean) / 4
	}

	end := start + riskWindowSize
	if end > len(clean) {
		end = len(clean)
	}
	return clean[start:end]
}
