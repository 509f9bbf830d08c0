package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"marketsense/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	sellStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	buyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	holdStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))

	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 2).
			Width(76)
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// RenderAnalysis renders the fully populated position as a terminal card.
func RenderAnalysis(pos *models.Position) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Analysis for %s", pos.Ticker)))
	b.WriteString("\n\n")

	price := "unavailable"
	if pos.PriceKnown {
		price = fmt.Sprintf("$%.2f", pos.Price)
	}
	b.WriteString(labelStyle.Render("Price     ") + price + "\n")

	pnl := fmt.Sprintf("$%.2f (%.2f%%)", pos.PnL, pos.PctGain())
	if pos.PnL >= 0 {
		pnl = positiveStyle.Render(pnl)
	} else {
		pnl = negativeStyle.Render(pnl)
	}
	b.WriteString(labelStyle.Render("P&L       ") + pnl + "\n")
	b.WriteString(labelStyle.Render("Sentiment ") + fmt.Sprintf("%.2f / 1.0", pos.SentimentScore) + "\n\n")

	action := models.ParseAction(pos.FinalDecision)
	var styled string
	switch action {
	case models.ActionSell:
		styled = sellStyle.Render(action)
	case models.ActionBuy:
		styled = buyStyle.Render(action)
	default:
		styled = holdStyle.Render(action)
	}
	b.WriteString(fmt.Sprintf("The analyst thinks it's better to %s\n", styled))
	b.WriteString(models.Rationale(pos.FinalDecision))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("News") + "\n")
	b.WriteString(pos.NewsSummary)
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render("Risks") + "\n")
	b.WriteString(pos.RiskSummary)

	if len(pos.Faults) > 0 {
		b.WriteString("\n\n")
		notes := make([]string, 0, len(pos.Faults))
		for _, f := range pos.Faults {
			notes = append(notes, fmt.Sprintf("%s (%s)", f.Op, f.Kind))
		}
		b.WriteString(faintStyle.Render("degraded: " + strings.Join(notes, ", ")))
	}

	return cardStyle.Render(b.String())
}

// RenderMover renders one market watch row with an inline sparkline.
func RenderMover(m models.Mover) string {
	change := fmt.Sprintf("%+.2f%%", m.ChangePct)
	if m.ChangePct >= 0 {
		change = positiveStyle.Render(change)
	} else {
		change = negativeStyle.Render(change)
	}

	name := m.Name
	if len(name) > 20 {
		name = name[:20]
	}

	return fmt.Sprintf("%-6s %-20s %s  $%8.2f  %s",
		headerStyle.Render(m.Ticker), faintStyle.Render(name),
		Sparkline(m.Sparkline), m.Price, change)
}

// Sparkline maps a close series onto block-element runes.
func Sparkline(data []float64) string {
	if len(data) < 2 {
		return strings.Repeat(" ", 8)
	}

	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range data {
		idx := int((v - min) / span * float64(len(sparkRunes)-1))
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
