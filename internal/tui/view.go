package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"magnate/internal/corp"
)

func (m Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}
	t := defaultTheme

	page := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height - 1).
		Background(t.Base)

	help := lipgloss.NewStyle().
		Foreground(t.Muted).
		Render("  q quit · r refresh · arrows scroll")

	return page.Render(m.viewport.View()) + "\n" + help
}

func (m *Model) rebuildContent() {
	pad := lipgloss.NewStyle().Padding(0, 2)

	blocks := []string{
		"",
		pad.Render(m.viewHero()),
		"",
		pad.Render(m.viewLedger()),
		"",
		pad.Render(m.viewSubsidiaries()),
		"",
		pad.Render(m.viewMarket()),
	}
	m.viewport.SetContent(strings.Join(blocks, "\n"))
}

func (m Model) viewHero() string {
	t := defaultTheme

	if m.dash == nil {
		if m.fetchErr != nil {
			return lipgloss.NewStyle().
				Foreground(t.Error).
				Render(fmt.Sprintf("Cannot reach API: %v", m.fetchErr))
		}
		return lipgloss.NewStyle().Foreground(t.Muted).Render("Fetching company...")
	}

	c := m.dash.Company
	name := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render(c.Name)

	listing := "private"
	if c.IsPublic {
		listing = "public"
	}
	sub := lipgloss.NewStyle().Foreground(t.Muted).
		Render(fmt.Sprintf("%s · rating %s", listing, m.dash.Credit.Rating.Label))

	changeColor := t.Success
	changeSign := "+"
	if c.DailyChangePct < 0 {
		changeColor = t.Error
		changeSign = ""
	}
	change := lipgloss.NewStyle().Foreground(changeColor).
		Render(fmt.Sprintf("%s%.2f%%", changeSign, c.DailyChangePct))

	rows := []string{
		name + "  " + sub,
		"",
		statRow("Valuation", coins(c.ValuationMicros), t.Text),
		statRow("Share price", coins(c.SharePriceMicros)+"  "+change, t.Text),
		statRow("Capital", coins(c.CapitalMicros), t.Text),
		statRow("Debt", coins(c.DebtMicros), pickColor(c.DebtMicros <= 0, t.Text, t.Warning)),
		statRow("Annual profit", coins(c.AnnualProfitMicros), pickColor(c.AnnualProfitMicros >= 0, t.Success, t.Error)),
		statRow("Your stake", fmt.Sprintf("%.2f%%", c.OwnershipPct), pickColor(c.OwnershipPct > 50, t.Success, t.Warning)),
		statRow("Your cash", coins(m.dash.CashMicros), t.Info),
		statRow("Reputation", fmt.Sprintf("%d", m.dash.Reputation), t.Text),
	}
	if m.dash.Credit.BondRatePct != nil {
		rows = append(rows, statRow("Bond rate", fmt.Sprintf("%.1f%%", *m.dash.Credit.BondRatePct), t.Info))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) viewLedger() string {
	t := defaultTheme
	if m.dash == nil || len(m.dash.Shareholders) == 0 {
		return ""
	}

	lines := []string{sectionTitle("Ownership"), ""}
	for _, h := range m.dash.Shareholders {
		bar := stakeBar(h.Percentage, 30, t)
		nameColor := t.Text
		if h.Kind == corp.KindPlayer {
			nameColor = t.Accent
		} else if h.IsFloat {
			nameColor = t.Muted
		}
		name := lipgloss.NewStyle().Foreground(nameColor).Width(22).Render(truncate(h.Name, 21))
		pct := lipgloss.NewStyle().Foreground(t.Text).Width(8).Render(fmt.Sprintf("%6.2f%%", h.Percentage))
		rel := ""
		if h.Kind == corp.KindNPC && !h.IsFloat {
			rel = lipgloss.NewStyle().Foreground(relColor(h.Relationship, t)).
				Render(fmt.Sprintf("  rel %d", h.Relationship))
		}
		lines = append(lines, name+pct+"  "+bar+rel)
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewSubsidiaries() string {
	t := defaultTheme
	if m.dash == nil {
		return ""
	}
	lines := []string{sectionTitle("Subsidiaries"), ""}
	if len(m.dash.Subsidiaries) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Muted).Render("none yet"))
		return strings.Join(lines, "\n")
	}
	for _, s := range m.dash.Subsidiaries {
		profitColor := t.Success
		if s.IsLossMaking() {
			profitColor = t.Error
		}
		name := lipgloss.NewStyle().Foreground(t.Text).Width(24).Render(truncate(s.Name, 23))
		profit := lipgloss.NewStyle().Foreground(profitColor).
			Render(fmt.Sprintf("%s/yr", coins(s.CurrentProfitMicros)))
		health := lipgloss.NewStyle().Foreground(pickColor(!s.IsLossMaking(), t.Success, t.Warning)).
			Render("  " + s.Health)
		lines = append(lines, name+profit+health)
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewMarket() string {
	t := defaultTheme
	if len(m.targets) == 0 {
		return ""
	}
	lines := []string{sectionTitle("On the market"), ""}
	for _, tg := range m.targets {
		name := lipgloss.NewStyle().Foreground(t.Text).Width(24).Render(truncate(tg.Name, 23))
		cap := lipgloss.NewStyle().Foreground(t.Info).Width(14).Render(coins(tg.MarketCapMicros))
		meta := lipgloss.NewStyle().Foreground(t.Muted).
			Render(fmt.Sprintf("%s · synergy %.0f · board %s", tg.Category, tg.Synergy, tg.Sentiment))
		lines = append(lines, name+cap+meta)
	}
	return strings.Join(lines, "\n")
}

func sectionTitle(s string) string {
	t := defaultTheme
	return lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render(s)
}

func statRow(label, value string, color lipgloss.Color) string {
	t := defaultTheme
	l := lipgloss.NewStyle().Foreground(t.Muted).Width(15).Render(label)
	v := lipgloss.NewStyle().Foreground(color).Render(value)
	return l + v
}

// stakeBar renders a fixed-width fill proportional to a 0-100 stake.
func stakeBar(pct float64, width int, t theme) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return lipgloss.NewStyle().Foreground(t.Primary).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("░", width-filled))
}

func relColor(rel int, t theme) lipgloss.Color {
	switch {
	case rel >= 80:
		return t.Success
	case rel >= 30:
		return t.Warning
	default:
		return t.Error
	}
}

func pickColor(ok bool, yes, no lipgloss.Color) lipgloss.Color {
	if ok {
		return yes
	}
	return no
}

func coins(micros int64) string {
	v := float64(micros) / float64(corp.MicrosPerCoin)
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)
	n := len(s)
	if n > 3 {
		var b strings.Builder
		offset := n % 3
		if offset > 0 {
			b.WriteString(s[:offset])
		}
		for i := offset; i < n; i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
