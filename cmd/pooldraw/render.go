package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/derekprior/pooldraw/internal/draw"
	"github.com/derekprior/pooldraw/internal/fixtures"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func renderMetrics(players []draw.Player, result *fixtures.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Per Player Metrics") + "\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-20s %-10s %7s %5s %5s", "Player", "Pool", "Matches", "Home", "Away")) + "\n")

	for _, p := range players {
		m := result.Metrics[p.ID]
		if m == nil {
			continue
		}
		pool := p.Pool
		if pool == "" {
			pool = "-"
		}
		line := fmt.Sprintf("  %-20s %-10s %7d %5d %5d", p.ID, pool, m.Matches, m.Home, m.Away)
		if len(m.Violations) > 0 {
			line = warnStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func renderStages(stages []fixtures.Stage) string {
	if len(stages) == 0 {
		return "✓ Draw was already balanced\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Balancing") + "\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-10s %-14s %6s %6s %6s %6s", "Pool", "Strategy", "Passes", "Moves", "Before", "After")) + "\n")
	for _, st := range stages {
		line := fmt.Sprintf("  %-10s %-14s %6d %6d %6d %6d", st.Pool, st.Name, st.Passes, st.Moves, st.CostBefore, st.CostAfter)
		if st.Stuck {
			line = warnStyle.Render(line + "  stuck")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
