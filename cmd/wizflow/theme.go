package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Catppuccin Mocha
const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"
	colorSubtext1 lipgloss.Color = "#bac2de"
	colorOverlay1 lipgloss.Color = "#7f849c"
)

var (
	headingStyle = lipgloss.NewStyle().Foreground(colorLavender).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(colorSubtext1)
	dimStyle     = lipgloss.NewStyle().Foreground(colorOverlay1)
	incomeStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	expenseStyle = lipgloss.NewStyle().Foreground(colorRed)
	accentStyle  = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// money formats an amount with two decimals and the currency symbol.
func money(symbol string, v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}

// signed colors an amount by sign.
func signed(symbol string, v float64) string {
	s := money(symbol, v)
	if v < 0 {
		return expenseStyle.Render(s)
	}
	return incomeStyle.Render(s)
}

// table renders rows as left-aligned padded columns under a styled header.
func table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) && lipgloss.Width(c) > widths[i] {
				widths[i] = lipgloss.Width(c)
			}
		}
	}
	var b strings.Builder
	line := func(cells []string, style *lipgloss.Style) {
		for i, c := range cells {
			cell := lipgloss.NewStyle().Width(widths[i]).Render(c)
			if style != nil {
				cell = style.Width(widths[i]).Render(c)
			}
			b.WriteString(cell)
			if i < len(cells)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	line(header, &labelStyle)
	for _, r := range rows {
		line(r, nil)
	}
	return b.String()
}
