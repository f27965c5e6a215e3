package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"vardrill/domain/spc"
	"vardrill/internal/variation"
)

var (
	colorAccent   = lipgloss.Color("#20B9B4")
	colorHigh     = lipgloss.Color("#E74C3C")
	colorModerate = lipgloss.Color("#F4D03F")
	colorMuted    = lipgloss.Color("#6B7C85")
)

var styles = struct {
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Error    lipgloss.Style
	High     lipgloss.Style
	Moderate lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Muted:    lipgloss.NewStyle().Foreground(colorMuted),
	Accent:   lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
	Error:    lipgloss.NewStyle().Foreground(colorHigh).Bold(true),
	High:     lipgloss.NewStyle().Foreground(colorHigh).Bold(true),
	Moderate: lipgloss.NewStyle().Foreground(colorModerate),
}

// impactStyle colours an impact level.
func impactStyle(level variation.ImpactLevel) lipgloss.Style {
	switch level {
	case variation.ImpactHigh:
		return styles.High
	case variation.ImpactModerate:
		return styles.Moderate
	default:
		return styles.Muted
	}
}

// bar renders pct (0-100) as a fixed-width bar.
func bar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct/100*float64(width) + 0.5)
	return styles.Accent.Render(strings.Repeat("█", filled)) + styles.Muted.Render(strings.Repeat("░", width-filled))
}

func title(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, styles.Title.Render(fmt.Sprintf(format, args...)))
}

func optionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

func statsRow(name string, st spc.StatsResult) []string {
	return []string{
		name,
		fmt.Sprint(st.Count),
		fmt.Sprintf("%.3f", st.Mean),
		fmt.Sprintf("%.3f", st.StdDev),
		fmt.Sprintf("%.3f", st.LCL),
		fmt.Sprintf("%.3f", st.UCL),
		optionalFloat(st.Cpk),
	}
}
