// Package report renders a drill analysis as Markdown and HTML.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"vardrill/domain/drill"
	"vardrill/domain/spc"
	"vardrill/internal/session"
)

// Options tune the rendered report.
type Options struct {
	Title    string
	TopN     int    // factors listed in the ranking; 0 lists all
	ShareURL string // optional link back to the drill path
}

// Markdown renders a.
func Markdown(a *session.Analysis, opts Options) string {
	title := opts.Title
	if title == "" {
		title = "Variation report: " + a.Outcome
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	fmt.Fprintf(&b, "Dataset `%s`: %d of %d rows in scope.\n\n", shortVersion(a.DatasetVersion), a.RowsFiltered, a.RowsTotal)
	if opts.ShareURL != "" {
		fmt.Fprintf(&b, "[Open this drill path](%s)\n\n", opts.ShareURL)
	}

	writePath(&b, a)
	writeRanking(&b, a, opts.TopN)
	writeStats(&b, "Outcome statistics", []string{"All rows in scope"}, map[string]spc.StatsResult{"All rows in scope": a.Stats})
	if a.Staged != nil && len(a.Staged.StageOrder) > 0 {
		writeStats(&b, "By stage", a.Staged.StageOrder, a.Staged.PerStage)
	}
	return b.String()
}

// HTML converts Markdown output to an HTML fragment.
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML([]byte(md), p, r)
}

func writePath(b *strings.Builder, a *session.Analysis) {
	b.WriteString("## Drill path\n\n")
	if len(a.Breadcrumbs) <= 1 {
		b.WriteString("No filters applied.\n\n")
		return
	}

	labels := make([]string, 0, len(a.Breadcrumbs))
	for _, c := range a.Breadcrumbs {
		labels = append(labels, escape(c.Label))
	}
	b.WriteString(strings.Join(labels, " → ") + "\n\n")

	if a.Drill == nil {
		b.WriteString("Not enough data to attribute variation along this path.\n\n")
		return
	}
	b.WriteString("| Step | Local η² | Cumulative | Rows |\n|---|---:|---:|---:|\n")
	for _, l := range a.Drill.Levels {
		fmt.Fprintf(b, "| %s | %.1f%% | %.1f%% | %d → %d |\n",
			escape(stepLabel(l)), l.LocalVariationPct, l.CumulativeVariationPct, l.RowsBefore, l.RowsAfter)
	}
	fmt.Fprintf(b, "\n**Impact: %s.** %s\n\n", a.Drill.ImpactLevel, escape(a.Drill.InsightText))
}

func writeRanking(b *strings.Builder, a *session.Analysis, topN int) {
	b.WriteString("## Factor ranking\n\n")
	if len(a.Ranking) == 0 {
		b.WriteString("No factor has enough data for a variance split.\n\n")
		return
	}
	b.WriteString("| Factor | η² |\n|---|---:|\n")
	for i, s := range a.Ranking {
		if topN > 0 && i >= topN {
			break
		}
		marker := ""
		if s.Factor == a.NextFactor {
			marker = " (suggested next)"
		}
		fmt.Fprintf(b, "| %s%s | %.1f%% |\n", escape(s.Factor), marker, s.VariationPct)
	}
	b.WriteString("\n")
}

func writeStats(b *strings.Builder, heading string, order []string, stats map[string]spc.StatsResult) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	b.WriteString("| Group | n | Mean | Std dev | UCL | LCL | Cp | Cpk | Out of spec |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, name := range order {
		s := stats[name]
		fmt.Fprintf(b, "| %s | %d | %.4g | %.4g | %.4g | %.4g | %s | %s | %s |\n",
			escape(name), s.Count, s.Mean, s.StdDev, s.UCL, s.LCL,
			optional(s.Cp, "%.2f"), optional(s.Cpk, "%.2f"), optional(s.OutOfSpecPercentage, "%.1f%%"))
	}
	b.WriteString("\n")

	grades := map[string]int{}
	for _, name := range order {
		for label, n := range stats[name].GradeCounts {
			grades[label] += n
		}
	}
	if len(grades) > 0 {
		labels := make([]string, 0, len(grades))
		for l := range grades {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		parts := make([]string, 0, len(labels))
		for _, l := range labels {
			parts = append(parts, fmt.Sprintf("%s %d", escape(l), grades[l]))
		}
		fmt.Fprintf(b, "Grades: %s\n\n", strings.Join(parts, ", "))
	}
}

func stepLabel(l drill.DrillLevelResult) string {
	return l.Factor + " = " + strings.Join(drill.Keys(l.Values), ", ")
}

func optional(v *float64, format string) string {
	if v == nil {
		return "–"
	}
	return fmt.Sprintf(format, *v)
}

func shortVersion(v string) string {
	if len(v) > 12 {
		return v[:12]
	}
	return v
}

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`)

func escape(s string) string {
	return mdEscaper.Replace(s)
}
