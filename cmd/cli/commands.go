package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vardrill/adapters/sqlstore"
	"vardrill/domain/drill"
	"vardrill/internal/filterstack"
	"vardrill/internal/navigation"
	"vardrill/internal/report"
	"vardrill/internal/testkit"
)

func newFactorsCmd() *cobra.Command {
	var flags analysisFlags
	cmd := &cobra.Command{
		Use:   "factors <file>",
		Short: "Rank factors by the share of outcome variation they explain",
		Long: `Rank candidate factors by eta-squared within the current drill path.

Example: vardrill factors weights.csv -o Weight -p "Machine=C"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			a := s.Analyze()
			w := cmd.OutOrStdout()
			title(w, "Factors explaining %s", a.Outcome)
			fmt.Fprintln(w, styles.Muted.Render(fmt.Sprintf("%d of %d rows  %s", a.RowsFiltered, a.RowsTotal, crumbs(a.Breadcrumbs))))
			fmt.Fprintln(w)
			if len(a.Ranking) == 0 {
				fmt.Fprintln(w, "No factor has enough data for a variance split.")
				return nil
			}
			for _, f := range a.Ranking {
				marker := "  "
				if f.Factor == a.NextFactor {
					marker = styles.Accent.Render("→ ")
				}
				fmt.Fprintf(w, "%s%-20s %s %5.1f%%\n", marker, f.Factor, bar(f.VariationPct, 30), f.VariationPct)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDrillCmd() *cobra.Command {
	var flags analysisFlags
	cmd := &cobra.Command{
		Use:   "drill <file>",
		Short: "Replay a drill path and attribute variation level by level",
		Long: `Replay the filters in --path in order and show how much of the total
variation each step isolates.

Example: vardrill drill weights.csv -o Weight -p "Machine=C&Shift=Night"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.path == "" {
				return fmt.Errorf("--path is required")
			}
			s, err := flags.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			a := s.Analyze()
			w := cmd.OutOrStdout()
			title(w, "Drill path for %s", a.Outcome)
			fmt.Fprintln(w, crumbs(a.Breadcrumbs))
			fmt.Fprintln(w)
			if a.Drill == nil {
				fmt.Fprintln(w, styles.Muted.Render("Not enough data to attribute variation along this path."))
				return nil
			}

			t := newTable("Step", "Local", "Cumulative", "Rows")
			for _, l := range a.Drill.Levels {
				t.Row(
					l.Factor+" = "+strings.Join(drill.Keys(l.Values), ","),
					fmt.Sprintf("%.1f%%", l.LocalVariationPct),
					fmt.Sprintf("%.1f%%", l.CumulativeVariationPct),
					fmt.Sprintf("%d → %d", l.RowsBefore, l.RowsAfter),
				)
			}
			fmt.Fprintln(w, t.Render())
			fmt.Fprintln(w)
			fmt.Fprintln(w, impactStyle(a.Drill.ImpactLevel).Render(fmt.Sprintf("Impact: %s", a.Drill.ImpactLevel)))
			fmt.Fprintln(w, a.Drill.InsightText)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newStagesCmd() *cobra.Command {
	var flags analysisFlags
	cmd := &cobra.Command{
		Use:   "stages <file>",
		Short: "Per-stage control limits and capability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			a := s.Analyze()
			w := cmd.OutOrStdout()
			if a.Staged == nil {
				return fmt.Errorf("no stage column configured (--stage or a profile)")
			}
			title(w, "%s by %s", a.Outcome, s.Settings().StageColumn)

			t := newTable("Stage", "Rows", "Mean", "StdDev", "LCL", "UCL", "Cpk")
			for _, b := range a.Boundaries {
				t.Row(statsRow(b.Name, b.Stats)...)
			}
			t.Row(statsRow("overall", a.Staged.OverallStats)...)
			fmt.Fprintln(w, t.Render())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newReportCmd() *cobra.Command {
	var flags analysisFlags
	var format, out, reportTitle string
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Write a Markdown or HTML report of the drill path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "md" && format != "html" {
				return fmt.Errorf("--format must be md or html")
			}
			s, err := flags.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			md := report.Markdown(s.Analyze(), report.Options{
				Title:    reportTitle,
				ShareURL: navigation.BuildURL("/view", s.Navigator().OrderedFilters(), nil),
			})
			body := []byte(md)
			if format == "html" {
				body = report.HTML(md)
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), styles.Muted.Render("wrote "+out))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "md", "Output format: md or html")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&reportTitle, "title", "", "Report title")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var rows int
	var seed int64
	cmd := &cobra.Command{
		Use:   "generate <out.csv>",
		Short: "Write a synthetic fill-weight dataset for demos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := testkit.DefaultProcessConfig()
			config.Rows = rows
			config.Seed = seed
			ds := testkit.NewProcessDataGenerator(config).Generate()
			if err := testkit.WriteCSV(args[0], ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", ds.Len(), args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 600, "Number of rows")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic output")
	return cmd
}

// storeFlags select the session database.
type storeFlags struct {
	driver string
	dsn    string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driver, "driver", envOr("DATABASE_DRIVER", "postgres"), "Database driver: postgres or sqlite3")
	cmd.Flags().StringVar(&f.dsn, "dsn", os.Getenv("DATABASE_URL"), "Database URL (default: $DATABASE_URL)")
}

func (f *storeFlags) open(ctx context.Context) (*sqlstore.Store, error) {
	if f.dsn == "" {
		return nil, fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return sqlstore.Open(ctx, f.driver, f.dsn)
}

func newMigrateCmd() *cobra.Command {
	var flags storeFlags
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the session store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintln(cmd.OutOrStdout(), styles.Accent.Render("schema is up to date"))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newSessionsCmd() *cobra.Command {
	var flags storeFlags
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved drill sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			snaps, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			t := newTable("Session", "Outcome", "Path", "Version", "Updated")
			for _, snap := range snaps {
				t.Row(
					snap.SessionID.String(),
					snap.Outcome,
					navigation.EncodeQuery(filterstack.ToOrderedFilters(snap.Stack)),
					fmt.Sprint(snap.Version),
					snap.UpdatedAt.Format(time.RFC3339),
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")
	return cmd
}
