package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vardrill/adapters/excel"
	"vardrill/adapters/history"
	"vardrill/domain/core"
	"vardrill/domain/drill"
	"vardrill/domain/spc"
	"vardrill/internal/config"
	"vardrill/internal/navigation"
	"vardrill/internal/session"
	"vardrill/internal/variation"
)

// analysisFlags are shared by every command that analyses a data file.
type analysisFlags struct {
	outcome    string
	factors    []string
	stage      string
	stageOrder string
	sheet      string
	profile    string
	path       string
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.outcome, "outcome", "o", "", "Numeric outcome column")
	cmd.Flags().StringSliceVarP(&f.factors, "factors", "f", nil, "Candidate factor columns (default: inferred)")
	cmd.Flags().StringVar(&f.stage, "stage", "", "Stage column for staged statistics")
	cmd.Flags().StringVar(&f.stageOrder, "stage-order", string(spc.StageOrderAuto), "Stage order: auto or data-order")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet to read from an .xlsx file (default: first)")
	cmd.Flags().StringVar(&f.profile, "profile", "", "YAML analysis profile")
	cmd.Flags().StringVarP(&f.path, "path", "p", "", `Drill path as a URL query, e.g. "Machine=C&Shift=Night"`)
}

// load reads the data file and resolves settings. Flags win over the
// profile.
func (f *analysisFlags) load(ctx context.Context, file string) (*drill.Dataset, session.Settings, error) {
	cfg := excel.DefaultReaderConfig(file)
	cfg.Sheet = f.sheet
	ds, err := excel.NewDataReader(cfg).ReadDataset(ctx)
	if err != nil {
		return nil, session.Settings{}, err
	}

	settings := session.Settings{
		StageOrder: spc.ParseStageOrderMode(f.stageOrder),
		Thresholds: variation.DefaultThresholds(),
	}
	if f.profile != "" {
		p, err := config.LoadProfile(f.profile)
		if err != nil {
			return nil, session.Settings{}, err
		}
		settings = settings.WithProfile(p)
	}
	if f.outcome != "" {
		settings.Outcome = f.outcome
	}
	if len(f.factors) > 0 {
		settings.Factors = f.factors
	}
	if f.stage != "" {
		settings.StageColumn = f.stage
	}

	if settings.Outcome == "" {
		return nil, session.Settings{}, fmt.Errorf("an outcome column is required (--outcome or a profile)")
	}
	if !ds.HasColumn(settings.Outcome) {
		return nil, session.Settings{}, fmt.Errorf("outcome %q: %w", settings.Outcome, core.ErrColumnNotFound)
	}
	if len(settings.Factors) == 0 {
		settings.Factors = excel.SuggestFactors(ds, settings.Outcome)
	}
	return ds, settings, nil
}

// open builds a one-shot session positioned at the --path filters.
func (f *analysisFlags) open(ctx context.Context, file string) (*session.Session, error) {
	ds, settings, err := f.load(ctx, file)
	if err != nil {
		return nil, err
	}
	location := "/"
	if q := strings.TrimPrefix(f.path, "?"); q != "" {
		location += "?" + q
	}
	s := session.New(core.NewSessionID(), ds, settings, history.NewMemoryHistory(location),
		navigation.Options{EnableURLSync: true}, nil)
	return s, nil
}
