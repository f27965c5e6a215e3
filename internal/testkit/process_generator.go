// Package testkit generates synthetic process data with known effects, for
// tests and demos.
package testkit

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"vardrill/domain/drill"
)

// ProcessGeneratorConfig configures the process data generator. Effects are
// added to BaseValue for rows at that level; Noise is the standard deviation
// of the residual.
type ProcessGeneratorConfig struct {
	Rows          int                `json:"rows"`
	BaseValue     float64            `json:"base_value"`
	Noise         float64            `json:"noise"`
	Machines      []string           `json:"machines"`
	Shifts        []string           `json:"shifts"`
	Operators     []string           `json:"operators"`
	Phases        []string           `json:"phases"`
	MachineEffect map[string]float64 `json:"machine_effect"`
	ShiftEffect   map[string]float64 `json:"shift_effect"`
	PhaseEffect   map[string]float64 `json:"phase_effect"`
	MissingRate   float64            `json:"missing_rate"`
	Seed          int64              `json:"seed"`
}

// Column names produced by the generator.
const (
	ColumnMachine  = "Machine"
	ColumnShift    = "Shift"
	ColumnOperator = "Operator"
	ColumnPhase    = "Phase"
	ColumnLot      = "Lot"
	ColumnWeight   = "Weight"
)

// DefaultProcessConfig models a filling line where machine C overfills and
// the night shift adds a smaller offset. Operators have no effect.
func DefaultProcessConfig() ProcessGeneratorConfig {
	return ProcessGeneratorConfig{
		Rows:          600,
		BaseValue:     12.0,
		Noise:         0.05,
		Machines:      []string{"A", "B", "C"},
		Shifts:        []string{"Day", "Night"},
		Operators:     []string{"Ana", "Ben", "Cruz", "Dee"},
		Phases:        []string{"Phase 1", "Phase 2", "Phase 10"},
		MachineEffect: map[string]float64{"C": 0.6},
		ShiftEffect:   map[string]float64{"Night": 0.15},
		PhaseEffect:   map[string]float64{"Phase 10": -0.05},
		Seed:          42,
	}
}

// ProcessDataGenerator produces deterministic rows for a seed.
type ProcessDataGenerator struct {
	config ProcessGeneratorConfig
	rng    *rand.Rand
}

// NewProcessDataGenerator creates a generator.
func NewProcessDataGenerator(config ProcessGeneratorConfig) *ProcessDataGenerator {
	return &ProcessDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Columns lists the generated columns in header order.
func Columns() []string {
	return []string{ColumnMachine, ColumnShift, ColumnOperator, ColumnPhase, ColumnLot, ColumnWeight}
}

// Generate builds a dataset. Rows run through the phases in config order, so
// a lexical sort ("Phase 10" before "Phase 2") is detectable.
func (g *ProcessDataGenerator) Generate() *drill.Dataset {
	c := g.config
	rows := make([]drill.Row, 0, c.Rows)
	for i := 0; i < c.Rows; i++ {
		machine := pick(c.Machines, i)
		shift := pick(c.Shifts, i/len(c.Machines))
		operator := c.Operators[g.rng.Intn(len(c.Operators))]
		phase := c.Phases[i*len(c.Phases)/c.Rows]

		value := c.BaseValue + c.MachineEffect[machine] + c.ShiftEffect[shift] + c.PhaseEffect[phase] +
			g.rng.NormFloat64()*c.Noise

		row := drill.Row{
			ColumnMachine:  drill.StringValue(machine),
			ColumnShift:    drill.StringValue(shift),
			ColumnOperator: drill.StringValue(operator),
			ColumnPhase:    drill.StringValue(phase),
			ColumnLot:      drill.NumberValue(float64(100 + i/50)),
			ColumnWeight:   drill.NumberValue(value),
		}
		if c.MissingRate > 0 && g.rng.Float64() < c.MissingRate {
			row[ColumnWeight] = drill.NullValue()
		}
		rows = append(rows, row)
	}
	return drill.NewDataset(fmt.Sprintf("synthetic-%d", c.Seed), Columns(), rows)
}

// WriteCSV writes ds to path with a header row.
func WriteCSV(path string, ds *drill.Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(ds.Columns); err != nil {
		return err
	}
	for _, row := range ds.Rows {
		record := make([]string, len(ds.Columns))
		for i, col := range ds.Columns {
			v := row.Get(col)
			if f, ok := v.Float(); ok {
				record[i] = strconv.FormatFloat(f, 'f', -1, 64)
			} else if !v.IsNull() {
				record[i] = v.String()
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func pick(levels []string, i int) string {
	return levels[i%len(levels)]
}
