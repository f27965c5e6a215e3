package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"vardrill/domain/spc"
	"vardrill/internal/errors"
)

// Profile is a named analysis setup read from YAML:
//
//	name: fill-weight
//	outcome: Weight
//	factors: [Machine, Shift, Operator]
//	stage_column: Phase
//	stage_order: auto
//	specs: {usl: 12.5, lsl: 11.5, target: 12}
//	grades:
//	  - {max: 11.9, label: Light, color: "#f59e0b"}
//	aliases: {Machine: Filler}
type Profile struct {
	Name        string            `yaml:"name" validate:"required"`
	Outcome     string            `yaml:"outcome" validate:"required"`
	Factors     []string          `yaml:"factors"`
	StageColumn string            `yaml:"stage_column"`
	StageOrder  string            `yaml:"stage_order" validate:"omitempty,oneof=auto data-order"`
	Specs       ProfileSpecs      `yaml:"specs"`
	Grades      []ProfileGrade    `yaml:"grades" validate:"dive"`
	Aliases     map[string]string `yaml:"aliases"`
	RootLabel   string            `yaml:"root_label"`
}

// ProfileSpecs are optional specification limits.
type ProfileSpecs struct {
	USL    *float64 `yaml:"usl"`
	LSL    *float64 `yaml:"lsl"`
	Target *float64 `yaml:"target"`
}

// ProfileGrade is one grade band.
type ProfileGrade struct {
	Max   float64 `yaml:"max"`
	Label string  `yaml:"label" validate:"required"`
	Color string  `yaml:"color"`
}

// LoadProfile reads and validates a YAML profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profile %s", path)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if p.StageOrder == "" {
		p.StageOrder = string(spc.StageOrderAuto)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if p.Specs.USL != nil && p.Specs.LSL != nil && *p.Specs.USL <= *p.Specs.LSL {
		return nil, errors.ConfigInvalid("specs.usl must be greater than specs.lsl")
	}
	return &p, nil
}

// SpecLimits converts the profile specs.
func (p *Profile) SpecLimits() spc.SpecLimits {
	return spc.SpecLimits{USL: p.Specs.USL, LSL: p.Specs.LSL, Target: p.Specs.Target}
}

// GradeBands converts the profile grades.
func (p *Profile) GradeBands() []spc.Grade {
	out := make([]spc.Grade, 0, len(p.Grades))
	for _, g := range p.Grades {
		out = append(out, spc.Grade{Max: g.Max, Label: g.Label, Color: g.Color})
	}
	return out
}

// StageOrderMode parses the profile's stage order.
func (p *Profile) StageOrderMode() spc.StageOrderMode {
	return spc.ParseStageOrderMode(p.StageOrder)
}
