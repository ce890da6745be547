// Package config loads the versioned constants tables that tune the
// valuation pipeline: condition/format multipliers and model coefficients
// live in YAML so they can be audited and revised without code changes.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/shelfside/bookrun/internal/domain"
)

// FormatMultiplier pairs a binding-vocabulary substring with its price
// multiplier. Matching is ordered: more specific substrings must come first
// ("trade paperback" before "paperback").
type FormatMultiplier struct {
	Match      string  `yaml:"match"`
	Multiplier float64 `yaml:"multiplier"`
}

// Multipliers is the condition/format adjustment table. Condition
// multipliers are normalized to the Good baseline the models are trained
// at, so Good is exactly 1.0.
type Multipliers struct {
	Version   string                       `yaml:"version"`
	Condition map[domain.Condition]float64 `yaml:"condition"`
	Format    []FormatMultiplier           `yaml:"format"`
}

// LoadMultipliers reads and validates the multiplier table.
func LoadMultipliers(path string) (*Multipliers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read multipliers %s: %w", path, err)
	}
	var m Multipliers
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse multipliers %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("multipliers %s: %w", path, err)
	}
	return &m, nil
}

// DefaultMultipliers returns the built-in table, mirroring
// config/multipliers.yaml.
func DefaultMultipliers() *Multipliers {
	return &Multipliers{
		Version: "multipliers_builtin_v2",
		Condition: map[domain.Condition]float64{
			domain.ConditionNew:        1.32,
			domain.ConditionLikeNew:    1.21,
			domain.ConditionVeryGood:   1.11,
			domain.ConditionGood:       1.00,
			domain.ConditionAcceptable: 0.84,
			domain.ConditionPoor:       0.63,
		},
		Format: []FormatMultiplier{
			{Match: "trade paperback", Multiplier: 0.90},
			{Match: "mass market", Multiplier: 0.70},
			{Match: "hardcover", Multiplier: 1.15},
			{Match: "paperback", Multiplier: 0.85},
		},
	}
}

func (m *Multipliers) validate() error {
	for _, cond := range domain.Conditions() {
		mult, ok := m.Condition[cond]
		if !ok {
			return fmt.Errorf("condition %q missing from table", cond)
		}
		if mult <= 0 {
			return fmt.Errorf("condition %q multiplier %.2f must be positive", cond, mult)
		}
	}
	for _, f := range m.Format {
		if f.Match == "" || f.Multiplier <= 0 {
			return fmt.Errorf("format entry %+v invalid", f)
		}
	}
	return nil
}

// ConditionMultiplier looks up the adjustment for an ordinal grade; an
// ungraded book is treated as Good.
func (m *Multipliers) ConditionMultiplier(cond domain.Condition) float64 {
	if cond == "" {
		cond = domain.ConditionGood
	}
	if mult, ok := m.Condition[cond]; ok {
		return mult
	}
	return 1.0
}

// FormatMultiplierFor matches the binding text against the controlled
// vocabulary in table order. Unknown bindings are neutral.
func (m *Multipliers) FormatMultiplierFor(binding string) float64 {
	lower := strings.ToLower(binding)
	if lower == "" {
		return 1.0
	}
	for _, f := range m.Format {
		if strings.Contains(lower, f.Match) {
			return f.Multiplier
		}
	}
	return 1.0
}
