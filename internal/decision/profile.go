// Package decision turns a priced, scored evaluation into the tri-state
// Buy / Skip / Needs-Review verdict under a user-configurable threshold
// profile.
package decision

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is the full set of decision-engine tuning knobs. Passed by value
// and never mutated during an evaluation.
type Profile struct {
	Name string `yaml:"-"`

	MinProfitAutoBuy       float64 `yaml:"min_profit_auto_buy"`
	MinProfitSlowMoving    float64 `yaml:"min_profit_slow_moving"`
	MinProfitUncertainty   float64 `yaml:"min_profit_uncertainty"`
	MinConfidenceAutoBuy   float64 `yaml:"min_confidence_auto_buy"`
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold"`
	MinCompsRequired       int     `yaml:"min_comps_required"`
	MaxSlowMovingDays      int     `yaml:"max_slow_moving_days"`
	RequireProfitData      bool    `yaml:"require_profit_data"`
}

// Balanced is the default preset.
func Balanced() Profile {
	return Profile{
		Name:                   "balanced",
		MinProfitAutoBuy:       5.0,
		MinProfitSlowMoving:    8.0,
		MinProfitUncertainty:   3.0,
		MinConfidenceAutoBuy:   50.0,
		LowConfidenceThreshold: 30.0,
		MinCompsRequired:       3,
		MaxSlowMovingDays:      180,
		RequireProfitData:      true,
	}
}

// Conservative demands thicker margins and more evidence before buying.
func Conservative() Profile {
	return Profile{
		Name:                   "conservative",
		MinProfitAutoBuy:       8.0,
		MinProfitSlowMoving:    10.0,
		MinProfitUncertainty:   5.0,
		MinConfidenceAutoBuy:   60.0,
		LowConfidenceThreshold: 40.0,
		MinCompsRequired:       5,
		MaxSlowMovingDays:      120,
		RequireProfitData:      true,
	}
}

// Aggressive buys on thinner margins and sparser data.
func Aggressive() Profile {
	return Profile{
		Name:                   "aggressive",
		MinProfitAutoBuy:       3.0,
		MinProfitSlowMoving:    5.0,
		MinProfitUncertainty:   2.0,
		MinConfidenceAutoBuy:   40.0,
		LowConfidenceThreshold: 20.0,
		MinCompsRequired:       2,
		MaxSlowMovingDays:      240,
		RequireProfitData:      true,
	}
}

// ProfileByName resolves a preset by name; unknown or empty names fall back
// to balanced.
func ProfileByName(name string) Profile {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "conservative":
		return Conservative()
	case "aggressive":
		return Aggressive()
	default:
		return Balanced()
	}
}

// LoadProfiles reads custom profiles from YAML, keyed by profile name.
// Custom profiles extend the presets: a file entry named like a preset
// overrides it.
func LoadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	var raw struct {
		Profiles map[string]Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}
	out := make(map[string]Profile, len(raw.Profiles))
	for name, p := range raw.Profiles {
		p.Name = strings.ToLower(name)
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		out[p.Name] = p
	}
	return out, nil
}

func (p Profile) validate() error {
	if p.MinCompsRequired < 0 {
		return fmt.Errorf("min_comps_required must be >= 0")
	}
	if p.MaxSlowMovingDays <= 0 {
		return fmt.Errorf("max_slow_moving_days must be positive")
	}
	if p.MinConfidenceAutoBuy < 0 || p.MinConfidenceAutoBuy > 100 ||
		p.LowConfidenceThreshold < 0 || p.LowConfidenceThreshold > 100 {
		return fmt.Errorf("confidence thresholds must be within [0,100]")
	}
	return nil
}
