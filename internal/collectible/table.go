// Package collectible resolves author fame and related collector-value
// signals into a price multiplier. The fame table is loaded once at startup
// and read-only afterwards.
package collectible

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Person is one fame-table entry keyed by normalized lowercase name.
type Person struct {
	Tier             string   `yaml:"tier"`
	SignedMultiplier float64  `yaml:"signed_multiplier"`
	Awards           []string `yaml:"awards,omitempty"`
	Notes            string   `yaml:"notes,omitempty"`
}

// SeriesEntry marks a series whose first editions carry collector premiums.
type SeriesEntry struct {
	FirstEditionMultiplier float64 `yaml:"first_edition_multiplier"`
	LaterMultiplier        float64 `yaml:"later_multiplier"`
	Notes                  string  `yaml:"notes,omitempty"`
}

// PrintingPoint marks a known printing error/variation worth a premium.
type PrintingPoint struct {
	Multiplier float64 `yaml:"multiplier"`
	Notes      string  `yaml:"notes,omitempty"`
}

// Table is the full collectible lookup: famous people with alias mappings,
// award multipliers for award names appearing in titles, collectible series,
// and printing points. All keys are normalized lowercase.
type Table struct {
	Version  string                   `yaml:"version"`
	People   map[string]Person        `yaml:"people"`
	Aliases  map[string]string        `yaml:"aliases"` // variant -> canonical
	Awards   map[string]float64       `yaml:"awards"`  // award name -> multiplier
	Series   map[string]SeriesEntry   `yaml:"series"`
	Printing map[string]PrintingPoint `yaml:"printing_points"`
}

// LoadTable reads and validates a fame table from YAML. Keys are
// re-normalized on load so hand-edited files stay case-insensitive.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fame table %s: %w", path, err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse fame table %s: %w", path, err)
	}
	t.normalize()
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("fame table %s: %w", path, err)
	}
	return &t, nil
}

// DefaultTable returns the built-in table used when no file is configured.
// Kept deliberately small; production deployments ship a full config file.
func DefaultTable() *Table {
	t := &Table{
		Version: "fame_builtin_v1",
		People: map[string]Person{
			"frank herbert":    {Tier: "iconic_author", SignedMultiplier: 100.0, Notes: "Dune author; signed firsts command four figures"},
			"stephen king":     {Tier: "iconic_author", SignedMultiplier: 50.0},
			"toni morrison":    {Tier: "award_winner", SignedMultiplier: 30.0, Awards: []string{"nobel", "pulitzer"}},
			"cormac mccarthy":  {Tier: "award_winner", SignedMultiplier: 40.0, Awards: []string{"pulitzer"}},
			"j.k. rowling":     {Tier: "iconic_author", SignedMultiplier: 80.0},
			"george r.r. martin": {Tier: "major_author", SignedMultiplier: 25.0},
			"margaret atwood":  {Tier: "award_winner", SignedMultiplier: 20.0, Awards: []string{"booker"}},
			"neil gaiman":      {Tier: "major_author", SignedMultiplier: 15.0},
		},
		Aliases: map[string]string{
			"jk rowling":        "j.k. rowling",
			"joanne rowling":    "j.k. rowling",
			"robert galbraith":  "j.k. rowling",
			"george martin":     "george r.r. martin",
			"george rr martin":  "george r.r. martin",
			"richard bachman":   "stephen king",
		},
		Awards: map[string]float64{
			"pulitzer":            3.0,
			"nobel":               5.0,
			"national book award": 2.5,
			"booker":              2.5,
			"newbery":             2.0,
			"caldecott":           2.0,
			"hugo":                2.0,
			"nebula":              2.0,
		},
		Series: map[string]SeriesEntry{
			"harry potter":      {FirstEditionMultiplier: 10.0, LaterMultiplier: 2.0, Notes: "UK first printings especially"},
			"lord of the rings": {FirstEditionMultiplier: 8.0, LaterMultiplier: 1.5},
			"dune":              {FirstEditionMultiplier: 15.0, LaterMultiplier: 2.0},
			"foundation":        {FirstEditionMultiplier: 12.0, LaterMultiplier: 2.0},
			"game of thrones":   {FirstEditionMultiplier: 6.0, LaterMultiplier: 1.5},
		},
		Printing: map[string]PrintingPoint{
			"harry potter and the philosopher's stone": {Multiplier: 20.0, Notes: "'1 wand' misprint, first UK printing"},
			"harry potter and the sorcerer's stone":    {Multiplier: 15.0, Notes: "first American edition number line"},
		},
	}
	t.normalize()
	return t
}

func (t *Table) normalize() {
	t.People = lowerKeysPerson(t.People)
	t.Series = lowerKeysSeries(t.Series)
	t.Printing = lowerKeysPrinting(t.Printing)

	aliases := make(map[string]string, len(t.Aliases))
	for variant, canonical := range t.Aliases {
		aliases[strings.ToLower(strings.TrimSpace(variant))] = strings.ToLower(strings.TrimSpace(canonical))
	}
	t.Aliases = aliases

	awards := make(map[string]float64, len(t.Awards))
	for name, mult := range t.Awards {
		awards[strings.ToLower(strings.TrimSpace(name))] = mult
	}
	t.Awards = awards
}

// validate rejects any entry that could mark a book collectible without a
// genuine premium: every multiplier in the table must exceed 1.0.
func (t *Table) validate() error {
	for name, p := range t.People {
		if p.SignedMultiplier <= 1.0 {
			return fmt.Errorf("person %q: signed_multiplier %.2f must be > 1.0", name, p.SignedMultiplier)
		}
	}
	for variant, canonical := range t.Aliases {
		if _, ok := t.People[canonical]; !ok {
			return fmt.Errorf("alias %q points at unknown person %q", variant, canonical)
		}
	}
	for name, mult := range t.Awards {
		if mult <= 1.0 {
			return fmt.Errorf("award %q: multiplier %.2f must be > 1.0", name, mult)
		}
	}
	for name, s := range t.Series {
		if s.FirstEditionMultiplier <= 1.0 || s.LaterMultiplier <= 1.0 {
			return fmt.Errorf("series %q: multipliers must be > 1.0", name)
		}
	}
	for key, p := range t.Printing {
		if p.Multiplier <= 1.0 {
			return fmt.Errorf("printing point %q: multiplier %.2f must be > 1.0", key, p.Multiplier)
		}
	}
	return nil
}

func lowerKeysPerson(in map[string]Person) map[string]Person {
	out := make(map[string]Person, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func lowerKeysSeries(in map[string]SeriesEntry) map[string]SeriesEntry {
	out := make(map[string]SeriesEntry, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func lowerKeysPrinting(in map[string]PrintingPoint) map[string]PrintingPoint {
	out := make(map[string]PrintingPoint, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
