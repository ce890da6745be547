package models

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/shelfside/bookrun/internal/domain"
)

// UnifiedModelID names the generalist fallback in configs and rationales.
const UnifiedModelID = "unified"

// Set is the loaded model registry: specialists keyed by platform plus the
// unified fallback. Read-only after construction.
type Set struct {
	specialists map[domain.Platform]*LinearModel
	unified     *LinearModel
}

// Specialist returns the platform's model, if one loaded.
func (s *Set) Specialist(platform domain.Platform) (*LinearModel, bool) {
	m, ok := s.specialists[platform]
	return m, ok
}

// Unified returns the generalist fallback; always present.
func (s *Set) Unified() *LinearModel {
	return s.unified
}

// modelSpec is the YAML shape of one model entry.
type modelSpec struct {
	ID        string             `yaml:"id"`
	Platform  string             `yaml:"platform"` // "unified" for the fallback
	Intercept float64            `yaml:"intercept"`
	MAE       float64            `yaml:"mae"`
	R2        float64            `yaml:"r2"`
	Weights   map[string]float64 `yaml:"weights"`
}

type modelsFile struct {
	Version string      `yaml:"version"`
	Models  []modelSpec `yaml:"models"`
}

// LoadSet reads the model registry from a YAML coefficients table. A
// specialist entry that fails validation is logged and skipped — routing
// for that platform degrades to the unified model. A missing or invalid
// unified entry is fatal: the pipeline cannot run without its fallback.
func LoadSet(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models config %s: %w", path, err)
	}
	var file modelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse models config %s: %w", path, err)
	}
	return buildSet(file)
}

func buildSet(file modelsFile) (*Set, error) {
	set := &Set{specialists: make(map[domain.Platform]*LinearModel)}
	for _, spec := range file.Models {
		model, err := spec.build()
		if err != nil {
			if spec.Platform == UnifiedModelID {
				return nil, fmt.Errorf("unified model %q: %w", spec.ID, err)
			}
			log.Warn().Str("model", spec.ID).Str("platform", spec.Platform).Err(err).
				Msg("specialist model failed to load, routing degrades to unified")
			continue
		}
		if spec.Platform == UnifiedModelID {
			set.unified = model
			continue
		}
		set.specialists[model.Platform] = model
	}
	if set.unified == nil {
		return nil, fmt.Errorf("models config %s: no unified model defined", file.Version)
	}
	return set, nil
}

func (s modelSpec) build() (*LinearModel, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("model entry missing id")
	}
	if len(s.Weights) == 0 {
		return nil, fmt.Errorf("model %q has no weights", s.ID)
	}
	if s.MAE < 0 || s.R2 < 0 || s.R2 > 1 {
		return nil, fmt.Errorf("model %q has implausible error metrics (mae=%.2f, r2=%.2f)", s.ID, s.MAE, s.R2)
	}
	platform := domain.Platform("")
	if s.Platform != UnifiedModelID {
		platform = domain.Platform(s.Platform)
	}
	weights := make(map[string]float64, len(s.Weights))
	for k, v := range s.Weights {
		weights[k] = v
	}
	return &LinearModel{
		ID:        s.ID,
		Platform:  platform,
		Intercept: s.Intercept,
		Weights:   weights,
		MAE:       s.MAE,
		R2:        s.R2,
	}, nil
}

// DefaultSet returns the built-in coefficient table, used when no config
// file is supplied. Coefficients mirror config/models.yaml.
func DefaultSet() *Set {
	set, err := buildSet(defaultModelsFile())
	if err != nil {
		// The built-in table is validated by tests; reaching this is a
		// programming error.
		panic(err)
	}
	return set
}

func defaultModelsFile() modelsFile {
	return modelsFile{
		Version: "models_builtin_v4",
		Models: []modelSpec{
			{
				ID: "unified_v4", Platform: UnifiedModelID, Intercept: 4.0, MAE: 3.36, R2: 0.52,
				Weights: map[string]float64{
					"page_count": 0.01, "age_years": -0.05,
					"log_ratings": 0.35, "rating": 0.6,
					"has_list_price": 0.5, "list_price": 0.05,
					"is_hardcover": 1.5, "is_mass_market": -0.8,
					"is_signed": 3.0, "is_first_edition": 2.0,
					"is_textbook": 3.0, "is_fiction": -0.3,
					"is_new": 0.8, "is_like_new": 0.4, "is_acceptable": -0.6, "is_poor": -1.2,
				},
			},
			{
				ID: "ebay_v4", Platform: string(domain.PlatformEbay), Intercept: 3.2, MAE: 1.12, R2: 0.79,
				Weights: map[string]float64{
					"page_count": 0.008, "age_years": -0.04,
					"log_ratings": 0.3, "rating": 0.5,
					"list_price": 0.04, "is_hardcover": 1.2,
					"is_signed": 2.5, "is_first_edition": 1.6, "is_textbook": 2.2,
					"sold_count": 0.15, "active_count": -0.05,
					"active_median": 0.45, "sell_through_rate": 4.0,
					"competition_ratio": -0.2, "price_velocity": 1.0,
				},
			},
			{
				ID: "abebooks_v4", Platform: string(domain.PlatformAbeBooks), Intercept: 2.1, MAE: 0.29, R2: 0.863,
				Weights: map[string]float64{
					"page_count": 0.005, "age_years": 0.02,
					"is_hardcover": 1.0, "is_signed": 2.0, "is_first_edition": 1.8,
					"min_price": 0.25, "max_price": 0.1,
					"sold_median": 0.5, "seller_count": -0.05,
				},
			},
			{
				ID: "amazon_v4", Platform: string(domain.PlatformAmazon), Intercept: 14.5, MAE: 3.1, R2: 0.55,
				Weights: map[string]float64{
					"page_count": 0.006, "rating": 0.4, "log_ratings": 0.25,
					"list_price": 0.06, "is_textbook": 3.5,
					"log_sales_rank": -0.7, "seller_count": -0.03,
				},
			},
			{
				ID: "bookscouter_v4", Platform: string(domain.PlatformBookScouter), Intercept: 2.8, MAE: 2.4, R2: 0.6,
				Weights: map[string]float64{
					"page_count": 0.004, "is_textbook": 2.0, "list_price": 0.03,
					"best_buyback": 1.8, "buyback_vendors": 0.2,
				},
			},
		},
	}
}
