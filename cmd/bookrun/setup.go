package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/shelfside/bookrun/internal/collectible"
	"github.com/shelfside/bookrun/internal/config"
	"github.com/shelfside/bookrun/internal/decision"
	"github.com/shelfside/bookrun/internal/features"
	"github.com/shelfside/bookrun/internal/models"
	"github.com/shelfside/bookrun/internal/pipeline"
	"github.com/shelfside/bookrun/internal/router"
)

// buildEvaluator assembles the pipeline from a config directory. Any file
// absent from the directory (or an empty configDir) falls back to the
// built-in defaults, so `bookrun evaluate` works out of the box.
func buildEvaluator(configDir string) (*pipeline.Evaluator, error) {
	set := models.DefaultSet()
	multipliers := config.DefaultMultipliers()
	table := collectible.DefaultTable()
	profiles := map[string]decision.Profile{}

	if configDir != "" {
		var err error

		if path, ok := configFile(configDir, "models.yaml"); ok {
			if set, err = models.LoadSet(path); err != nil {
				return nil, fmt.Errorf("load models: %w", err)
			}
		}
		if path, ok := configFile(configDir, "multipliers.yaml"); ok {
			if multipliers, err = config.LoadMultipliers(path); err != nil {
				return nil, fmt.Errorf("load multipliers: %w", err)
			}
		}
		if path, ok := configFile(configDir, "fame.yaml"); ok {
			if table, err = collectible.LoadTable(path); err != nil {
				return nil, fmt.Errorf("load fame table: %w", err)
			}
		}
		if path, ok := configFile(configDir, "profiles.yaml"); ok {
			if profiles, err = decision.LoadProfiles(path); err != nil {
				return nil, fmt.Errorf("load profiles: %w", err)
			}
		}
	}

	r := router.New(features.NewExtractor(), set, multipliers, router.DefaultConfig())
	resolver := collectible.NewResolver(table)

	log.Debug().
		Str("config_dir", configDir).
		Int("custom_profiles", len(profiles)).
		Msg("pipeline assembled")

	return pipeline.New(r, resolver, pipeline.WithProfiles(profiles)), nil
}

func configFile(dir, name string) (string, bool) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
