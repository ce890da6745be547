// Package models holds the pretrained price regressors: one specialist per
// marketplace plus the unified generalist that runs on the shared feature
// subset. Models are loaded once at startup, immutable afterwards, and safe
// for concurrent use.
package models

import (
	"github.com/shelfside/bookrun/internal/domain"
	"github.com/shelfside/bookrun/internal/features"
)

// LinearModel is a pure linear regressor over named features. Weights for
// features absent from the map are zero, so a model trained on an older
// schema revision still evaluates against a newer vector.
type LinearModel struct {
	ID        string
	Platform  domain.Platform // empty for the unified model
	Intercept float64
	Weights   map[string]float64

	// Known error metrics from offline evaluation, used by the router's
	// confidence function.
	MAE float64
	R2  float64
}

// Predict evaluates the regressor on a feature vector. Accumulation follows
// the vector's schema order so identical inputs always sum in the same
// order and produce bit-identical results.
func (m *LinearModel) Predict(fv *features.FeatureVector) float64 {
	sum := m.Intercept
	for _, name := range fv.Schema {
		if w, ok := m.Weights[name]; ok {
			sum += w * fv.Values[name]
		}
	}
	return sum
}
