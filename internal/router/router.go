// Package router selects the best specialist model for a book's available
// signals, runs it, and applies condition/format adjustment. Routing never
// refuses to produce a price: with zero usable signals the unified model
// prices an all-default vector at floored confidence.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/shelfside/bookrun/internal/config"
	"github.com/shelfside/bookrun/internal/domain"
	"github.com/shelfside/bookrun/internal/features"
	"github.com/shelfside/bookrun/internal/models"
)

// Config carries the router's tunables.
type Config struct {
	// MinCompleteness gates specialist routing: below it, the platform's
	// vector is considered too sparse for its specialist.
	MinCompleteness float64 `yaml:"min_completeness"`

	// PriceEpsilon floors the final price; routing always emits a value > 0.
	PriceEpsilon float64 `yaml:"price_epsilon"`

	// ConfidenceFloor is emitted when no platform had any signals.
	ConfidenceFloor float64 `yaml:"confidence_floor"`
}

// DefaultConfig returns production routing thresholds.
func DefaultConfig() Config {
	return Config{
		MinCompleteness: 0.55,
		PriceEpsilon:    0.01,
		ConfidenceFloor: 0.05,
	}
}

// Router is stateless over its loaded models and tables; safe for
// concurrent use.
type Router struct {
	extractor   *features.Extractor
	set         *models.Set
	multipliers *config.Multipliers
	cfg         Config
	now         func() time.Time
}

// New wires a router from its loaded collaborators.
func New(extractor *features.Extractor, set *models.Set, multipliers *config.Multipliers, cfg Config) *Router {
	return &Router{
		extractor:   extractor,
		set:         set,
		multipliers: multipliers,
		cfg:         cfg,
		now:         time.Now,
	}
}

// WithClock pins the recency clock, for deterministic tests.
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

type candidate struct {
	platform domain.Platform
	vector   *features.FeatureVector
	model    *models.LinearModel
	signals  *domain.RawMarketSignals
}

// Route prices the book. Feature extraction always runs at the fixed Good
// baseline so the book's actual condition never leaks into the regression
// target; condition is applied afterwards as a multiplier. The only error
// is a malformed identity field or a cancelled context.
func (r *Router) Route(ctx context.Context, attrs domain.BookAttributes, signals domain.SignalSet) (domain.RoutingDecision, error) {
	best, err := r.selectCandidate(ctx, attrs, signals)
	if err != nil {
		return domain.RoutingDecision{}, err
	}

	baseline := best.model.Predict(best.vector)
	condMult := r.multipliers.ConditionMultiplier(attrs.Condition)
	fmtMult := r.multipliers.FormatMultiplierFor(attrs.Binding)

	final := baseline * condMult * fmtMult
	if final < r.cfg.PriceEpsilon {
		final = r.cfg.PriceEpsilon
	}

	confidence := r.confidence(best)

	return domain.RoutingDecision{
		ModelID:             best.model.ID,
		Platform:            best.model.Platform,
		BaselinePrice:       baseline,
		ConditionMultiplier: condMult,
		FormatMultiplier:    fmtMult,
		FinalPrice:          final,
		Confidence:          confidence,
		Completeness:        best.vector.Completeness,
		Rationale:           r.rationale(best),
	}, nil
}

// selectCandidate extracts a vector per platform with signals and picks the
// most complete one above the routing threshold. Per-platform extractions
// are independent, so they fan out and join here at platform selection. No
// qualifier means the unified model runs over the shared subset of the best
// vector — or, with no signals at all, over an all-default shared vector.
func (r *Router) selectCandidate(ctx context.Context, attrs domain.BookAttributes, signals domain.SignalSet) (*candidate, error) {
	var (
		mu         sync.Mutex
		candidates []*candidate
	)
	g, _ := errgroup.WithContext(ctx)
	for _, platform := range domain.AllPlatforms() {
		sig, ok := signals[platform]
		if !ok || sig == nil {
			continue
		}
		platform := platform
		g.Go(func() error {
			vector, err := r.extractor.Extract(platform, attrs, sig, domain.ConditionGood)
			if err != nil {
				return err
			}
			mu.Lock()
			candidates = append(candidates, &candidate{platform: platform, vector: vector, signals: sig})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var best *candidate
	var bestAny *candidate // most complete regardless of threshold
	for _, platform := range domain.AllPlatforms() {
		c := candidateFor(candidates, platform)
		if c == nil {
			continue
		}
		if bestAny == nil || c.vector.Completeness > bestAny.vector.Completeness {
			bestAny = c
		}
		model, hasSpecialist := r.set.Specialist(platform)
		if !hasSpecialist {
			continue
		}
		if c.vector.Completeness < r.cfg.MinCompleteness {
			continue
		}
		c.model = model
		if best == nil || c.vector.Completeness > best.vector.Completeness {
			best = c
		}
	}

	if best != nil {
		return best, nil
	}

	// Unified fallback over the shared subset.
	if bestAny != nil {
		log.Debug().Str("isbn", attrs.ISBN).Float64("completeness", bestAny.vector.Completeness).
			Msg("no specialist qualified, routing to unified model")
		return &candidate{
			platform: bestAny.platform,
			vector:   bestAny.vector.SharedSubset(),
			model:    r.set.Unified(),
			signals:  bestAny.signals,
		}, nil
	}

	// Zero signals everywhere: price an all-default shared vector.
	vector, err := r.extractor.Extract("", attrs, nil, domain.ConditionGood)
	if err != nil {
		return nil, err
	}
	return &candidate{vector: vector, model: r.set.Unified()}, nil
}

func candidateFor(candidates []*candidate, platform domain.Platform) *candidate {
	for _, c := range candidates {
		if c.platform == platform {
			return c
		}
	}
	return nil
}

// confidence is a deterministic function of the chosen model's known error
// metrics, the vector's completeness, and signal recency. No randomness, no
// network: the same inputs always yield the same confidence.
func (r *Router) confidence(c *candidate) float64 {
	if c.signals == nil {
		return r.cfg.ConfidenceFloor
	}

	// Tighter models score higher; MAE in dollars against a $10 scale.
	accuracy := 1.0 / (1.0 + c.model.MAE/10.0)
	fit := 0.5 + 0.5*c.model.R2

	completeness := 0.5 + 0.5*c.vector.Completeness

	conf := accuracy * fit * completeness * r.recencyFactor(c.signals.FetchedAt)
	if conf < r.cfg.ConfidenceFloor {
		conf = r.cfg.ConfidenceFloor
	}
	if conf > 0.99 {
		conf = 0.99
	}
	return conf
}

// recencyFactor discounts stale snapshots. An unstamped snapshot is treated
// as about a week old.
func (r *Router) recencyFactor(fetchedAt *time.Time) float64 {
	if fetchedAt == nil {
		return 0.85
	}
	age := r.now().Sub(*fetchedAt)
	switch {
	case age <= 24*time.Hour:
		return 1.0
	case age <= 7*24*time.Hour:
		return 0.9
	case age <= 30*24*time.Hour:
		return 0.75
	default:
		return 0.6
	}
}

func (r *Router) rationale(c *candidate) string {
	if c.signals == nil {
		return fmt.Sprintf("%s model on all-default vector: no platform reported signals", c.model.ID)
	}
	if c.model.Platform == "" {
		return fmt.Sprintf("%s model over shared features: best platform %s at %.0f%% completeness below %.0f%% routing threshold",
			c.model.ID, c.platform, c.vector.Completeness*100, r.cfg.MinCompleteness*100)
	}
	return fmt.Sprintf("%s specialist chosen: %s signals at %.0f%% completeness (model MAE $%.2f)",
		c.model.ID, c.platform, c.vector.Completeness*100, c.model.MAE)
}
