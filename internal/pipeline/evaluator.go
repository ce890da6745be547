// Package pipeline orchestrates one full valuation: routing, collectible
// overlay, confidence scoring, velocity, and the final decision. The
// pipeline is pure and request-scoped — no shared mutable state, no I/O.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfside/bookrun/internal/collectible"
	"github.com/shelfside/bookrun/internal/decision"
	"github.com/shelfside/bookrun/internal/domain"
	"github.com/shelfside/bookrun/internal/features"
	"github.com/shelfside/bookrun/internal/router"
	"github.com/shelfside/bookrun/internal/scoring"
	"github.com/shelfside/bookrun/internal/velocity"
)

// Evaluator owns the loaded, read-only pipeline components. Concurrent
// evaluations of different books run lock-free.
type Evaluator struct {
	router   *router.Router
	resolver *collectible.Resolver
	scorer   *scoring.Scorer
	engine   *decision.Engine
	profiles map[string]decision.Profile
	now      func() time.Time
}

// Option tweaks evaluator construction.
type Option func(*Evaluator)

// WithProfiles installs custom threshold profiles alongside the presets.
func WithProfiles(profiles map[string]decision.Profile) Option {
	return func(e *Evaluator) {
		for name, p := range profiles {
			e.profiles[name] = p
		}
	}
}

// WithClock pins evaluation timestamps, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// New assembles an evaluator from loaded components.
func New(r *router.Router, resolver *collectible.Resolver, opts ...Option) *Evaluator {
	e := &Evaluator{
		router:   r,
		resolver: resolver,
		scorer:   scoring.NewScorer(),
		engine:   decision.NewEngine(),
		profiles: map[string]decision.Profile{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) profile(name string) decision.Profile {
	if p, ok := e.profiles[name]; ok {
		return p
	}
	return decision.ProfileByName(name)
}

// Evaluate runs the full pipeline for one book. The only error is a
// malformed identity field or a cancelled context; data sparsity always
// flows through to a reviewable decision instead.
func (e *Evaluator) Evaluate(ctx context.Context, in domain.EvaluationInput) (*domain.EvaluationResult, error) {
	isbn, err := features.ValidateISBN(in.Attributes.ISBN)
	if err != nil {
		return nil, err
	}

	routing, err := e.router.Route(ctx, in.Attributes, in.Signals)
	if err != nil {
		return nil, err
	}

	coll := e.resolver.Detect(in.Attributes)

	// Collectible overlay is a deliberate post-routing step: the fame
	// multiplier composes after the condition/format product, never inside
	// the regression target.
	estimated := routing.FinalPrice * coll.FameMultiplier

	score := e.scorer.Score(in.Attributes, routing, coll, in.Signals, estimated)

	tts := velocity.Estimate(in.Signals.SoldCount90d())
	bucket := velocity.Classify(tts)
	score.Justification = append(score.Justification, velocityReason(tts, bucket))

	profits := e.profits(in, estimated)
	verdict := e.engine.Evaluate(decision.Input{
		Score:          score.Score,
		TotalComps:     in.Signals.TotalComps(),
		TimeToSellDays: tts,
		BestProfit:     profits.best,
		ResaleProfit:   profits.resale,
		BuybackProfit:  profits.buyback,
	}, e.profile(in.Profile))

	log.Debug().
		Str("isbn", isbn).
		Str("model", routing.ModelID).
		Float64("price", estimated).
		Float64("score", score.Score).
		Str("decision", string(verdict.State)).
		Msg("evaluation complete")

	return &domain.EvaluationResult{
		ISBN:           isbn,
		Condition:      domain.NormalizeCondition(string(in.Attributes.Condition)),
		Routing:        routing,
		Collectible:    coll,
		EstimatedPrice: estimated,
		Score:          score,
		TimeToSell:     tts,
		Velocity:       string(bucket),
		Decision:       verdict,
		EvaluatedAt:    e.now(),
	}, nil
}

type channelProfits struct {
	best    *float64
	resale  *float64
	buyback *float64
}

// profits derives per-channel margins when the purchase cost is known.
// Without a cost there is no profit data, which the decision engine treats
// as its own review signal.
func (e *Evaluator) profits(in domain.EvaluationInput, estimated float64) channelProfits {
	if in.PurchaseCost <= 0 {
		return channelProfits{}
	}

	resale := estimated - in.PurchaseCost
	out := channelProfits{resale: &resale, best: &resale}

	if sig := in.Signals[domain.PlatformBookScouter]; sig != nil && sig.BestBuyback != nil && *sig.BestBuyback > 0 {
		buyback := *sig.BestBuyback - in.PurchaseCost
		out.buyback = &buyback
		if buyback > *out.best {
			out.best = &buyback
		}
	}
	return out
}

func velocityReason(tts int, bucket velocity.Bucket) string {
	switch bucket {
	case velocity.Fast:
		return fmt.Sprintf("Fast-moving: expected to sell in ~%d days", tts)
	case velocity.Medium:
		return fmt.Sprintf("Moderate velocity: expected to sell in ~%d days", tts)
	case velocity.Slow:
		return fmt.Sprintf("Slow-moving: may take ~%d days to sell", tts)
	default:
		return fmt.Sprintf("Very slow: may take %d+ days to sell (niche market)", tts)
	}
}
