package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/bookrun/internal/domain"
)

func TestScoreClampedToRange(t *testing.T) {
	s := NewScorer()

	// Nothing going for it: no data penalty, sub-$10 price, Good condition.
	low := s.Score(domain.BookAttributes{Condition: domain.ConditionGood},
		domain.RoutingDecision{}, domain.NotCollectible(), nil, 2.0)
	assert.Equal(t, 0.0, low.Score, "negative totals clamp to zero")
	assert.Equal(t, domain.LabelLow, low.Label)
	assert.True(t, low.SuppressSingle, "sub-$10 single item recommends bundling")

	// Everything going for it.
	buyback, rate := 8.0, 0.8
	vendors, rank, active := 4, 20_000, 2
	soldAvg := 600.0
	signals := domain.SignalSet{
		domain.PlatformBookScouter: {BestBuyback: &buyback, BuybackVendors: &vendors},
		domain.PlatformEbay:        {SellThroughRate: &rate, SoldAvg: &soldAvg, ActiveCount: &active},
		domain.PlatformAmazon:      {SalesRank: &rank},
	}
	coll := domain.CollectibleInfo{IsCollectible: true, Type: domain.CollectibleSignedFamous, FameMultiplier: 100.0}
	high := s.Score(domain.BookAttributes{Condition: domain.ConditionNew, Signed: true},
		domain.RoutingDecision{}, coll, signals, 600.0)
	assert.Equal(t, 100.0, high.Score, "totals above 100 clamp")
	assert.Equal(t, domain.LabelHigh, high.Label)
}

func TestClassifyScoreBands(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.ScoreLabel
	}{
		{100, domain.LabelHigh},
		{70, domain.LabelHigh},
		{69.9, domain.LabelMedium},
		{45, domain.LabelMedium},
		{44.9, domain.LabelLow},
		{0, domain.LabelLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyScore(tt.score), "score=%v", tt.score)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer()
	rate := 0.5
	signals := domain.SignalSet{domain.PlatformEbay: {SellThroughRate: &rate}}
	attrs := domain.BookAttributes{Condition: domain.ConditionVeryGood}

	first := s.Score(attrs, domain.RoutingDecision{}, domain.NotCollectible(), signals, 25.0)
	for i := 0; i < 5; i++ {
		again := s.Score(attrs, domain.RoutingDecision{}, domain.NotCollectible(), signals, 25.0)
		assert.Equal(t, first, again)
	}
}

func TestBuybackTiers(t *testing.T) {
	s := NewScorer()
	tests := []struct {
		offer float64
		delta float64
	}{
		{6.0, 35},
		{5.0, 35},
		{3.5, 25},
		{1.0, 12},
		{0.5, 0},
	}

	for _, tt := range tests {
		base := s.Score(domain.BookAttributes{Condition: domain.ConditionGood},
			domain.RoutingDecision{}, domain.NotCollectible(), nil, 25.0)
		withOffer := s.Score(domain.BookAttributes{Condition: domain.ConditionGood},
			domain.RoutingDecision{}, domain.NotCollectible(),
			domain.SignalSet{domain.PlatformBookScouter: {BestBuyback: &tt.offer}}, 25.0)
		assert.InDelta(t, tt.delta, withOffer.Score-base.Score, 1e-9, "offer $%.2f", tt.offer)
	}
}

// A high-fame collectible with terrible marketplace velocity must score
// well ahead of the identical ordinary book: the tier bonus lands and the
// slow-velocity penalty is suppressed.
func TestCollectibleSuppressesVelocityPenalties(t *testing.T) {
	s := NewScorer()
	rank := 2_500_000
	signals := domain.SignalSet{domain.PlatformAmazon: {SalesRank: &rank}}
	attrs := domain.BookAttributes{Condition: domain.ConditionGood, Signed: true}

	ordinary := s.Score(attrs, domain.RoutingDecision{}, domain.NotCollectible(), signals, 50.0)

	coll := domain.CollectibleInfo{
		IsCollectible:  true,
		Type:           domain.CollectibleSignedFamous,
		FameMultiplier: 100.0,
		FamousPerson:   "frank herbert",
	}
	collectible := s.Score(attrs, domain.RoutingDecision{}, coll, signals, 50.0)

	// +30 tier bonus plus the suppressed -10 stale-rank penalty.
	assert.InDelta(t, 40.0, collectible.Score-ordinary.Score, 1e-9)

	found := false
	for _, reason := range collectible.Justification {
		if reason == "Slow sales rank (2500000) disregarded: collectibles sell through specialized collector channels" {
			found = true
		}
	}
	assert.True(t, found, "suppressed penalty must explain itself")
}

// With no marketplace data at all, a high-fame collectible keeps its tier
// bonus and the missing-data penalty is suppressed, not just re-labelled.
func TestCollectibleSuppressesNoDataPenalty(t *testing.T) {
	s := NewScorer()
	attrs := domain.BookAttributes{Condition: domain.ConditionGood, Signed: true}

	ordinary := s.Score(attrs, domain.RoutingDecision{}, domain.NotCollectible(), nil, 50.0)

	coll := domain.CollectibleInfo{
		IsCollectible:  true,
		Type:           domain.CollectibleSignedFamous,
		FameMultiplier: 100.0,
		FamousPerson:   "frank herbert",
	}
	collectible := s.Score(attrs, domain.RoutingDecision{}, coll, nil, 50.0)

	// +30 tier bonus plus the suppressed -5 missing-data penalty.
	assert.InDelta(t, 35.0, collectible.Score-ordinary.Score, 1e-9)
	assert.Contains(t, collectible.Justification,
		"Missing marketplace data disregarded: collectibles sell through specialized collector channels")
	assert.Contains(t, ordinary.Justification,
		"No completed sales found; limited market data")
}

func TestCollectibleSuppressesWeakSellThrough(t *testing.T) {
	s := NewScorer()
	rate := 0.2
	signals := domain.SignalSet{domain.PlatformEbay: {SellThroughRate: &rate}}
	attrs := domain.BookAttributes{Condition: domain.ConditionGood, Signed: true}

	ordinary := s.Score(attrs, domain.RoutingDecision{}, domain.NotCollectible(), signals, 50.0)

	coll := domain.CollectibleInfo{
		IsCollectible:  true,
		Type:           domain.CollectibleSignedFamous,
		FameMultiplier: 100.0,
		FamousPerson:   "frank herbert",
	}
	collectible := s.Score(attrs, domain.RoutingDecision{}, coll, signals, 50.0)

	// +30 tier bonus plus the suppressed -8 weak sell-through penalty.
	assert.InDelta(t, 38.0, collectible.Score-ordinary.Score, 1e-9)
	assert.Contains(t, collectible.Justification,
		"Weak sell-through disregarded: collectibles sell through specialized collector channels")
}

func TestLowFameGetsNoSuppression(t *testing.T) {
	s := NewScorer()
	rank := 2_500_000
	signals := domain.SignalSet{domain.PlatformAmazon: {SalesRank: &rank}}
	attrs := domain.BookAttributes{Condition: domain.ConditionGood}

	ordinary := s.Score(attrs, domain.RoutingDecision{}, domain.NotCollectible(), signals, 50.0)
	weak := s.Score(attrs, domain.RoutingDecision{},
		domain.CollectibleInfo{IsCollectible: true, Type: domain.CollectibleSeries, FameMultiplier: 2.0},
		signals, 50.0)

	// Below the entry fame tier: no bonus, no suppression.
	assert.Equal(t, ordinary.Score, weak.Score)
}

func TestPriceTierAnchorsOnSoldComps(t *testing.T) {
	s := NewScorer()
	soldAvg := 150.0
	signals := domain.SignalSet{domain.PlatformEbay: {SoldAvg: &soldAvg}}
	attrs := domain.BookAttributes{Condition: domain.ConditionGood}

	// Sold comps at $150 outrank a $5 estimate.
	withComps := s.Score(attrs, domain.RoutingDecision{}, domain.NotCollectible(), signals, 5.0)
	withoutComps := s.Score(attrs, domain.RoutingDecision{}, domain.NotCollectible(), nil, 5.0)

	assert.Greater(t, withComps.Score, withoutComps.Score)
	assert.False(t, withComps.SuppressSingle)
	assert.True(t, withoutComps.SuppressSingle)
}

func TestCollectibleBypassesBundleRule(t *testing.T) {
	s := NewScorer()
	attrs := domain.BookAttributes{Condition: domain.ConditionGood}
	coll := domain.CollectibleInfo{IsCollectible: true, Type: domain.CollectiblePrintingError, FameMultiplier: 20.0}

	result := s.Score(attrs, domain.RoutingDecision{}, coll, nil, 4.0)
	assert.False(t, result.SuppressSingle, "printing errors stay un-bundled")
}

func TestSeriesCategoryContribution(t *testing.T) {
	s := NewScorer()
	plain := s.Score(domain.BookAttributes{Condition: domain.ConditionGood},
		domain.RoutingDecision{}, domain.NotCollectible(), nil, 25.0)
	series := s.Score(domain.BookAttributes{Condition: domain.ConditionGood, Categories: []string{"Fantasy Box Set"}},
		domain.RoutingDecision{}, domain.NotCollectible(), nil, 25.0)

	assert.InDelta(t, 5.0, series.Score-plain.Score, 1e-9)
	assert.Contains(t, series.Justification, "Series-related title; grouping may improve appeal")
}

func TestReaderRatingContribution(t *testing.T) {
	s := NewScorer()
	base := domain.BookAttributes{Condition: domain.ConditionGood}
	plain := s.Score(base, domain.RoutingDecision{}, domain.NotCollectible(), nil, 25.0)

	// Widely reviewed and strongly rated: context line plus the +4 bump.
	strong := base
	strong.AverageRating = 4.5
	strong.RatingsCount = 2000
	rated := s.Score(strong, domain.RoutingDecision{}, domain.NotCollectible(), nil, 25.0)
	assert.InDelta(t, 4.0, rated.Score-plain.Score, 1e-9)
	assert.Contains(t, rated.Justification, "Reader rating 4.5 (2000 reviews)")
	assert.Contains(t, rated.Justification, "High reader rating")

	// Thinly reviewed: the context line appears but no score moves.
	thin := base
	thin.AverageRating = 4.5
	thin.RatingsCount = 500
	noted := s.Score(thin, domain.RoutingDecision{}, domain.NotCollectible(), nil, 25.0)
	assert.Equal(t, plain.Score, noted.Score)
	assert.Contains(t, noted.Justification, "Reader rating 4.5 (500 reviews)")
}

func TestJustificationOrderLeadsWithCollectible(t *testing.T) {
	s := NewScorer()
	rate := 0.7
	signals := domain.SignalSet{domain.PlatformEbay: {SellThroughRate: &rate}}
	coll := domain.CollectibleInfo{IsCollectible: true, Type: domain.CollectibleSignedFamous, FameMultiplier: 100.0, FamousPerson: "frank herbert"}

	result := s.Score(domain.BookAttributes{Condition: domain.ConditionGood, Signed: true},
		domain.RoutingDecision{}, coll, signals, 300.0)
	require.NotEmpty(t, result.Justification)
	assert.Contains(t, result.Justification[0], "COLLECTIBLE")
}
