// Package scoring aggregates weighted market and attribute signals into a
// 0-100 confidence score with an ordered justification trail. Every
// contribution is a (delta, reason) pair appended in evaluation order;
// nothing is re-sorted afterwards.
package scoring

import (
	"fmt"
	"strings"

	"github.com/shelfside/bookrun/internal/domain"
)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

// Contribution is one scoring step: a numeric delta and the justification
// that goes with it. Suppressed contributions carry a zero delta and an
// explanatory reason instead of the penalty text, keeping the two outputs
// independent.
type Contribution struct {
	Name   string
	Delta  float64
	Reason string
}

// conditionWeights drive the condition modifier: (weight − 1) × 20 points.
var conditionWeights = map[domain.Condition]float64{
	domain.ConditionNew:        1.25,
	domain.ConditionLikeNew:    1.15,
	domain.ConditionVeryGood:   1.05,
	domain.ConditionGood:       0.95,
	domain.ConditionAcceptable: 0.80,
	domain.ConditionPoor:       0.60,
}

// Collectible fame tiers. At or above a tier's multiplier the scorer adds
// the tier bonus and suppresses slow-velocity and no-data penalties:
// collectibles sell through specialized channels where marketplace velocity
// is a poor proxy for demand.
const (
	fameTierHigh = 50.0
	fameTierMid  = 20.0
	fameTierLow  = 10.0

	fameBonusHigh = 30.0
	fameBonusMid  = 20.0
	fameBonusLow  = 12.0
)

// Label bands.
const (
	labelHighMin   = 70.0
	labelMediumMin = 45.0
)

// Scorer is stateless; safe for concurrent use.
type Scorer struct{}

// NewScorer returns the confidence scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score walks the weighted contributions in fixed evaluation order and
// clamps the running total to [0,100]. estimatedPrice is the router's final
// price after any collectible overlay; it anchors the price tier when no
// sold comps exist.
func (s *Scorer) Score(attrs domain.BookAttributes, routing domain.RoutingDecision, coll domain.CollectibleInfo, signals domain.SignalSet, estimatedPrice float64) domain.ScoreResult {
	fameBonus, fameTier := fameTierBonus(coll.FameMultiplier)
	suppressPenalties := coll.IsCollectible && fameBonus > 0

	var contributions []Contribution
	add := func(c Contribution) {
		if c.Reason != "" || c.Delta != 0 {
			contributions = append(contributions, c)
		}
	}

	// Collectible tier first so the justification trail leads with it.
	if coll.IsCollectible {
		add(collectibleContribution(coll, fameBonus, fameTier))
	}

	add(buybackContribution(signals[domain.PlatformBookScouter]))
	add(vendorContribution(signals[domain.PlatformBookScouter]))

	ebay := signals[domain.PlatformEbay]
	hasSellThrough := ebay != nil && ebay.SellThroughRate != nil
	add(sellThroughContribution(ebay, suppressPenalties))

	amazon := signals[domain.PlatformAmazon]
	hasRank := amazon != nil && amazon.SalesRank != nil
	add(velocityContribution(amazon, suppressPenalties))

	if !hasSellThrough && !hasRank {
		add(noDataContribution(suppressPenalties))
	}

	priceContrib, suppressSingle := priceTierContribution(ebay, estimatedPrice, coll)
	add(priceContrib)

	add(conditionContribution(attrs.Condition))
	add(editionContribution(attrs))
	add(competitionContribution(ebay))
	add(categoryContribution(attrs.Categories))
	for _, c := range ratingContributions(attrs) {
		add(c)
	}

	score := 0.0
	reasons := make([]string, 0, len(contributions))
	for _, c := range contributions {
		score += c.Delta
		reasons = append(reasons, c.Reason)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return domain.ScoreResult{
		Score:          score,
		Label:          ClassifyScore(score),
		Justification:  reasons,
		SuppressSingle: suppressSingle,
	}
}

// ClassifyScore maps a clamped score onto its ordinal label.
func ClassifyScore(score float64) domain.ScoreLabel {
	switch {
	case score >= labelHighMin:
		return domain.LabelHigh
	case score >= labelMediumMin:
		return domain.LabelMedium
	default:
		return domain.LabelLow
	}
}

func fameTierBonus(multiplier float64) (float64, string) {
	switch {
	case multiplier >= fameTierHigh:
		return fameBonusHigh, "high"
	case multiplier >= fameTierMid:
		return fameBonusMid, "mid"
	case multiplier >= fameTierLow:
		return fameBonusLow, "entry"
	default:
		return 0, ""
	}
}

func collectibleContribution(coll domain.CollectibleInfo, bonus float64, tier string) Contribution {
	reason := fmt.Sprintf("COLLECTIBLE: %s", coll.Type)
	if coll.FamousPerson != "" {
		reason += fmt.Sprintf(" by %s", coll.FamousPerson)
	}
	reason += fmt.Sprintf(" (%.1fx multiplier)", coll.FameMultiplier)
	if coll.Notes != "" {
		reason += " - " + coll.Notes
	}
	if bonus > 0 {
		reason += fmt.Sprintf("; %s-tier fame adds +%.0f confidence", tier, bonus)
	}
	return Contribution{Name: "collectible", Delta: bonus, Reason: reason}
}

func buybackContribution(sig *domain.RawMarketSignals) Contribution {
	if sig == nil || sig.BestBuyback == nil || *sig.BestBuyback <= 0 {
		return Contribution{}
	}
	offer := *sig.BestBuyback
	switch {
	case offer >= 5.0:
		return Contribution{Name: "buyback", Delta: 35,
			Reason: fmt.Sprintf("Strong buyback offer: $%.2f (profitable if purchased under $%.2f)", offer, offer)}
	case offer >= 3.0:
		return Contribution{Name: "buyback", Delta: 25,
			Reason: fmt.Sprintf("Good buyback offer: $%.2f (instant sale if profitable)", offer)}
	case offer >= 1.0:
		return Contribution{Name: "buyback", Delta: 12,
			Reason: fmt.Sprintf("Buyback available: $%.2f (profit depends on purchase price)", offer)}
	default:
		return Contribution{Name: "buyback",
			Reason: fmt.Sprintf("Buyback floor: $%.2f (only profitable if acquired free or nearly so)", offer)}
	}
}

func vendorContribution(sig *domain.RawMarketSignals) Contribution {
	if sig == nil || sig.BuybackVendors == nil {
		return Contribution{}
	}
	switch vendors := *sig.BuybackVendors; {
	case vendors >= 3:
		return Contribution{Name: "vendors", Delta: 8,
			Reason: fmt.Sprintf("%d vendors bidding (competitive demand)", vendors)}
	case vendors >= 2:
		return Contribution{Name: "vendors", Delta: 4,
			Reason: fmt.Sprintf("%d vendors interested", vendors)}
	default:
		return Contribution{}
	}
}

func sellThroughContribution(sig *domain.RawMarketSignals, suppress bool) Contribution {
	if sig == nil || sig.SellThroughRate == nil {
		return Contribution{}
	}
	rate := *sig.SellThroughRate
	switch {
	case rate >= 0.65:
		return Contribution{Name: "sell_through", Delta: 40,
			Reason: fmt.Sprintf("Strong sell-through rate at %.0f%%", rate*100)}
	case rate >= 0.45:
		return Contribution{Name: "sell_through", Delta: 28,
			Reason: fmt.Sprintf("Moderate sell-through rate at %.0f%%", rate*100)}
	case rate >= 0.25:
		return Contribution{Name: "sell_through", Delta: 12,
			Reason: fmt.Sprintf("Some market activity (%.0f%% sell-through)", rate*100)}
	default:
		if suppress {
			return Contribution{Name: "sell_through",
				Reason: "Weak sell-through disregarded: collectibles sell through specialized collector channels"}
		}
		return Contribution{Name: "sell_through", Delta: -8,
			Reason: fmt.Sprintf("Weak historical sell-through (%.0f%%)", rate*100)}
	}
}

func velocityContribution(sig *domain.RawMarketSignals, suppress bool) Contribution {
	if sig == nil || sig.SalesRank == nil {
		return Contribution{}
	}
	rank := *sig.SalesRank
	switch {
	case rank < 50_000:
		return Contribution{Name: "velocity", Delta: 15,
			Reason: fmt.Sprintf("Bestseller territory (rank %d)", rank)}
	case rank < 100_000:
		return Contribution{Name: "velocity", Delta: 10,
			Reason: fmt.Sprintf("High demand (rank %d)", rank)}
	case rank < 300_000:
		return Contribution{Name: "velocity", Delta: 5,
			Reason: fmt.Sprintf("Solid demand (rank %d)", rank)}
	case rank < 500_000:
		return Contribution{Name: "velocity", Delta: 2,
			Reason: fmt.Sprintf("Moderate demand (rank %d)", rank)}
	case rank < 1_000_000:
		return Contribution{Name: "velocity",
			Reason: fmt.Sprintf("Average sales velocity (rank %d)", rank)}
	case rank < 2_000_000:
		if suppress {
			return velocitySuppressed(rank)
		}
		return Contribution{Name: "velocity", Delta: -5,
			Reason: fmt.Sprintf("Slow sales velocity (rank %d)", rank)}
	default:
		if suppress {
			return velocitySuppressed(rank)
		}
		return Contribution{Name: "velocity", Delta: -10,
			Reason: fmt.Sprintf("Very niche/stale listing (rank %d)", rank)}
	}
}

func velocitySuppressed(rank int) Contribution {
	return Contribution{Name: "velocity",
		Reason: fmt.Sprintf("Slow sales rank (%d) disregarded: collectibles sell through specialized collector channels", rank)}
}

func noDataContribution(suppress bool) Contribution {
	if suppress {
		return Contribution{Name: "no_data",
			Reason: "Missing marketplace data disregarded: collectibles sell through specialized collector channels"}
	}
	return Contribution{Name: "no_data", Delta: -5,
		Reason: "No completed sales found; limited market data"}
}

// priceTierContribution anchors on sold comps when present, otherwise the
// estimated price. The under-$10 penalty recommends bundling unless the
// book is collectible enough to bypass the bundle rule.
func priceTierContribution(ebay *domain.RawMarketSignals, estimatedPrice float64, coll domain.CollectibleInfo) (Contribution, bool) {
	anchor := estimatedPrice
	if ebay != nil {
		if ebay.SoldAvg != nil && *ebay.SoldAvg > 0 {
			anchor = *ebay.SoldAvg
		} else if ebay.SoldMedian != nil && *ebay.SoldMedian > 0 {
			anchor = *ebay.SoldMedian
		}
	}

	switch {
	case anchor >= 500:
		return Contribution{Name: "price_tier", Delta: 40,
			Reason: fmt.Sprintf("Premium price bracket around $%.2f", anchor)}, false
	case anchor >= 100:
		return Contribution{Name: "price_tier", Delta: 32,
			Reason: fmt.Sprintf("High-value bracket around $%.2f", anchor)}, false
	case anchor >= 30:
		return Contribution{Name: "price_tier", Delta: 24,
			Reason: fmt.Sprintf("Average sale price around $%.2f", anchor)}, false
	case anchor >= 20:
		return Contribution{Name: "price_tier", Delta: 16,
			Reason: fmt.Sprintf("Sale price trending near $%.2f", anchor)}, false
	case anchor >= 10:
		return Contribution{Name: "price_tier", Delta: 8,
			Reason: fmt.Sprintf("Sale price above minimum threshold ($%.2f)", anchor)}, false
	default:
		if bypassBundleRule(coll, anchor) {
			return Contribution{Name: "price_tier", Delta: 5,
				Reason: fmt.Sprintf("Collectible (%s) held out of bundling despite $%.2f base price", coll.Type, anchor)}, false
		}
		return Contribution{Name: "price_tier", Delta: -20,
			Reason: "Single-item resale under $10; recommend bundling"}, true
	}
}

// bypassBundleRule mirrors the collectible carve-outs: strong multipliers,
// signed books with any real base, and printing errors all stay un-bundled.
func bypassBundleRule(coll domain.CollectibleInfo, basePrice float64) bool {
	if !coll.IsCollectible {
		return false
	}
	if coll.FameMultiplier >= 5.0 {
		return true
	}
	if coll.Type == domain.CollectibleSignedFamous && basePrice > 5.0 {
		return true
	}
	return coll.Type == domain.CollectiblePrintingError
}

func conditionContribution(cond domain.Condition) Contribution {
	if cond == "" {
		cond = domain.ConditionGood
	}
	weight, ok := conditionWeights[cond]
	if !ok {
		weight = 0.9
	}
	modifier := (weight - 1) * 20
	return Contribution{Name: "condition", Delta: modifier,
		Reason: fmt.Sprintf("Condition set to %s (modifier %+.1f)", cond, modifier)}
}

func editionContribution(attrs domain.BookAttributes) Contribution {
	if attrs.Signed {
		return Contribution{Name: "edition", Delta: 10, Reason: "Signed copy boosts demand"}
	}
	printing := attrs.Printing
	if printing == "" {
		return Contribution{}
	}
	if containsFold(printing, "first") || containsFold(printing, "1st") {
		return Contribution{Name: "edition", Delta: 6, Reason: "First edition noted"}
	}
	if containsFold(printing, "limited") {
		return Contribution{Name: "edition", Delta: 10, Reason: "Limited edition boosts demand"}
	}
	return Contribution{}
}

func categoryContribution(categories []string) Contribution {
	for _, cat := range categories {
		lower := strings.ToLower(cat)
		if strings.Contains(lower, "set") || strings.Contains(lower, "series") {
			return Contribution{Name: "category", Delta: 5,
				Reason: "Series-related title; grouping may improve appeal"}
		}
	}
	return Contribution{}
}

// ratingContributions notes reader engagement and adds a small bump for
// strongly rated, widely reviewed titles.
func ratingContributions(attrs domain.BookAttributes) []Contribution {
	if attrs.AverageRating <= 0 || attrs.RatingsCount <= 0 {
		return nil
	}
	out := []Contribution{{Name: "rating",
		Reason: fmt.Sprintf("Reader rating %.1f (%d reviews)", attrs.AverageRating, attrs.RatingsCount)}}
	if attrs.AverageRating >= 4.2 && attrs.RatingsCount >= 1000 {
		out = append(out, Contribution{Name: "rating", Delta: 4, Reason: "High reader rating"})
	}
	return out
}

func competitionContribution(sig *domain.RawMarketSignals) Contribution {
	if sig == nil || sig.ActiveCount == nil {
		return Contribution{}
	}
	switch active := *sig.ActiveCount; {
	case active <= 3:
		return Contribution{Name: "competition", Delta: 8,
			Reason: "Few active listings; inventory looks tight"}
	case active >= 20:
		return Contribution{Name: "competition", Delta: -6,
			Reason: "Many active listings; competition is high"}
	default:
		return Contribution{}
	}
}
