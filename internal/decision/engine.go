package decision

import (
	"fmt"

	"github.com/shelfside/bookrun/internal/domain"
)

// Input carries everything the engine needs for one verdict. Profit fields
// are nil when the corresponding channel has no pricing data; the engine
// treats missing data as a review signal, never as zero profit.
type Input struct {
	Score          float64  // confidence score, 0-100
	TotalComps     int      // sold + active comparable listings across platforms
	TimeToSellDays int      // velocity estimate, 7-365
	BestProfit     *float64 // best margin across all sale channels
	ResaleProfit   *float64 // primary resale channel (marketplace listing)
	BuybackProfit  *float64 // guaranteed buyback channel
}

// Engine applies review checks and buy/skip thresholds under a profile.
// Stateless; safe for concurrent use.
type Engine struct{}

// NewEngine returns the decision engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs the review checks first; any concern preempts buy/skip.
// Review conditions mean "needs human judgment" and are never silently
// overridden by a raw profit threshold.
func (e *Engine) Evaluate(in Input, p Profile) domain.Decision {
	if concerns := e.reviewConcerns(in, p); len(concerns) > 0 {
		return domain.Decision{
			State:    domain.DecisionNeedsReview,
			Reason:   concerns[0],
			Concerns: concerns,
		}
	}
	return e.buyOrSkip(in, p)
}

// reviewConcerns collects every triggered review check, in check order.
func (e *Engine) reviewConcerns(in Input, p Profile) []string {
	var concerns []string

	// R1: insufficient market evidence.
	if in.TotalComps < p.MinCompsRequired {
		if in.TotalComps == 0 {
			concerns = append(concerns, "No market data found")
		} else {
			concerns = append(concerns, fmt.Sprintf("Only %d comparable listing%s found (need %d)",
				in.TotalComps, plural(in.TotalComps), p.MinCompsRequired))
		}
	}

	// R2: conflicting channel signals — guaranteed buyback says profit,
	// primary resale says loss.
	if in.BuybackProfit != nil && *in.BuybackProfit > p.MinProfitAutoBuy &&
		in.ResaleProfit != nil && *in.ResaleProfit < 0 {
		concerns = append(concerns, fmt.Sprintf(
			"Conflicting signals: buyback shows $%.2f profit but resale predicts $%.2f loss",
			*in.BuybackProfit, -*in.ResaleProfit))
	}

	// R3: slow mover on a thin margin.
	if in.TimeToSellDays > p.MaxSlowMovingDays &&
		in.BestProfit != nil && *in.BestProfit < p.MinProfitSlowMoving {
		concerns = append(concerns, fmt.Sprintf(
			"Slow velocity (~%d days) with thin margin ($%.2f < $%.2f)",
			in.TimeToSellDays, *in.BestProfit, p.MinProfitSlowMoving))
	}

	// R4: low confidence on a minimal margin.
	if in.Score < p.LowConfidenceThreshold &&
		in.BestProfit != nil && *in.BestProfit < p.MinProfitUncertainty {
		concerns = append(concerns, fmt.Sprintf(
			"Low confidence (score %.0f) with minimal profit ($%.2f)",
			in.Score, *in.BestProfit))
	}

	// R5: no pricing data and confidence below the auto-buy floor.
	if p.RequireProfitData && in.BestProfit == nil && in.Score < p.MinConfidenceAutoBuy {
		concerns = append(concerns, "No pricing data with only moderate confidence")
	}

	return concerns
}

func (e *Engine) buyOrSkip(in Input, p Profile) domain.Decision {
	if in.BestProfit == nil {
		return domain.Decision{
			State:  domain.DecisionSkip,
			Reason: "No profit data available to justify a purchase",
		}
	}

	profit := *in.BestProfit
	if profit >= p.MinProfitAutoBuy {
		return domain.Decision{
			State:  domain.DecisionBuy,
			Reason: fmt.Sprintf("Profit $%.2f clears the $%.2f auto-buy threshold", profit, p.MinProfitAutoBuy),
		}
	}
	if profit > 0 && in.Score >= p.MinConfidenceAutoBuy {
		return domain.Decision{
			State:  domain.DecisionBuy,
			Reason: fmt.Sprintf("Positive margin ($%.2f) with strong confidence (score %.0f)", profit, in.Score),
		}
	}

	if profit <= 0 {
		return domain.Decision{
			State:  domain.DecisionSkip,
			Reason: fmt.Sprintf("No margin at this cost (profit $%.2f)", profit),
		}
	}
	return domain.Decision{
		State: domain.DecisionSkip,
		Reason: fmt.Sprintf("Margin $%.2f below the $%.2f auto-buy threshold and confidence %.0f below %.0f",
			profit, p.MinProfitAutoBuy, in.Score, p.MinConfidenceAutoBuy),
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
