package domain

import "time"

// EvaluationInput is the request-scoped bundle handed to the pipeline.
// PurchaseCost is what the reseller would pay for the copy; profit figures
// are derived from it when it is known (> 0 means "provided").
type EvaluationInput struct {
	Attributes   BookAttributes `json:"attributes"`
	Signals      SignalSet      `json:"signals"`
	PurchaseCost float64        `json:"purchase_cost,omitempty"`
	Profile      string         `json:"profile,omitempty"` // threshold profile name; empty = balanced
}

// EvaluationResult is everything the pipeline produces for one book.
type EvaluationResult struct {
	ISBN           string          `json:"isbn"`
	Condition      Condition       `json:"condition"`
	Routing        RoutingDecision `json:"routing"`
	Collectible    CollectibleInfo `json:"collectible"`
	EstimatedPrice float64         `json:"final_price"` // routing price after collectible overlay
	Score          ScoreResult     `json:"score"`
	TimeToSell     int             `json:"time_to_sell_days"`
	Velocity       string          `json:"velocity"`
	Decision       Decision        `json:"decision"`
	EvaluatedAt    time.Time       `json:"evaluated_at"`
}
