package domain

// RoutingDecision records which model priced the book and how the baseline
// was adjusted. Invariant: FinalPrice = BaselinePrice × ConditionMultiplier
// × FormatMultiplier, floored to a small epsilon by the router.
type RoutingDecision struct {
	ModelID             string   `json:"model_id"`
	Platform            Platform `json:"platform,omitempty"` // empty when the unified model ran
	BaselinePrice       float64  `json:"baseline_price"`
	ConditionMultiplier float64  `json:"condition_multiplier"`
	FormatMultiplier    float64  `json:"format_multiplier"`
	FinalPrice          float64  `json:"final_price"`
	Confidence          float64  `json:"confidence"` // 0..1
	Completeness        float64  `json:"completeness"`
	Rationale           string   `json:"rationale"`
}

// ScoreLabel buckets a confidence score for display and decision rules.
type ScoreLabel string

const (
	LabelHigh   ScoreLabel = "High"
	LabelMedium ScoreLabel = "Medium"
	LabelLow    ScoreLabel = "Low"
)

// ScoreResult is the confidence scorer's output: a clamped score, its label,
// and the ordered justification trail. Justifications are append-only and
// never re-sorted; the order is the evaluation order.
type ScoreResult struct {
	Score          float64    `json:"score"` // clamped to [0,100]
	Label          ScoreLabel `json:"label"`
	Justification  []string   `json:"justification"`
	SuppressSingle bool       `json:"suppress_single"` // under-$10 bundle recommendation
}

// DecisionState is the tri-state acquisition verdict.
type DecisionState string

const (
	DecisionBuy         DecisionState = "buy"
	DecisionSkip        DecisionState = "skip"
	DecisionNeedsReview DecisionState = "needs_review"
)

// Decision is the engine's terminal output. Reason is always populated;
// Concerns carries the individual review findings when State is
// needs_review.
type Decision struct {
	State    DecisionState `json:"state"`
	Reason   string        `json:"reason"`
	Concerns []string      `json:"concerns,omitempty"`
}
