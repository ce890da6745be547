package domain

// CollectibleType classifies why a book carries collector value.
type CollectibleType string

const (
	CollectibleNone          CollectibleType = "none"
	CollectibleSignedFamous  CollectibleType = "signed_famous"
	CollectibleAwardWinner   CollectibleType = "award_winner"
	CollectiblePrintingError CollectibleType = "printing_error"
	CollectibleSeries        CollectibleType = "series_collectible"
)

// CollectibleInfo is the fame resolver's verdict. Invariant: FameMultiplier
// is exactly 1.0 when IsCollectible is false, and ≥ 1.0 always.
type CollectibleInfo struct {
	IsCollectible  bool            `json:"is_collectible"`
	Type           CollectibleType `json:"collectible_type"`
	FameMultiplier float64         `json:"fame_multiplier"`
	FamousPerson   string          `json:"famous_person,omitempty"`
	FameTier       string          `json:"fame_tier,omitempty"`
	Awards         []string        `json:"awards,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

// NotCollectible is the common no-match result.
func NotCollectible() CollectibleInfo {
	return CollectibleInfo{IsCollectible: false, Type: CollectibleNone, FameMultiplier: 1.0}
}
