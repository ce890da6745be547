package domain

import "time"

// Platform identifies a marketplace source for pricing signals.
type Platform string

const (
	PlatformEbay        Platform = "ebay"
	PlatformAmazon      Platform = "amazon"
	PlatformAbeBooks    Platform = "abebooks"
	PlatformBookScouter Platform = "bookscouter"
)

// AllPlatforms lists every platform with a feature schema, in routing
// preference order.
func AllPlatforms() []Platform {
	return []Platform{PlatformEbay, PlatformAbeBooks, PlatformAmazon, PlatformBookScouter}
}

// RawMarketSignals is an immutable per-platform market snapshot supplied by
// upstream marketplace clients. Pointer fields distinguish "not provided"
// from a measured zero; the core never mutates or persists a snapshot.
type RawMarketSignals struct {
	Platform        Platform   `json:"platform"`
	ActiveCount     *int       `json:"active_count,omitempty"`
	SoldCount       *int       `json:"sold_count,omitempty"` // sold in trailing 90 days
	ActiveMedian    *float64   `json:"active_median,omitempty"`
	SoldAvg         *float64   `json:"sold_avg,omitempty"`
	SoldMedian      *float64   `json:"sold_median,omitempty"`
	MinPrice        *float64   `json:"min_price,omitempty"`
	MaxPrice        *float64   `json:"max_price,omitempty"`
	SellThroughRate *float64   `json:"sell_through_rate,omitempty"` // 0..1
	SalesRank       *int       `json:"sales_rank,omitempty"`
	SellerCount     *int       `json:"seller_count,omitempty"`
	BestBuyback     *float64   `json:"best_buyback,omitempty"`
	BuybackVendors  *int       `json:"buyback_vendors,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	FetchedAt       *time.Time `json:"fetched_at,omitempty"`
}

// SignalSet holds the best-available snapshot per platform. A platform with
// no snapshot is simply absent; upstream clients never block the evaluation
// waiting for one.
type SignalSet map[Platform]*RawMarketSignals

// TotalComps counts sold plus active comparable listings across every
// platform that reported them.
func (s SignalSet) TotalComps() int {
	total := 0
	for _, sig := range s {
		if sig == nil {
			continue
		}
		if sig.SoldCount != nil {
			total += *sig.SoldCount
		}
		if sig.ActiveCount != nil {
			total += *sig.ActiveCount
		}
	}
	return total
}

// SoldCount90d returns the largest trailing-90-day sold count reported by
// any platform, or -1 when no platform reported one.
func (s SignalSet) SoldCount90d() int {
	best := -1
	for _, sig := range s {
		if sig == nil || sig.SoldCount == nil {
			continue
		}
		if *sig.SoldCount > best {
			best = *sig.SoldCount
		}
	}
	return best
}
