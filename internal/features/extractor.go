// Package features converts raw per-platform market signals and book
// attributes into fixed-schema numeric vectors. Every schema key is always
// present in the output; absence of real data is tracked through the
// completeness score and missing-feature list, never through omitted keys.
package features

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shelfside/bookrun/internal/domain"
)

// ErrInvalidInput marks a malformed identity field: a caller bug, never a
// data-sparsity condition.
var ErrInvalidInput = errors.New("invalid input")

const logSalesRankFloor = 13.815511557963774 // ln(1 + 1_000_000)

// FeatureVector is a fixed-schema numeric encoding of one book on one
// platform. Values always contains every schema key.
type FeatureVector struct {
	Platform     domain.Platform
	Schema       []string
	Values       map[string]float64
	Completeness float64 // 1 − |missing| / |schema|
	Missing      []string
}

// Value returns the named feature; schema membership is guaranteed by
// construction so the second return is only false for foreign names.
func (fv *FeatureVector) Value(name string) (float64, bool) {
	v, ok := fv.Values[name]
	return v, ok
}

// Ordered returns values in schema order, the layout model coefficients are
// indexed by.
func (fv *FeatureVector) Ordered() []float64 {
	out := make([]float64, len(fv.Schema))
	for i, name := range fv.Schema {
		out[i] = fv.Values[name]
	}
	return out
}

// SharedSubset projects the vector onto the unified model's schema. Missing
// bookkeeping carries over for the retained features.
func (fv *FeatureVector) SharedSubset() *FeatureVector {
	schema := SharedSchema()
	keep := make(map[string]bool, len(schema))
	for _, name := range schema {
		keep[name] = true
	}
	values := make(map[string]float64, len(schema))
	for _, name := range schema {
		values[name] = fv.Values[name]
	}
	var missing []string
	for _, name := range fv.Missing {
		if keep[name] {
			missing = append(missing, name)
		}
	}
	return &FeatureVector{
		Platform:     fv.Platform,
		Schema:       schema,
		Values:       values,
		Completeness: 1.0 - float64(len(missing))/float64(len(schema)),
		Missing:      missing,
	}
}

// textbookKeywords flag high-demand professional/textbook categories.
var textbookKeywords = []string{
	"business", "finance", "medical", "nursing", "law",
	"science", "technology", "computer", "engineering", "mathematics",
}

var fictionKeywords = []string{
	"fiction", "novel", "mystery", "thriller", "romance", "fantasy",
}

// Extractor builds feature vectors. Stateless and safe for concurrent use.
type Extractor struct {
	now func() time.Time
}

// NewExtractor returns an extractor using wall-clock time for age features.
func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// NewExtractorAt pins the clock, for deterministic tests.
func NewExtractorAt(now func() time.Time) *Extractor {
	return &Extractor{now: now}
}

// ValidateISBN checks the identity field the whole evaluation hangs off.
// Accepts ISBN-10 and ISBN-13 with optional hyphens/spaces.
func ValidateISBN(isbn string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(isbn))
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty isbn", ErrInvalidInput)
	}
	if len(cleaned) != 10 && len(cleaned) != 13 {
		return "", fmt.Errorf("%w: isbn %q has %d significant characters, want 10 or 13", ErrInvalidInput, isbn, len(cleaned))
	}
	for i, r := range cleaned {
		if r >= '0' && r <= '9' {
			continue
		}
		// ISBN-10 allows a trailing X check digit.
		if len(cleaned) == 10 && i == 9 && (r == 'X' || r == 'x') {
			continue
		}
		return "", fmt.Errorf("%w: isbn %q contains non-digit %q", ErrInvalidInput, isbn, r)
	}
	return strings.ToUpper(cleaned), nil
}

// Extract builds the platform's feature vector at the given condition grade.
// Missing signals substitute neutral defaults and are recorded; the only
// error path is a malformed identity field.
func (e *Extractor) Extract(platform domain.Platform, attrs domain.BookAttributes, sig *domain.RawMarketSignals, cond domain.Condition) (*FeatureVector, error) {
	if _, err := ValidateISBN(attrs.ISBN); err != nil {
		return nil, err
	}

	schema := Schema(platform)
	values := make(map[string]float64, len(schema))
	missing := make(map[string]bool)

	e.extractAttributes(attrs, values, missing)
	extractCondition(cond, values)
	extractPhysical(attrs, values, missing)
	extractCategories(attrs, values, missing)

	switch platform {
	case domain.PlatformEbay:
		extractEbay(sig, values, missing)
	case domain.PlatformAmazon:
		extractAmazon(sig, values, missing)
	case domain.PlatformAbeBooks:
		extractAbeBooks(sig, values, missing)
	case domain.PlatformBookScouter:
		extractBookScouter(sig, values, missing)
	}

	// Fill any schema key not yet touched with its neutral default so the
	// vector is total over the schema.
	for _, name := range schema {
		if _, ok := values[name]; !ok {
			values[name] = neutralDefaults[name]
			missing[name] = true
		}
	}

	missingList := make([]string, 0, len(missing))
	for name := range missing {
		missingList = append(missingList, name)
	}
	sort.Strings(missingList)

	return &FeatureVector{
		Platform:     platform,
		Schema:       schema,
		Values:       values,
		Completeness: 1.0 - float64(len(missingList))/float64(len(schema)),
		Missing:      missingList,
	}, nil
}

func (e *Extractor) extractAttributes(attrs domain.BookAttributes, values map[string]float64, missing map[string]bool) {
	if attrs.PageCount > 0 {
		values["page_count"] = float64(attrs.PageCount)
	} else {
		values["page_count"] = neutralDefaults["page_count"]
		missing["page_count"] = true
	}

	if attrs.PublishedYear > 0 {
		age := float64(e.now().Year() - attrs.PublishedYear)
		if age < 0 {
			age = 0
		}
		values["age_years"] = age
	} else {
		values["age_years"] = neutralDefaults["age_years"]
		missing["age_years"] = true
	}

	if attrs.RatingsCount > 0 {
		values["log_ratings"] = math.Log1p(float64(attrs.RatingsCount))
	} else {
		values["log_ratings"] = 0
		missing["log_ratings"] = true
	}

	if attrs.AverageRating > 0 {
		values["rating"] = attrs.AverageRating
	} else {
		values["rating"] = 0
		missing["rating"] = true
	}

	if attrs.ListPrice > 0 {
		values["has_list_price"] = 1
		values["list_price"] = attrs.ListPrice
	} else {
		values["has_list_price"] = 0
		values["list_price"] = 0
		missing["list_price"] = true
	}
}

func extractCondition(cond domain.Condition, values map[string]float64) {
	if cond == "" {
		cond = domain.ConditionGood
	}
	for _, c := range domain.Conditions() {
		name := conditionFeature(c)
		if c == cond {
			values[name] = 1
		} else {
			values[name] = 0
		}
	}
}

func conditionFeature(c domain.Condition) string {
	switch c {
	case domain.ConditionNew:
		return "is_new"
	case domain.ConditionLikeNew:
		return "is_like_new"
	case domain.ConditionVeryGood:
		return "is_very_good"
	case domain.ConditionGood:
		return "is_good"
	case domain.ConditionAcceptable:
		return "is_acceptable"
	default:
		return "is_poor"
	}
}

func extractPhysical(attrs domain.BookAttributes, values map[string]float64, missing map[string]bool) {
	binding := strings.ToLower(attrs.Binding)
	values["is_hardcover"] = boolFeature(strings.Contains(binding, "hardcover") || strings.Contains(binding, "hardback"))
	values["is_mass_market"] = boolFeature(strings.Contains(binding, "mass market"))
	values["is_paperback"] = boolFeature(values["is_mass_market"] == 0 && strings.Contains(binding, "paperback"))
	if binding == "" {
		missing["is_hardcover"] = true
		missing["is_paperback"] = true
		missing["is_mass_market"] = true
	}

	values["is_signed"] = boolFeature(attrs.Signed)

	printing := strings.ToLower(attrs.Printing)
	values["is_first_edition"] = boolFeature(strings.Contains(printing, "first") || strings.Contains(printing, "1st"))
	if printing == "" {
		missing["is_first_edition"] = true
	}
}

func extractCategories(attrs domain.BookAttributes, values map[string]float64, missing map[string]bool) {
	if len(attrs.Categories) == 0 {
		values["is_textbook"] = 0
		values["is_fiction"] = 0
		missing["is_textbook"] = true
		missing["is_fiction"] = true
		return
	}
	values["is_textbook"] = boolFeature(matchesAny(attrs.Categories, textbookKeywords))
	values["is_fiction"] = boolFeature(matchesAny(attrs.Categories, fictionKeywords))
}

func extractEbay(sig *domain.RawMarketSignals, values map[string]float64, missing map[string]bool) {
	if sig == nil {
		markAllMissing(values, missing, platformExtras[domain.PlatformEbay])
		return
	}

	soldCount := 0.0
	if sig.SoldCount != nil {
		soldCount = float64(*sig.SoldCount)
		values["sold_count"] = soldCount
	} else {
		values["sold_count"] = 0
		missing["sold_count"] = true
	}

	activeCount := 0.0
	if sig.ActiveCount != nil {
		activeCount = float64(*sig.ActiveCount)
		values["active_count"] = activeCount
	} else {
		values["active_count"] = 0
		missing["active_count"] = true
	}

	if sig.ActiveMedian != nil {
		values["active_median"] = *sig.ActiveMedian
	} else {
		values["active_median"] = 0
		missing["active_median"] = true
	}

	if sig.SellThroughRate != nil {
		values["sell_through_rate"] = *sig.SellThroughRate
	} else {
		values["sell_through_rate"] = 0
		missing["sell_through_rate"] = true
	}

	// Supply relative to demand. With zero sales all supply is competition.
	if soldCount > 0 {
		values["competition_ratio"] = activeCount / soldCount
	} else {
		values["competition_ratio"] = activeCount
		if activeCount == 0 {
			missing["competition_ratio"] = true
		}
	}

	if sig.ActiveMedian != nil && sig.SoldAvg != nil && *sig.SoldAvg > 0 {
		values["price_velocity"] = (*sig.ActiveMedian - *sig.SoldAvg) / *sig.SoldAvg
	} else {
		values["price_velocity"] = 0
		missing["price_velocity"] = true
	}
}

func extractAmazon(sig *domain.RawMarketSignals, values map[string]float64, missing map[string]bool) {
	if sig == nil {
		markAllMissing(values, missing, platformExtras[domain.PlatformAmazon])
		return
	}
	if sig.SalesRank != nil && *sig.SalesRank > 0 {
		values["log_sales_rank"] = math.Log1p(float64(*sig.SalesRank))
	} else {
		values["log_sales_rank"] = neutralDefaults["log_sales_rank"]
		missing["log_sales_rank"] = true
	}
	if sig.SellerCount != nil {
		values["seller_count"] = float64(*sig.SellerCount)
	} else {
		values["seller_count"] = 0
		missing["seller_count"] = true
	}
}

func extractAbeBooks(sig *domain.RawMarketSignals, values map[string]float64, missing map[string]bool) {
	if sig == nil {
		markAllMissing(values, missing, platformExtras[domain.PlatformAbeBooks])
		return
	}
	setOptional(values, missing, "min_price", sig.MinPrice)
	setOptional(values, missing, "max_price", sig.MaxPrice)
	setOptional(values, missing, "sold_median", sig.SoldMedian)
	if sig.SellerCount != nil {
		values["seller_count"] = float64(*sig.SellerCount)
	} else {
		values["seller_count"] = 0
		missing["seller_count"] = true
	}
}

func extractBookScouter(sig *domain.RawMarketSignals, values map[string]float64, missing map[string]bool) {
	if sig == nil {
		markAllMissing(values, missing, platformExtras[domain.PlatformBookScouter])
		return
	}
	setOptional(values, missing, "best_buyback", sig.BestBuyback)
	if sig.BuybackVendors != nil {
		values["buyback_vendors"] = float64(*sig.BuybackVendors)
	} else {
		values["buyback_vendors"] = 0
		missing["buyback_vendors"] = true
	}
}

func setOptional(values map[string]float64, missing map[string]bool, name string, v *float64) {
	if v != nil {
		values[name] = *v
		return
	}
	values[name] = 0
	missing[name] = true
}

func markAllMissing(values map[string]float64, missing map[string]bool, names []string) {
	for _, name := range names {
		values[name] = neutralDefaults[name]
		missing[name] = true
	}
}

func matchesAny(categories, keywords []string) bool {
	for _, cat := range categories {
		lower := strings.ToLower(cat)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
