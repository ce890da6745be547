package features

import "github.com/shelfside/bookrun/internal/domain"

// SharedCoreFeatures is the schema subset common to every platform. The
// unified fallback model is trained on exactly this subset, which lets it
// run against any platform's vector (or an all-default vector).
var SharedCoreFeatures = []string{
	// Book attributes
	"page_count",
	"age_years",
	"log_ratings",
	"rating",
	"has_list_price",
	"list_price",

	// Condition one-hot (always populated, never counted missing)
	"is_new",
	"is_like_new",
	"is_very_good",
	"is_good",
	"is_acceptable",
	"is_poor",

	// Physical characteristics
	"is_hardcover",
	"is_paperback",
	"is_mass_market",
	"is_signed",
	"is_first_edition",

	// Category flags
	"is_textbook",
	"is_fiction",
}

// platformExtras maps each platform to its specialist-only features.
// Order matters: model coefficient tables index features by schema order.
var platformExtras = map[domain.Platform][]string{
	domain.PlatformEbay: {
		"sold_count",
		"active_count",
		"active_median",
		"sell_through_rate",
		"competition_ratio",
		"price_velocity",
	},
	domain.PlatformAmazon: {
		"log_sales_rank",
		"seller_count",
	},
	domain.PlatformAbeBooks: {
		"min_price",
		"max_price",
		"sold_median",
		"seller_count",
	},
	domain.PlatformBookScouter: {
		"best_buyback",
		"buyback_vendors",
	},
}

// Schema returns the ordered feature names for a platform: the shared core
// followed by the platform's extras. Unknown platforms get the shared core
// only, which is also the unified model's schema.
func Schema(platform domain.Platform) []string {
	core := make([]string, len(SharedCoreFeatures))
	copy(core, SharedCoreFeatures)
	return append(core, platformExtras[platform]...)
}

// SharedSchema returns the unified model's schema.
func SharedSchema() []string {
	out := make([]string, len(SharedCoreFeatures))
	copy(out, SharedCoreFeatures)
	return out
}
