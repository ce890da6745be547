package features

// DefaultsVersion tags the neutral-default table so substituted values can
// be audited against the models trained with them.
const DefaultsVersion = "defaults_v2"

// neutralDefaults is the value substituted for a feature when the input
// carries no real signal for it. Features absent from this table default to
// zero. Defaults mirror the medians the regression models were fit against:
// an unknown book is treated as a ~300 page, five-year-old title with no
// market presence and a very slow sales rank.
var neutralDefaults = map[string]float64{
	"page_count":     300,
	"age_years":      5,
	"log_sales_rank": logSalesRankFloor, // log1p(1,000,000): very slow mover
}
