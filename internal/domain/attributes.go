package domain

// Condition is the six-point ordinal condition grade used across the
// pipeline. The zero value means "not graded" and is treated as Good.
type Condition string

const (
	ConditionNew        Condition = "New"
	ConditionLikeNew    Condition = "Like New"
	ConditionVeryGood   Condition = "Very Good"
	ConditionGood       Condition = "Good"
	ConditionAcceptable Condition = "Acceptable"
	ConditionPoor       Condition = "Poor"
)

// Conditions lists the ordinal scale from best to worst.
func Conditions() []Condition {
	return []Condition{
		ConditionNew, ConditionLikeNew, ConditionVeryGood,
		ConditionGood, ConditionAcceptable, ConditionPoor,
	}
}

// NormalizeCondition maps free-form condition text onto the ordinal scale.
// Unknown text falls back to Good, the neutral baseline.
func NormalizeCondition(s string) Condition {
	switch Condition(s) {
	case ConditionNew, ConditionLikeNew, ConditionVeryGood,
		ConditionGood, ConditionAcceptable, ConditionPoor:
		return Condition(s)
	}
	return ConditionGood
}

// BookAttributes describes one physical book under evaluation. Everything
// except ISBN is optional; missing fields degrade feature completeness
// rather than failing the evaluation.
type BookAttributes struct {
	ISBN          string    `json:"isbn"`
	Title         string    `json:"title,omitempty"`
	Authors       []string  `json:"authors,omitempty"` // ordered, primary first
	Binding       string    `json:"binding,omitempty"` // free-form: "Hardcover", "Trade Paperback", ...
	Printing      string    `json:"printing,omitempty"` // edition label, e.g. "First Edition"
	Signed        bool      `json:"signed,omitempty"`
	Condition     Condition `json:"condition,omitempty"`
	PageCount     int       `json:"page_count,omitempty"`
	PublishedYear int       `json:"published_year,omitempty"`
	Categories    []string  `json:"categories,omitempty"`
	AverageRating float64   `json:"average_rating,omitempty"`
	RatingsCount  int       `json:"ratings_count,omitempty"`
	ListPrice     float64   `json:"list_price,omitempty"`
}
