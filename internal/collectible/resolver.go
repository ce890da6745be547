package collectible

import (
	"fmt"
	"strings"

	"github.com/shelfside/bookrun/internal/domain"
)

// firstEditionFraction discounts an unsigned first edition against the
// signed multiplier; the floor keeps any famous-author first at 2x minimum.
const (
	firstEditionFraction  = 0.25
	firstEditionFloor     = 2.0
	awardUnsignedFraction = 0.3
)

// Resolver probes the fame table with normalized name variants. Stateless
// over an immutable table; safe for concurrent use.
type Resolver struct {
	table *Table
}

// NewResolver wraps a loaded table. A nil table falls back to the built-in.
func NewResolver(table *Table) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{table: table}
}

// NameVariants generates the ordered lookup strategies for an author name:
// the cleaned original, then — when the name matches a "Last,First" comma
// pattern — the reordered "First Last" form. Punctuation other than the
// structural comma is stripped, so "CLANCY, Tom." probes as "tom clancy".
func NameVariants(name string) []string {
	cleaned := stripPunctuation(name)
	lower := strings.ToLower(strings.TrimSpace(cleaned))
	if lower == "" {
		return nil
	}
	variants := []string{lower}
	if strings.Contains(name, ",") {
		parts := strings.SplitN(lower, ",", 2)
		if len(parts) == 2 {
			last := strings.TrimSpace(parts[0])
			first := strings.TrimSpace(parts[1])
			if last != "" && first != "" {
				variants = append(variants, first+" "+last)
			}
		}
	}
	return variants
}

func stripPunctuation(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '\'', '"', '!', '?', ';', ':', '(', ')', '[', ']':
			return -1
		}
		return r
	}, name)
}

// lookup probes the people table with each variant, following aliases.
// First hit wins.
func (r *Resolver) lookup(author string) (string, Person, bool) {
	for _, variant := range NameVariants(author) {
		if p, ok := r.table.People[variant]; ok {
			return variant, p, true
		}
		if canonical, ok := r.table.Aliases[variant]; ok {
			if p, ok := r.table.People[canonical]; ok {
				return canonical, p, true
			}
		}
	}
	return "", Person{}, false
}

// Resolve looks up author fame in order; resolution stops at the first
// matching author and never merges across authors. No match is the common,
// non-error case.
func (r *Resolver) Resolve(authors []string) domain.CollectibleInfo {
	for _, author := range authors {
		name, person, ok := r.lookup(author)
		if !ok {
			continue
		}
		return domain.CollectibleInfo{
			IsCollectible:  true,
			Type:           domain.CollectibleSignedFamous,
			FameMultiplier: person.SignedMultiplier,
			FamousPerson:   name,
			FameTier:       person.Tier,
			Awards:         person.Awards,
			Notes:          person.Notes,
		}
	}
	return domain.NotCollectible()
}

// Detect applies the full collectible decision for a book: signed famous
// authors first, then famous-author first editions, award winners, known
// printing points, and collectible series. Checks run in value order; the
// first hit wins.
func (r *Resolver) Detect(attrs domain.BookAttributes) domain.CollectibleInfo {
	firstEdition := isFirstEdition(attrs.Printing)

	if attrs.Signed {
		if info := r.Resolve(attrs.Authors); info.IsCollectible {
			return info
		}
	}

	if firstEdition {
		if info := r.firstEditionFamous(attrs.Authors); info.IsCollectible {
			return info
		}
		if info := r.awardWinner(attrs.Title, attrs.Authors); info.IsCollectible {
			return info
		}
	}

	if info := r.printingError(attrs.Title); info.IsCollectible {
		return info
	}

	if info := r.famousSeries(attrs.Title, firstEdition); info.IsCollectible {
		return info
	}

	return domain.NotCollectible()
}

func (r *Resolver) firstEditionFamous(authors []string) domain.CollectibleInfo {
	for _, author := range authors {
		name, person, ok := r.lookup(author)
		if !ok {
			continue
		}
		mult := person.SignedMultiplier * firstEditionFraction
		if mult < firstEditionFloor {
			mult = firstEditionFloor
		}
		return domain.CollectibleInfo{
			IsCollectible:  true,
			Type:           domain.CollectibleSignedFamous,
			FameMultiplier: mult,
			FamousPerson:   name,
			FameTier:       person.Tier,
			Awards:         person.Awards,
			Notes:          fmt.Sprintf("unsigned first edition by %s", name),
		}
	}
	return domain.NotCollectible()
}

// awardWinner reuses the same normalized-variant lookup against award
// metadata: award names appearing in the title, or authors whose fame tier
// is award_winner.
func (r *Resolver) awardWinner(title string, authors []string) domain.CollectibleInfo {
	titleLower := strings.ToLower(title)
	for award, mult := range r.table.Awards {
		if titleLower != "" && strings.Contains(titleLower, award) {
			return domain.CollectibleInfo{
				IsCollectible:  true,
				Type:           domain.CollectibleAwardWinner,
				FameMultiplier: mult,
				Awards:         []string{award},
				Notes:          fmt.Sprintf("first edition of %s winner", award),
			}
		}
	}
	for _, author := range authors {
		name, person, ok := r.lookup(author)
		if !ok || person.Tier != "award_winner" {
			continue
		}
		return domain.CollectibleInfo{
			IsCollectible:  true,
			Type:           domain.CollectibleAwardWinner,
			FameMultiplier: maxf(person.SignedMultiplier*awardUnsignedFraction, 1.0),
			FamousPerson:   name,
			FameTier:       person.Tier,
			Awards:         person.Awards,
			Notes:          fmt.Sprintf("first edition by %s winner", strings.Join(person.Awards, ", ")),
		}
	}
	return domain.NotCollectible()
}

func (r *Resolver) printingError(title string) domain.CollectibleInfo {
	titleLower := strings.ToLower(title)
	if titleLower == "" {
		return domain.NotCollectible()
	}
	for key, point := range r.table.Printing {
		if strings.Contains(titleLower, key) {
			return domain.CollectibleInfo{
				IsCollectible:  true,
				Type:           domain.CollectiblePrintingError,
				FameMultiplier: point.Multiplier,
				Notes:          point.Notes,
			}
		}
	}
	return domain.NotCollectible()
}

func (r *Resolver) famousSeries(title string, firstEdition bool) domain.CollectibleInfo {
	titleLower := strings.ToLower(title)
	if titleLower == "" {
		return domain.NotCollectible()
	}
	for series, entry := range r.table.Series {
		if !strings.Contains(titleLower, series) {
			continue
		}
		mult := entry.LaterMultiplier
		if firstEdition {
			mult = entry.FirstEditionMultiplier
		}
		return domain.CollectibleInfo{
			IsCollectible:  true,
			Type:           domain.CollectibleSeries,
			FameMultiplier: mult,
			Notes:          entry.Notes,
		}
	}
	return domain.NotCollectible()
}

func isFirstEdition(printing string) bool {
	p := strings.ToLower(printing)
	return strings.Contains(p, "first") || strings.Contains(p, "1st")
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
