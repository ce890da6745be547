package collectible

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/bookrun/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNameVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain name", "Frank Herbert", []string{"frank herbert"}},
		{"comma reorders", "Herbert,Frank", []string{"herbert,frank", "frank herbert"}},
		{"comma with space", "Herbert, Frank", []string{"herbert, frank", "frank herbert"}},
		{"punctuation stripped", "CLANCY, Tom.", []string{"clancy, tom", "tom clancy"}},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NameVariants(tt.in))
		})
	}
}

func TestResolveNameForms(t *testing.T) {
	r := NewResolver(nil)

	// Every surface form of the same name resolves to the same entry.
	forms := []string{"Frank Herbert", "frank herbert", "Herbert,Frank", "Herbert, Frank", "FRANK HERBERT"}
	for _, form := range forms {
		info := r.Resolve([]string{form})
		require.True(t, info.IsCollectible, "form %q", form)
		assert.Equal(t, 100.0, info.FameMultiplier, "form %q", form)
		assert.Equal(t, "frank herbert", info.FamousPerson)
	}
}

func TestResolveAlias(t *testing.T) {
	r := NewResolver(nil)
	info := r.Resolve([]string{"Richard Bachman"})
	require.True(t, info.IsCollectible)
	assert.Equal(t, "stephen king", info.FamousPerson)
	assert.Equal(t, 50.0, info.FameMultiplier)
}

func TestResolveFirstHitWins(t *testing.T) {
	r := NewResolver(nil)
	info := r.Resolve([]string{"Unknown Person", "Neil Gaiman", "Stephen King"})
	require.True(t, info.IsCollectible)
	assert.Equal(t, "neil gaiman", info.FamousPerson)
	assert.Equal(t, 15.0, info.FameMultiplier)
}

func TestResolveNoMatch(t *testing.T) {
	r := NewResolver(nil)
	info := r.Resolve([]string{"Jane Nobody"})
	assert.False(t, info.IsCollectible)
	assert.Equal(t, 1.0, info.FameMultiplier)
	assert.Equal(t, domain.CollectibleNone, info.Type)
}

func TestDetectSignedFamous(t *testing.T) {
	r := NewResolver(nil)
	info := r.Detect(domain.BookAttributes{
		ISBN:    "9780441013593",
		Title:   "Dune Messiah",
		Authors: []string{"Herbert,Frank"},
		Signed:  true,
	})
	require.True(t, info.IsCollectible)
	assert.Equal(t, domain.CollectibleSignedFamous, info.Type)
	assert.Equal(t, 100.0, info.FameMultiplier)
}

func TestDetectUnsignedFirstEdition(t *testing.T) {
	r := NewResolver(nil)
	info := r.Detect(domain.BookAttributes{
		Title:    "The Stand",
		Authors:  []string{"Stephen King"},
		Printing: "First Edition",
	})
	require.True(t, info.IsCollectible)
	assert.Equal(t, domain.CollectibleSignedFamous, info.Type)
	// Quarter of the signed multiplier.
	assert.Equal(t, 12.5, info.FameMultiplier)
}

func TestDetectFirstEditionFloor(t *testing.T) {
	r := NewResolver(nil)
	// 15.0 * 0.25 = 3.75, above the floor; craft a table entry below it.
	table := DefaultTable()
	table.People["minor author"] = Person{Tier: "major_author", SignedMultiplier: 4.0}
	r = NewResolver(table)

	info := r.Detect(domain.BookAttributes{
		Title:    "Obscure Work",
		Authors:  []string{"Minor Author"},
		Printing: "1st printing",
	})
	require.True(t, info.IsCollectible)
	assert.Equal(t, 2.0, info.FameMultiplier)
}

func TestDetectAwardInTitle(t *testing.T) {
	r := NewResolver(nil)
	info := r.Detect(domain.BookAttributes{
		Title:    "The Road: Winner of the Pulitzer Prize",
		Authors:  []string{"Somebody Unknown"},
		Printing: "First Edition",
	})
	require.True(t, info.IsCollectible)
	assert.Equal(t, domain.CollectibleAwardWinner, info.Type)
	assert.Equal(t, 3.0, info.FameMultiplier)
}

func TestDetectPrintingError(t *testing.T) {
	r := NewResolver(nil)
	info := r.Detect(domain.BookAttributes{
		Title: "Harry Potter and the Philosopher's Stone",
	})
	require.True(t, info.IsCollectible)
	assert.Equal(t, domain.CollectiblePrintingError, info.Type)
	assert.Equal(t, 20.0, info.FameMultiplier)
}

func TestDetectSeries(t *testing.T) {
	r := NewResolver(nil)

	later := r.Detect(domain.BookAttributes{Title: "Dune Messiah"})
	require.True(t, later.IsCollectible)
	assert.Equal(t, domain.CollectibleSeries, later.Type)
	assert.Equal(t, 2.0, later.FameMultiplier)

	first := r.Detect(domain.BookAttributes{Title: "Dune Messiah", Printing: "First Edition"})
	require.True(t, first.IsCollectible)
	assert.Equal(t, 15.0, first.FameMultiplier)
}

func TestDetectNotCollectible(t *testing.T) {
	r := NewResolver(nil)
	info := r.Detect(domain.BookAttributes{
		Title:   "Intro to Accounting",
		Authors: []string{"Jane Nobody"},
	})
	assert.False(t, info.IsCollectible)
	assert.Equal(t, 1.0, info.FameMultiplier)
}

func TestLoadTableValidation(t *testing.T) {
	dir := t.TempDir()

	valid := dir + "/fame.yaml"
	writeFile(t, valid, `
version: test_v1
people:
  Test Author:
    tier: major_author
    signed_multiplier: 12.0
aliases:
  t author: test author
awards:
  pulitzer: 3.0
`)
	table, err := LoadTable(valid)
	require.NoError(t, err)
	_, ok := table.People["test author"]
	assert.True(t, ok, "keys normalized to lowercase")

	bad := dir + "/bad.yaml"
	writeFile(t, bad, `
people:
  someone:
    tier: major_author
    signed_multiplier: 0.5
`)
	_, err = LoadTable(bad)
	assert.Error(t, err, "multiplier below 1.0 rejected")

	danglingAlias := dir + "/alias.yaml"
	writeFile(t, danglingAlias, `
people:
  someone:
    tier: major_author
    signed_multiplier: 5.0
aliases:
  ghost: nobody
`)
	_, err = LoadTable(danglingAlias)
	assert.Error(t, err, "alias to unknown person rejected")
}

func TestLoadTableRejectsDiscountMultipliers(t *testing.T) {
	// Any table entry at or below 1.0 would let Detect report a collectible
	// whose multiplier discounts the price instead of boosting it.
	cases := []struct {
		name string
		yaml string
	}{
		{"award below 1.0", `
awards:
  pulitzer: 0.5
`},
		{"award exactly 1.0", `
awards:
  pulitzer: 1.0
`},
		{"printing point below 1.0", `
printing_points:
  some misprint:
    multiplier: 0.9
`},
		{"series later multiplier at 1.0", `
series:
  some series:
    first_edition_multiplier: 5.0
    later_multiplier: 1.0
`},
		{"person at 1.0", `
people:
  someone:
    tier: major_author
    signed_multiplier: 1.0
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := t.TempDir() + "/fame.yaml"
			writeFile(t, path, tc.yaml)
			_, err := LoadTable(path)
			assert.Error(t, err)
		})
	}
}

func TestDetectNeverDiscountsFromLoadedTable(t *testing.T) {
	path := t.TempDir() + "/fame.yaml"
	writeFile(t, path, `
version: test_v1
awards:
  pulitzer: 2.0
`)
	table, err := LoadTable(path)
	require.NoError(t, err)

	r := NewResolver(table)
	info := r.Detect(domain.BookAttributes{
		Title:    "Winner of the Pulitzer Prize",
		Printing: "First Edition",
	})
	require.True(t, info.IsCollectible)
	assert.Greater(t, info.FameMultiplier, 1.0)
}
