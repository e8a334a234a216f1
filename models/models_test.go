package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurantUnmarshalBackendSpellings(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantPrice int
		wantCode  string
	}{
		{"camel case", `{"name":"Noma","priceLevel":3,"postalCode":"1401"}`, 3, "1401"},
		{"snake case price", `{"name":"Noma","price_level":2,"postNummer":"1401"}`, 2, "1401"},
		{"missing price", `{"name":"Noma","postNummer":"2200"}`, UnknownPriceLevel, "2200"},
		{"null price", `{"name":"Noma","priceLevel":null}`, UnknownPriceLevel, ""},
		{"zero price", `{"name":"Noma","priceLevel":0}`, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Restaurant
			require.NoError(t, json.Unmarshal([]byte(tt.body), &r))
			assert.Equal(t, "Noma", r.Name)
			assert.Equal(t, tt.wantPrice, r.PriceLevel)
			assert.Equal(t, tt.wantCode, r.PostalCode)
			assert.Nil(t, r.Distance)
			assert.Nil(t, r.WeightedScore)
		})
	}
}

func TestRestaurantCloneIsDeep(t *testing.T) {
	d := 1.5
	r := &Restaurant{Name: "A", Distance: &d}

	c := r.Clone()
	*c.Distance = 9

	assert.Equal(t, 1.5, *r.Distance)
	c.ClearDerived()
	assert.NotNil(t, r.Distance)
	assert.Nil(t, c.Distance)
}

func TestCloneAllSkipsNil(t *testing.T) {
	out := CloneAll([]*Restaurant{{Name: "A"}, nil, {Name: "B"}})
	require.Len(t, out, 2)
	assert.Equal(t, "B", out[1].Name)
	assert.Empty(t, CloneAll(nil))
}

func TestParseSortMethod(t *testing.T) {
	m, err := ParseSortMethod("  Weighted ")
	require.NoError(t, err)
	assert.Equal(t, SortWeighted, m)

	_, err = ParseSortMethod("alphabetical")
	assert.Error(t, err)

	assert.True(t, SortKNN.NeedsLocation())
	assert.True(t, SortDistance.NeedsLocation())
	assert.False(t, SortRating.NeedsLocation())
	assert.False(t, SortPrice.NeedsLocation())
}
