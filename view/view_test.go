package view

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"restaurantfinder/models"
)

func ptr(f float64) *float64 { return &f }

func sample() []*models.Restaurant {
	return []*models.Restaurant{
		{Name: "Noma", Address: "Refshalevej 96", Lat: 55.6828, Lng: 12.6105, Rating: 4.7, PriceLevel: 3, Distance: ptr(2.345)},
		{Name: "Gasoline Grill", Address: "Landgreven 10", Lat: 55.6838, Lng: 12.5861, Rating: 4.5, PriceLevel: 0, Distance: ptr(0.4)},
		{Name: "Æblehaven", Address: "Nørrebrogade 1", Lat: 55.6900, Lng: 12.5500, Rating: 0, PriceLevel: -1},
	}
}

func TestPriceSymbols(t *testing.T) {
	tests := map[int]string{-1: "?", 0: "$", 1: "$$", 2: "$$$", 3: "$$$$", 4: "?"}
	for level, want := range tests {
		assert.Equal(t, want, PriceSymbols(level), "level %d", level)
	}
}

func TestFormatDistance(t *testing.T) {
	p := message.NewPrinter(language.English)
	assert.Equal(t, "400 m", FormatDistance(p, 0.4))
	assert.Equal(t, "2.3 km", FormatDistance(p, 2.345))
	assert.Equal(t, "0 m", FormatDistance(p, 0))
	assert.Equal(t, "", FormatDistance(p, math.NaN()))
	assert.Equal(t, "", FormatDistance(p, math.Inf(1)))
}

func TestBuildMapsItemsAndMarkers(t *testing.T) {
	rs := sample()
	v := Build(State{Displayed: rs, Total: 5, HasData: true, SortMethod: models.SortRating, MaxPrice: 3})

	require.Len(t, v.Items, 3)
	require.Len(t, v.Markers, 3)
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, 5, v.Total)
	assert.False(t, v.Empty)

	assert.Equal(t, "Noma", v.Items[0].Name)
	assert.Equal(t, "$$$$", v.Items[0].Price)
	assert.Equal(t, "4.7 ★", v.Items[0].RatingText)
	assert.Equal(t, "2.3 km", v.Items[0].DistanceText)
	assert.Equal(t, "400 m", v.Items[1].DistanceText)
	assert.Equal(t, "-", v.Items[2].RatingText)
	assert.Equal(t, "?", v.Items[2].Price)
	assert.Nil(t, v.Items[2].Distance)

	assert.Equal(t, Marker{Lat: 55.6828, Lng: 12.6105, Label: "Noma"}, v.Markers[0])

	require.NotNil(t, v.Bounds)
	assert.Equal(t, 55.6828, v.Bounds.South)
	assert.Equal(t, 55.69, v.Bounds.North)
	assert.Equal(t, 12.55, v.Bounds.West)
	assert.Equal(t, 12.6105, v.Bounds.East)
}

func TestBuildEmptyStates(t *testing.T) {
	v := Build(State{})
	assert.False(t, v.Empty)
	assert.Empty(t, v.Message)
	assert.Nil(t, v.Bounds)

	v = Build(State{HasData: true})
	assert.True(t, v.Empty)
	assert.Equal(t, "No restaurants found", v.Message)

	v = Build(State{HasData: true, Total: 4})
	assert.True(t, v.Empty)
	assert.Equal(t, "No restaurants match the current filters", v.Message)
}

func TestBuildNonFiniteScoresStayEncodable(t *testing.T) {
	rs := []*models.Restaurant{
		{Name: "Here", Rating: 4, Distance: ptr(0), WeightedScore: ptr(math.Inf(1))},
		{Name: "Nowhere", Rating: 4, Distance: ptr(math.NaN()), WeightedScore: ptr(math.NaN())},
		{Name: "There", Rating: 4, Distance: ptr(2), WeightedScore: ptr(2.95)},
	}
	v := Build(State{Displayed: rs, Total: 3, HasData: true})

	assert.Equal(t, "∞", v.Items[0].WeightedText)
	assert.Nil(t, v.Items[0].WeightedScore)
	assert.Equal(t, "n/a", v.Items[1].WeightedText)
	assert.Nil(t, v.Items[1].Distance)
	assert.Equal(t, "2.95", v.Items[2].WeightedText)

	_, err := json.Marshal(v)
	assert.NoError(t, err)
}

func TestDetailOf(t *testing.T) {
	d := DetailOf(language.English, 1, sample()[1])
	assert.Equal(t, 1, d.Index)
	assert.Equal(t, "Gasoline Grill", d.Name)
	assert.Equal(t, "$", d.Price)
	assert.Equal(t, 55.6838, d.Lat)
}

func TestFeatureCollection(t *testing.T) {
	v := Build(State{Displayed: sample(), Total: 3, HasData: true})
	fc := FeatureCollection(v.Markers)

	require.Len(t, fc.Features, 3)
	assert.Equal(t, "Noma", fc.Features[0].Properties["label"])

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"FeatureCollection"`)
	assert.Contains(t, string(raw), `[12.6105,55.6828]`)
}

func TestWriteTable(t *testing.T) {
	v := Build(State{Displayed: sample(), Total: 3, HasData: true, SortMethod: models.SortDistance})

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, v))
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, out, "Æblehaven")
	assert.Contains(t, out, "3 of 3 restaurants, sorted by distance")

	// Name column starts at the same cell on every row.
	nomaRow, aebleRow := lines[2], lines[4]
	assert.Equal(t, strings.Index(nomaRow, "Noma"), strings.Index(aebleRow, "Æ"))
}

func TestWriteTableMessageOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, Build(State{HasData: true})))
	assert.Equal(t, "No restaurants found\n", buf.String())
}
