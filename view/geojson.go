package view

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Bounds is the viewport that fits every marker.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsOf returns nil when there are no markers.
func BoundsOf(markers []Marker) *Bounds {
	if len(markers) == 0 {
		return nil
	}
	mp := make(orb.MultiPoint, 0, len(markers))
	for _, m := range markers {
		mp = append(mp, orb.Point{m.Lng, m.Lat})
	}
	b := mp.Bound()
	return &Bounds{
		South: b.Min.Lat(),
		West:  b.Min.Lon(),
		North: b.Max.Lat(),
		East:  b.Max.Lon(),
	}
}

// FeatureCollection encodes markers as GeoJSON points for map widgets that
// take a layer instead of individual pins.
func FeatureCollection(markers []Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, m := range markers {
		f := geojson.NewFeature(orb.Point{m.Lng, m.Lat})
		f.Properties["label"] = m.Label
		f.Properties["index"] = i
		fc.Append(f)
	}
	return fc
}
