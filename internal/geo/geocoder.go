package geo

import (
	"context"
	"math"
)

// Coordinates is an approximate ZIP centroid.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a ZIP code to approximate coordinates. A nil result
// with a nil error means the ZIP could not be resolved; callers treat that
// as degraded precision, not failure.
type Geocoder interface {
	CoordinatesOf(ctx context.Context, zip string) (*Coordinates, error)
}

const earthRadiusMiles = 3958.8

// Distance computes the great-circle distance between services and leads.
type Distance struct {
	geocoder Geocoder
}

func NewDistance(geocoder Geocoder) *Distance {
	return &Distance{geocoder: geocoder}
}

// Miles returns the haversine distance between two ZIP centroids, or nil
// when either ZIP is unresolved.
func (d *Distance) Miles(ctx context.Context, zipA, zipB string) (*float64, error) {
	a, err := d.resolve(ctx, zipA)
	if err != nil || a == nil {
		return nil, err
	}
	b, err := d.resolve(ctx, zipB)
	if err != nil || b == nil {
		return nil, err
	}

	miles := haversineMiles(*a, *b)
	return &miles, nil
}

// WithinRadius reports whether leadZip lies within radiusMiles of
// providerZip. When either ZIP cannot be geocoded it degrades to exact
// string equality between the two ZIPs; this precision loss is deliberate
// so coverage matching keeps working outside the geocoded dataset.
func (d *Distance) WithinRadius(ctx context.Context, providerZip, leadZip string, radiusMiles float64) bool {
	if radiusMiles <= 0 {
		return providerZip == leadZip
	}

	a, errA := d.resolve(ctx, providerZip)
	b, errB := d.resolve(ctx, leadZip)
	if errA != nil || errB != nil || a == nil || b == nil {
		return providerZip == leadZip
	}

	return haversineMiles(*a, *b) <= radiusMiles
}

func (d *Distance) resolve(ctx context.Context, zip string) (*Coordinates, error) {
	if d == nil || d.geocoder == nil {
		return nil, nil
	}
	return d.geocoder.CoordinatesOf(ctx, zip)
}

func haversineMiles(a, b Coordinates) float64 {
	latA := a.Latitude * math.Pi / 180
	latB := b.Latitude * math.Pi / 180
	dLat := latB - latA
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

// StaticGeocoder serves coordinates from a fixed table. Used in tests and
// for seeding local environments.
type StaticGeocoder struct {
	table map[string]Coordinates
}

func NewStaticGeocoder(table map[string]Coordinates) *StaticGeocoder {
	copied := make(map[string]Coordinates, len(table))
	for zip, coords := range table {
		copied[zip] = coords
	}
	return &StaticGeocoder{table: copied}
}

func (g *StaticGeocoder) CoordinatesOf(_ context.Context, zip string) (*Coordinates, error) {
	coords, ok := g.table[zip]
	if !ok {
		return nil, nil
	}
	return &coords, nil
}
