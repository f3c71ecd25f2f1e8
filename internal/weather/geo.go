package weather

import (
	"context"
	"math"
)

const earthRadiusMeters = 6371000

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Locator reports the current position.
type Locator interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// StaticLocator always reports the same configured position.
type StaticLocator Coordinate

func (l StaticLocator) Locate(context.Context) (Coordinate, error) {
	return Coordinate(l), nil
}
