package coffee

import (
	"context"
)

// RequestStore persists the machine's BrewRecord.
// Get returns (nil, nil) when nothing has been stored yet.
type RequestStore interface {
	Get(ctx context.Context) (*BrewRecord, error)
	Update(ctx context.Context, record BrewRecord) error
}

// WeatherProvider returns the current temperature for a city.
type WeatherProvider interface {
	Temperature(ctx context.Context, city string) (float64, error)
}
