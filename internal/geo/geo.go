// Package geo resolves the caller's position and measures distances between courts.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultCoordinate is used whenever the caller's position cannot be determined
// (Central Park, New York).
var DefaultCoordinate = models.Coordinate{Lat: 40.785091, Lng: -73.968285}

// ErrLocationUnavailable means the position was denied, unsupported or malformed.
var ErrLocationUnavailable = errors.New("location unavailable")

const earthRadiusKm = 6371.0

// Locator yields the current position of a caller.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinate, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (models.Coordinate, error)

func (f LocatorFunc) Locate(ctx context.Context) (models.Coordinate, error) { return f(ctx) }

// Resolve asks loc for a position and falls back to DefaultCoordinate on any failure.
// It never returns an error.
func Resolve(ctx context.Context, loc Locator, logger logrus.FieldLogger) models.Coordinate {
	if loc == nil {
		return DefaultCoordinate
	}
	c, err := loc.Locate(ctx)
	if err != nil {
		if logger != nil {
			logger.WithError(err).Debug("falling back to default coordinate")
		}
		return DefaultCoordinate
	}
	return c
}

// QueryLocator reads a position from the lat and lng query parameters.
type QueryLocator url.Values

func (q QueryLocator) Locate(ctx context.Context) (models.Coordinate, error) {
	v := url.Values(q)
	latStr, lngStr := v.Get("lat"), v.Get("lng")
	if latStr == "" || lngStr == "" {
		return models.Coordinate{}, ErrLocationUnavailable
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: lat: %v", ErrLocationUnavailable, err)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: lng: %v", ErrLocationUnavailable, err)
	}
	c := models.Coordinate{Lat: lat, Lng: lng}
	if !Valid(c) {
		return models.Coordinate{}, fmt.Errorf("%w: out of range", ErrLocationUnavailable)
	}
	return c, nil
}

// Valid reports whether c lies within the WGS84 bounds.
func Valid(c models.Coordinate) bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b models.Coordinate) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
