package geocode

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/contractors/utils"
	"googlemaps.github.io/maps"
)

var ErrNoResults = utils.PermError("location not found")

type (
	// Geocoder resolves a free-form location to coordinates.
	Geocoder interface {
		Geocode(ctx context.Context, location string) (LatLng, error)
	}

	LatLng struct {
		Lat float64
		Lng float64
	}

	GoogleGeocoder struct {
		client *maps.Client
	}
)

func NewGoogleGeocoder(apiKey string, opts ...maps.ClientOption) (*GoogleGeocoder, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("error in maps.NewClient: %w", err)
	}
	return &GoogleGeocoder{client: c}, nil
}

// Geocode returns the location of the first (best) match.
func (g *GoogleGeocoder) Geocode(ctx context.Context, location string) (LatLng, error) {
	res, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: location})
	if err != nil {
		return LatLng{}, fmt.Errorf("error in maps Geocode: %w", err)
	}
	if len(res) == 0 {
		return LatLng{}, ErrNoResults
	}
	loc := res[0].Geometry.Location
	return LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}
