package maps

import (
	"context"

	"googlemaps.github.io/maps"
)

// GeocodeService turns coordinates into a display address.
type GeocodeService struct {
	client API
}

func NewGeocodeService(client API) *GeocodeService {
	return &GeocodeService{client: client}
}

// ReverseGeocode returns the first formatted address, or nil when upstream
// reports a non-OK status or has no results. Transport failures are internal.
func (s *GeocodeService) ReverseGeocode(ctx context.Context, lat, lng float64) (*string, error) {
	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if isStatusError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(CodeInternal, "Error fetching address", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	addr := results[0].FormattedAddress
	return &addr, nil
}
