package maps

import (
	"context"
	"strings"

	"googlemaps.github.io/maps"

	"ridenotify/internal/types"
)

const (
	minQueryLength = 2
	maxPredictions = 5
)

// Bias steers autocomplete toward the service area.
type Bias struct {
	Center  types.Point
	RadiusM uint
	Country string
}

// Prediction is a trimmed autocomplete suggestion.
type Prediction struct {
	PlaceID     string `json:"placeId"`
	Description string `json:"description"`
}

// PlacesService proxies Places autocomplete and details lookups.
type PlacesService struct {
	client API
	bias   Bias
}

func NewPlacesService(client API, bias Bias) *PlacesService {
	return &PlacesService{client: client, bias: bias}
}

// Autocomplete returns at most five predictions. Queries shorter than two
// characters after trimming return an empty list without calling upstream.
func (s *PlacesService) Autocomplete(ctx context.Context, query string) ([]Prediction, error) {
	if len([]rune(strings.TrimSpace(query))) < minQueryLength {
		return []Prediction{}, nil
	}

	r := &maps.PlaceAutocompleteRequest{
		Input:    query,
		Location: &maps.LatLng{Lat: s.bias.Center.Lat, Lng: s.bias.Center.Lng},
		Radius:   s.bias.RadiusM,
		Types:    maps.AutocompletePlaceType("establishment|geocode"),
	}
	if s.bias.Country != "" {
		r.Components = map[maps.Component][]string{maps.ComponentCountry: {s.bias.Country}}
	}

	resp, err := s.client.PlaceAutocomplete(ctx, r)
	if err != nil {
		return nil, newError(CodeInternal, "Error fetching location suggestions", err)
	}

	out := make([]Prediction, 0, maxPredictions)
	for _, p := range resp.Predictions {
		if len(out) >= maxPredictions {
			break
		}
		out = append(out, Prediction{PlaceID: p.PlaceID, Description: p.Description})
	}
	return out, nil
}

// PlaceDetails resolves a place id to its coordinates.
func (s *PlacesService) PlaceDetails(ctx context.Context, placeID string) (types.Point, error) {
	if strings.TrimSpace(placeID) == "" {
		return types.Point{}, newError(CodeInvalidArgument, "placeId is required", nil)
	}

	res, err := s.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields:  []maps.PlaceDetailsFieldMask{maps.PlaceDetailsFieldMaskGeometry},
	})
	if err != nil {
		return types.Point{}, newError(CodeInternal, "Error fetching place details", err)
	}

	loc := res.Geometry.Location
	if loc.Lat == 0 && loc.Lng == 0 {
		return types.Point{}, newError(CodeNotFound, "Location not found for this place", nil)
	}
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
