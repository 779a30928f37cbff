package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	gmaps "googlemaps.github.io/maps"

	"ridenotify/internal/http/handlers"
	"ridenotify/internal/maps"
)

type stubMapsAPI struct {
	predictions []gmaps.AutocompletePrediction
	location    gmaps.LatLng
	addresses   []gmaps.GeocodingResult
	err         error
	calls       int
}

func (s *stubMapsAPI) PlaceAutocomplete(context.Context, *gmaps.PlaceAutocompleteRequest) (gmaps.AutocompleteResponse, error) {
	s.calls++
	return gmaps.AutocompleteResponse{Predictions: s.predictions}, s.err
}

func (s *stubMapsAPI) PlaceDetails(context.Context, *gmaps.PlaceDetailsRequest) (gmaps.PlaceDetailsResult, error) {
	s.calls++
	var res gmaps.PlaceDetailsResult
	res.Geometry.Location = s.location
	return res, s.err
}

func (s *stubMapsAPI) ReverseGeocode(context.Context, *gmaps.GeocodingRequest) ([]gmaps.GeocodingResult, error) {
	s.calls++
	return s.addresses, s.err
}

func buildGeoRouter(api *stubMapsAPI, verifier *stubTokenVerifier) *gin.Engine {
	r := newAuthedEngine(verifier)
	h := handlers.NewGeoHandler(maps.NewPlacesService(api, maps.Bias{RadiusM: 50000, Country: "bh"}), maps.NewGeocodeService(api))
	r.POST("/api/geo/autocomplete", h.Autocomplete)
	r.POST("/api/geo/place-details", h.PlaceDetails)
	r.POST("/api/geo/reverse-geocode", h.ReverseGeocode)
	return r
}

func TestGeo_Unauthenticated(t *testing.T) {
	api := &stubMapsAPI{}
	r := buildGeoRouter(api, &stubTokenVerifier{err: errors.New("no token")})
	w := doRequest(r, http.MethodPost, "/api/geo/autocomplete", map[string]any{"query": "Seef"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if decode(w)["code"] != "unauthenticated" {
		t.Fatalf("expected unauthenticated code, got %s", w.Body.String())
	}
	if api.calls != 0 {
		t.Fatal("upstream must not be called")
	}
}

func TestGeo_AutocompleteShortQuery(t *testing.T) {
	api := &stubMapsAPI{}
	r := buildGeoRouter(api, makeVerifier("u1", ""))
	w := doRequest(r, http.MethodPost, "/api/geo/autocomplete", map[string]any{"query": "a"}, "Bearer t")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	preds, ok := decode(w)["predictions"].([]any)
	if !ok || len(preds) != 0 || api.calls != 0 {
		t.Fatalf("expected empty predictions without upstream call, got %s", w.Body.String())
	}
}

func TestGeo_AutocompleteReturnsPredictions(t *testing.T) {
	api := &stubMapsAPI{predictions: []gmaps.AutocompletePrediction{{PlaceID: "p1", Description: "Seef Mall"}}}
	r := buildGeoRouter(api, makeVerifier("u1", ""))
	w := doRequest(r, http.MethodPost, "/api/geo/autocomplete", map[string]any{"query": "Seef"}, "Bearer t")
	preds := decode(w)["predictions"].([]any)
	first := preds[0].(map[string]any)
	if first["placeId"] != "p1" || first["description"] != "Seef Mall" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestGeo_AutocompleteUpstreamFailure(t *testing.T) {
	api := &stubMapsAPI{err: errors.New("maps: REQUEST_DENIED - key")}
	r := buildGeoRouter(api, makeVerifier("u1", ""))
	w := doRequest(r, http.MethodPost, "/api/geo/autocomplete", map[string]any{"query": "Seef"}, "Bearer t")
	if w.Code != http.StatusInternalServerError || decode(w)["code"] != "internal" {
		t.Fatalf("expected 500 internal, got %d %s", w.Code, w.Body.String())
	}
}

func TestGeo_PlaceDetails(t *testing.T) {
	api := &stubMapsAPI{location: gmaps.LatLng{Lat: 26.1, Lng: 50.5}}
	r := buildGeoRouter(api, makeVerifier("u1", ""))

	w := doRequest(r, http.MethodPost, "/api/geo/place-details", map[string]any{"placeId": "p1"}, "Bearer t")
	body := decode(w)
	if w.Code != http.StatusOK || body["lat"] != 26.1 || body["lng"] != 50.5 {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/api/geo/place-details", map[string]any{}, "Bearer t")
	if w.Code != http.StatusBadRequest || decode(w)["code"] != "invalid-argument" {
		t.Fatalf("expected 400 invalid-argument, got %d %s", w.Code, w.Body.String())
	}

	api.location = gmaps.LatLng{}
	w = doRequest(r, http.MethodPost, "/api/geo/place-details", map[string]any{"placeId": "p1"}, "Bearer t")
	if w.Code != http.StatusNotFound || decode(w)["code"] != "not-found" {
		t.Fatalf("expected 404 not-found, got %d %s", w.Code, w.Body.String())
	}
}

func TestGeo_ReverseGeocode(t *testing.T) {
	api := &stubMapsAPI{addresses: []gmaps.GeocodingResult{{FormattedAddress: "Seef, Bahrain"}}}
	r := buildGeoRouter(api, makeVerifier("u1", ""))

	w := doRequest(r, http.MethodPost, "/api/geo/reverse-geocode", map[string]any{"lat": 26.2, "lng": 50.5}, "Bearer t")
	if w.Code != http.StatusOK || decode(w)["address"] != "Seef, Bahrain" {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/api/geo/reverse-geocode", map[string]any{"lat": 26.2}, "Bearer t")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	api.err = errors.New("maps: OVER_QUERY_LIMIT - quota")
	w = doRequest(r, http.MethodPost, "/api/geo/reverse-geocode", map[string]any{"lat": 0, "lng": 0}, "Bearer t")
	body := decode(w)
	if addr, present := body["address"]; w.Code != http.StatusOK || !present || addr != nil {
		t.Fatalf("expected null address, got %d %s", w.Code, w.Body.String())
	}
}
