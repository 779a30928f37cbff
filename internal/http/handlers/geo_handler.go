// README: Geolocation proxy handlers (autocomplete, place details, reverse geocode).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridenotify/internal/maps"
	"ridenotify/internal/types"
)

type Places interface {
	Autocomplete(ctx context.Context, query string) ([]maps.Prediction, error)
	PlaceDetails(ctx context.Context, placeID string) (types.Point, error)
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*string, error)
}

type GeoHandler struct {
	places   Places
	geocoder Geocoder
}

func NewGeoHandler(places Places, geocoder Geocoder) *GeoHandler {
	return &GeoHandler{places: places, geocoder: geocoder}
}

type autocompleteRequest struct {
	Query string `json:"query"`
}

func (h *GeoHandler) Autocomplete(c *gin.Context) {
	var req autocompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidArgument(c, "invalid body")
		return
	}
	predictions, err := h.places.Autocomplete(c.Request.Context(), req.Query)
	if err != nil {
		writeGeoError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"predictions": predictions})
}

type placeDetailsRequest struct {
	PlaceID string `json:"placeId"`
}

func (h *GeoHandler) PlaceDetails(c *gin.Context) {
	var req placeDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidArgument(c, "invalid body")
		return
	}
	p, err := h.places.PlaceDetails(c.Request.Context(), req.PlaceID)
	if err != nil {
		writeGeoError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"lat": p.Lat, "lng": p.Lng})
}

type reverseGeocodeRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (h *GeoHandler) ReverseGeocode(c *gin.Context) {
	var req reverseGeocodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidArgument(c, "invalid body")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		invalidArgument(c, "lat and lng are required")
		return
	}
	addr, err := h.geocoder.ReverseGeocode(c.Request.Context(), *req.Lat, *req.Lng)
	if err != nil {
		writeGeoError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"address": addr})
}
