// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ridenotify/internal/http/handlers"
	"ridenotify/internal/http/middleware"
	"ridenotify/internal/infra"
)

const adminRole = "admin"

type ServerDeps struct {
	Verifier infra.TokenVerifier
	Places   handlers.Places
	Geocoder handlers.Geocoder
	Events   handlers.ChangeDispatcher
	Sweeper  handlers.SweepRunner
	// History is nil when the journal is disabled.
	History handlers.SweepHistory
	// Deliveries is nil when the journal is disabled.
	Deliveries handlers.DeliveryCounter
	Log        *zap.Logger
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(s.deps.Log), middleware.Logging(s.deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	authed := r.Group("/", middleware.Auth(s.deps.Verifier))

	geo := handlers.NewGeoHandler(s.deps.Places, s.deps.Geocoder)
	authed.POST("/api/geo/autocomplete", geo.Autocomplete)
	authed.POST("/api/geo/place-details", geo.PlaceDetails)
	authed.POST("/api/geo/reverse-geocode", geo.ReverseGeocode)

	admin := authed.Group("/internal", middleware.RequireRole(adminRole))

	events := handlers.NewEventHandler(s.deps.Events)
	admin.POST("/events", events.Ingest)

	sweeps := handlers.NewSweepHandler(s.deps.Sweeper, s.deps.History)
	admin.POST("/sweeps", sweeps.Run)
	admin.GET("/sweeps", sweeps.Recent)

	deliveries := handlers.NewDeliveryHandler(s.deps.Deliveries)
	admin.GET("/deliveries/:recipientId", deliveries.Counts)

	return r
}
