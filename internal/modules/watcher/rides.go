// README: Ride cancellation watcher; fans out to every accepted passenger.
package watcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ridenotify/internal/modules/notification"
	"ridenotify/internal/modules/ride"
	"ridenotify/internal/types"
)

const ridePattern = "rides/{rideId}"

type RideCancelled struct{ deps Deps }

func NewRideCancelled(deps Deps) *RideCancelled { return &RideCancelled{deps: deps} }

func (w *RideCancelled) Name() string { return "ride_cancelled" }

func (w *RideCancelled) Matches(c Change) bool {
	if _, ok := matchPath(ridePattern, c.Path); !ok || c.Kind != KindUpdate {
		return false
	}
	before, after := rideStatuses(c)
	return before != ride.StatusCancelled && after == ride.StatusCancelled
}

// Handle reads the accepted requests at handling time and notifies each
// passenger concurrently. A failed delivery never stops the others.
func (w *RideCancelled) Handle(ctx context.Context, c Change) error {
	before, after := rideStatuses(c)
	if !ride.CanTransitionRide(before, after) {
		return fmt.Errorf("%w: ride %s -> %s", ErrRejectedTransition, before, after)
	}
	params, _ := matchPath(ridePattern, c.Path)
	rideID := types.ID(params["rideId"])
	driverID := c.After.ID("driverId")

	driver, err := w.deps.Parties.User(ctx, driverID)
	if err != nil {
		return fmt.Errorf("resolve driver %s: %w", driverID, err)
	}
	accepted, err := w.deps.Parties.AcceptedRequests(ctx, rideID)
	if err != nil {
		return fmt.Errorf("list accepted requests of %s: %w", rideID, err)
	}

	route := notification.Route{
		From: c.After.Field("from"),
		To:   c.After.Field("to"),
		Date: c.After.Field("date"),
		Time: c.After.Field("time"),
	}
	log := w.deps.logger().With(zap.String("ride", string(rideID)))

	var g errgroup.Group
	g.SetLimit(w.deps.fanOut())
	for _, req := range accepted {
		req := req
		g.Go(func() error {
			passenger, err := w.deps.Parties.User(ctx, req.PassengerID)
			if err != nil {
				log.Debug("passenger not resolved; skipping",
					zap.String("passenger", string(req.PassengerID)), zap.Error(err))
				return nil
			}
			w.deps.notify(ctx, passenger, notification.Input{
				Type:       notification.TypeRideCancelled,
				SenderName: driver.Name,
				SenderID:   driverID,
				RideID:     rideID,
				DriverID:   driverID,
				Route:      route,
			}, true)
			return nil
		})
	}
	return g.Wait()
}

func rideStatuses(c Change) (before, after ride.Status) {
	before = ride.NormalizeStatus(ride.Status(c.Before.Field("status")))
	after = ride.NormalizeStatus(ride.Status(c.After.Field("status")))
	return before, after
}
