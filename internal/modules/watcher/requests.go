// README: Request lifecycle watchers; created, accepted/declined and passenger cancellation.
package watcher

import (
	"context"
	"fmt"

	"ridenotify/internal/modules/notification"
	"ridenotify/internal/modules/ride"
	"ridenotify/internal/types"
)

const (
	rideRequestPattern       = "rides/{rideId}/requests/{requestId}"
	standaloneRequestPattern = "ride_requests/{requestId}"
)

// RequestCreated tells the driver a passenger asked to join.
type RequestCreated struct{ deps Deps }

func NewRequestCreated(deps Deps) *RequestCreated { return &RequestCreated{deps: deps} }

func (w *RequestCreated) Name() string { return "request_created" }

func (w *RequestCreated) Matches(c Change) bool {
	_, ok := matchPath(rideRequestPattern, c.Path)
	return ok && c.Kind == KindCreate && c.After != nil
}

func (w *RequestCreated) Handle(ctx context.Context, c Change) error {
	params, _ := matchPath(rideRequestPattern, c.Path)
	rideID, requestID := types.ID(params["rideId"]), types.ID(params["requestId"])

	rd, driver, err := w.deps.Parties.RideWithDriver(ctx, rideID)
	if err != nil {
		return fmt.Errorf("resolve ride %s: %w", rideID, err)
	}
	passengerID := c.After.ID("passengerId")
	passenger, err := w.deps.Parties.User(ctx, passengerID)
	if err != nil {
		return fmt.Errorf("resolve passenger %s: %w", passengerID, err)
	}

	w.deps.notify(ctx, driver, notification.Input{
		Type:        notification.TypeRideRequest,
		SenderName:  passenger.Name,
		SenderID:    passengerID,
		RideID:      rideID,
		RequestID:   requestID,
		PassengerID: passengerID,
		Route:       notification.Route{From: rd.From, To: rd.To},
	}, true)
	return nil
}

// RequestDecision tells the passenger the driver accepted or declined.
type RequestDecision struct {
	deps   Deps
	target ride.RequestStatus
}

func NewRequestDecision(deps Deps, target ride.RequestStatus) *RequestDecision {
	return &RequestDecision{deps: deps, target: target}
}

func (w *RequestDecision) Name() string { return "request_" + string(w.target) }

func (w *RequestDecision) Matches(c Change) bool {
	if _, ok := matchPath(rideRequestPattern, c.Path); !ok || c.Kind != KindUpdate {
		return false
	}
	return entersRequestStatus(c, w.target)
}

func (w *RequestDecision) Handle(ctx context.Context, c Change) error {
	if err := checkRequestEdge(c); err != nil {
		return err
	}
	params, _ := matchPath(rideRequestPattern, c.Path)
	rideID, requestID := types.ID(params["rideId"]), types.ID(params["requestId"])

	rd, driver, err := w.deps.Parties.RideWithDriver(ctx, rideID)
	if err != nil {
		return fmt.Errorf("resolve ride %s: %w", rideID, err)
	}
	passengerID := c.After.ID("passengerId")
	passenger, err := w.deps.Parties.User(ctx, passengerID)
	if err != nil {
		return fmt.Errorf("resolve passenger %s: %w", passengerID, err)
	}

	typ := notification.TypeRideAccepted
	if w.target == ride.RequestDeclined {
		typ = notification.TypeRideDeclined
	}
	w.deps.notify(ctx, passenger, notification.Input{
		Type:       typ,
		SenderName: driver.Name,
		SenderID:   rd.DriverID,
		RideID:     rideID,
		RequestID:  requestID,
		DriverID:   rd.DriverID,
		Route:      notification.Route{From: rd.From, To: rd.To},
	}, true)
	return nil
}

// RequestCancelled tells the driver a passenger withdrew. It watches the
// standalone request documents, which carry rideId and the route.
type RequestCancelled struct{ deps Deps }

func NewRequestCancelled(deps Deps) *RequestCancelled { return &RequestCancelled{deps: deps} }

func (w *RequestCancelled) Name() string { return "request_cancelled" }

func (w *RequestCancelled) Matches(c Change) bool {
	if _, ok := matchPath(standaloneRequestPattern, c.Path); !ok || c.Kind != KindUpdate {
		return false
	}
	return entersRequestStatus(c, ride.RequestCancelled)
}

func (w *RequestCancelled) Handle(ctx context.Context, c Change) error {
	if err := checkRequestEdge(c); err != nil {
		return err
	}
	params, _ := matchPath(standaloneRequestPattern, c.Path)
	requestID := types.ID(params["requestId"])
	rideID := c.After.ID("rideId")

	rd, driver, err := w.deps.Parties.RideWithDriver(ctx, rideID)
	if err != nil {
		return fmt.Errorf("resolve ride %s: %w", rideID, err)
	}
	passengerID := c.After.ID("passengerId")
	passenger, err := w.deps.Parties.User(ctx, passengerID)
	if err != nil {
		return fmt.Errorf("resolve passenger %s: %w", passengerID, err)
	}

	w.deps.notify(ctx, driver, notification.Input{
		Type:        notification.TypeRequestCancelled,
		SenderName:  passenger.Name,
		SenderID:    passengerID,
		RideID:      rd.ID,
		RequestID:   requestID,
		PassengerID: passengerID,
		Route:       notification.Route{From: c.After.Field("from"), To: c.After.Field("to")},
	}, true)
	return nil
}

func requestStatuses(c Change) (before, after ride.RequestStatus) {
	before = ride.NormalizeRequestStatus(ride.RequestStatus(c.Before.Field("status")))
	after = ride.NormalizeRequestStatus(ride.RequestStatus(c.After.Field("status")))
	return before, after
}

func entersRequestStatus(c Change, target ride.RequestStatus) bool {
	before, after := requestStatuses(c)
	return before != target && after == target
}

func checkRequestEdge(c Change) error {
	before, after := requestStatuses(c)
	if !ride.CanTransitionRequest(before, after) {
		return fmt.Errorf("%w: request %s -> %s", ErrRejectedTransition, before, after)
	}
	return nil
}
