// README: Party resolver; looks up the ride, driver and passengers a notification is addressed to.
package party

import (
	"context"
	"errors"

	"ridenotify/internal/modules/ride"
	"ridenotify/internal/types"
)

var ErrNotFound = errors.New("referenced entity not found")

// Directory is the read side of the document store the resolver needs.
type Directory interface {
	GetUser(ctx context.Context, id types.ID) (*User, error)
	GetRide(ctx context.Context, id types.ID) (*ride.Ride, error)
	ListRideRequests(ctx context.Context, rideID types.ID, status ride.RequestStatus) ([]ride.Request, error)
}

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// User resolves a user; an empty reference is reported as ErrNotFound.
func (r *Resolver) User(ctx context.Context, id types.ID) (*User, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return r.dir.GetUser(ctx, id)
}

func (r *Resolver) Ride(ctx context.Context, id types.ID) (*ride.Ride, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return r.dir.GetRide(ctx, id)
}

// RideWithDriver resolves a ride and then its driver.
func (r *Resolver) RideWithDriver(ctx context.Context, rideID types.ID) (*ride.Ride, *User, error) {
	rd, err := r.Ride(ctx, rideID)
	if err != nil {
		return nil, nil, err
	}
	driver, err := r.User(ctx, rd.DriverID)
	if err != nil {
		return nil, nil, err
	}
	return rd, driver, nil
}

// AcceptedRequests returns the requests of a ride that are accepted at the
// time of the call.
func (r *Resolver) AcceptedRequests(ctx context.Context, rideID types.ID) ([]ride.Request, error) {
	if rideID == "" {
		return nil, ErrNotFound
	}
	return r.dir.ListRideRequests(ctx, rideID, ride.RequestAccepted)
}

// IsNotFound reports whether err is a missing-entity abort.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
