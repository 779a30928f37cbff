// README: Party store backed by Firestore (users, rides and ride-scoped requests).
package party

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ridenotify/internal/modules/ride"
	"ridenotify/internal/types"
)

const (
	usersCollection    = "users"
	ridesCollection    = "rides"
	requestsCollection = "requests"
)

type Store struct {
	client *firestore.Client
	log    *zap.Logger
}

func NewStore(client *firestore.Client, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{client: client, log: log}
}

func (s *Store) GetUser(ctx context.Context, id types.ID) (*User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	var u User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	u.ID = id
	return &u, nil
}

func (s *Store) GetRide(ctx context.Context, id types.ID) (*ride.Ride, error) {
	snap, err := s.client.Collection(ridesCollection).Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ride %s: %w", id, err)
	}
	r := ride.RideFromData(id, snap.Data())
	if err := r.Problem(); errors.Is(err, ride.ErrMalformedDocument) {
		return nil, fmt.Errorf("decode ride %s: %w", id, err)
	}
	return &r, nil
}

// ListRideRequests runs a point-in-time query over rides/{rideID}/requests
// filtered by status. A request that does not decode is logged and left out
// so the rest of the ride's passengers are still returned.
func (s *Store) ListRideRequests(ctx context.Context, rideID types.ID, st ride.RequestStatus) ([]ride.Request, error) {
	q := s.client.Collection(ridesCollection).Doc(string(rideID)).
		Collection(requestsCollection).
		Where("status", "==", string(st))
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list requests of ride %s: %w", rideID, err)
	}
	out := make([]ride.Request, 0, len(snaps))
	for _, snap := range snaps {
		r, err := ride.RequestFromData(types.ID(snap.Ref.ID), snap.Data())
		if err != nil {
			s.log.Warn("skipping undecodable request",
				zap.String("ride", string(rideID)), zap.Error(err))
			continue
		}
		r.RideID = rideID
		out = append(out, r)
	}
	return out, nil
}
