// README: Firestore access for the sweep; open ride scan and the per-ride completion transaction.
package completion

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"ridenotify/internal/modules/ride"
	"ridenotify/internal/types"
)

const (
	ridesCollection          = "rides"
	requestsCollection       = "requests"
	usersCollection          = "users"
	pendingRatingsCollection = "pending_ratings"
)

type Store struct {
	client *firestore.Client
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

// ListOpenRides returns every ride not yet completed. Rides that do not decode
// cleanly are still returned, carrying their ride.Problem, so the sweep can
// count them and move on.
func (s *Store) ListOpenRides(ctx context.Context) ([]ride.Ride, error) {
	docs, err := s.client.Collection(ridesCollection).
		Where("status", "!=", string(ride.StatusCompleted)).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list open rides: %w", err)
	}
	out := make([]ride.Ride, 0, len(docs))
	for _, snap := range docs {
		out = append(out, ride.RideFromData(types.ID(snap.Ref.ID), snap.Data()))
	}
	return out, nil
}

// CompleteRide applies the whole completion in one transaction. The ride must
// still carry the status seen by the scan, otherwise ErrStale is returned and
// nothing is written. A ride or request that does not decode aborts with an
// error wrapping ride.ErrMalformedDocument.
func (s *Store) CompleteRide(ctx context.Context, rideID types.ID, expect ride.Status) (Plan, error) {
	var plan Plan
	rideRef := s.client.Collection(ridesCollection).Doc(string(rideID))

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(rideRef)
		if err != nil {
			return fmt.Errorf("get ride: %w", err)
		}
		rd := ride.RideFromData(rideID, snap.Data())
		if err := rd.Problem(); errors.Is(err, ride.ErrMalformedDocument) {
			return err
		}
		current := ride.NormalizeStatus(rd.Status)
		if current != ride.NormalizeStatus(expect) || !ride.CanTransitionRide(current, ride.StatusCompleted) {
			return ErrStale
		}

		reqDocs, err := tx.Documents(rideRef.Collection(requestsCollection)).GetAll()
		if err != nil {
			return fmt.Errorf("list requests: %w", err)
		}
		requests := make([]ride.Request, 0, len(reqDocs))
		for _, d := range reqDocs {
			req, err := ride.RequestFromData(types.ID(d.Ref.ID), d.Data())
			if err != nil {
				return err
			}
			req.Status = ride.NormalizeRequestStatus(req.Status)
			requests = append(requests, req)
		}
		plan = BuildPlan(rd, requests)

		if err := tx.Update(rideRef, []firestore.Update{
			{Path: "status", Value: string(ride.StatusCompleted)},
			{Path: "completedAt", Value: firestore.ServerTimestamp},
			{Path: "autoCompleted", Value: true},
		}); err != nil {
			return err
		}
		for _, id := range plan.RequestIDs {
			if err := tx.Update(rideRef.Collection(requestsCollection).Doc(string(id)), []firestore.Update{
				{Path: "status", Value: string(ride.RequestCompleted)},
				{Path: "completedAt", Value: firestore.ServerTimestamp},
			}); err != nil {
				return err
			}
		}
		if err := s.incrementRides(tx, plan.DriverID); err != nil {
			return err
		}
		for _, pid := range plan.Passengers {
			if err := s.incrementRides(tx, pid); err != nil {
				return err
			}
		}
		for _, rating := range plan.Ratings {
			if err := tx.Create(s.client.Collection(pendingRatingsCollection).NewDoc(), rating); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func (s *Store) incrementRides(tx *firestore.Transaction, userID types.ID) error {
	return tx.Update(s.client.Collection(usersCollection).Doc(string(userID)), []firestore.Update{
		{Path: "totalRides", Value: firestore.Increment(1)},
	})
}
