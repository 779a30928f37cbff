// README: Completion plan, pending ratings and sweep results.
package completion

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"ridenotify/internal/modules/ride"
	"ridenotify/internal/types"
)

var (
	// ErrStale means the ride changed between the scan and the transaction.
	ErrStale = errors.New("ride changed since scan")
	// ErrLeaseHeld means another sweep currently owns the lease.
	ErrLeaseHeld = errors.New("sweep lease held by another run")
)

const defaultDriverName = "Driver"

// PendingRating mirrors a pending_ratings/{id} document.
type PendingRating struct {
	PassengerID types.ID  `firestore:"passengerId"`
	DriverID    types.ID  `firestore:"driverId"`
	DriverName  string    `firestore:"driverName"`
	RideID      types.ID  `firestore:"rideId"`
	From        string    `firestore:"from"`
	To          string    `firestore:"to"`
	Date        string    `firestore:"date"`
	Time        string    `firestore:"time"`
	Completed   bool      `firestore:"completed"`
	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp"`
}

// Plan is the full set of writes for completing one ride.
type Plan struct {
	RideID     types.ID
	DriverID   types.ID
	RequestIDs []types.ID
	Passengers []types.ID
	Ratings    []PendingRating
}

// BuildPlan lists every request of the ride for completion and, for each
// accepted one, a passenger counter increment and a pending rating.
func BuildPlan(rd ride.Ride, requests []ride.Request) Plan {
	p := Plan{RideID: rd.ID, DriverID: rd.DriverID}
	driverName := rd.DriverName
	if driverName == "" {
		driverName = defaultDriverName
	}
	for _, req := range requests {
		p.RequestIDs = append(p.RequestIDs, req.ID)
		if req.Status != ride.RequestAccepted {
			continue
		}
		p.Passengers = append(p.Passengers, req.PassengerID)
		p.Ratings = append(p.Ratings, PendingRating{
			PassengerID: req.PassengerID,
			DriverID:    rd.DriverID,
			DriverName:  driverName,
			RideID:      rd.ID,
			From:        rd.From,
			To:          rd.To,
			Date:        rd.Date,
			Time:        rd.Time,
		})
	}
	return p
}

// Eligible reports whether more than threshold has elapsed since start.
func Eligible(start, now time.Time, threshold time.Duration) bool {
	return now.Sub(start) > threshold
}

// Result counts one sweep. Skipped covers cancelled rides, rides in an
// unexpected status (logged at warn) and rides not yet due. Malformed counts
// rides whose schedule or document fields cannot be read; Stale counts rides
// that changed under the scan.
type Result struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Completed  int
	Skipped    int
	Malformed  int
	Stale      int
	Failed     int
}
