// README: Ride and ride-request documents plus their lifecycle transition tables.
package ride

import (
	"errors"
	"time"

	"ridenotify/internal/types"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestDeclined  RequestStatus = "declined"
	RequestCancelled RequestStatus = "cancelled"
	RequestCompleted RequestStatus = "completed"
)

// Ride mirrors a rides/{rideId} document. Date and Time are the driver's
// local calendar fields ("DD/MM/YYYY", "HH:mm").
type Ride struct {
	ID            types.ID   `firestore:"-"`
	DriverID      types.ID   `firestore:"driverId"`
	DriverName    string     `firestore:"driverName,omitempty"`
	From          string     `firestore:"from,omitempty"`
	To            string     `firestore:"to,omitempty"`
	Date          string     `firestore:"date,omitempty"`
	Time          string     `firestore:"time,omitempty"`
	Status        Status     `firestore:"status"`
	CompletedAt   *time.Time `firestore:"completedAt,omitempty"`
	AutoCompleted bool       `firestore:"autoCompleted,omitempty"`

	problem error
}

// Problem reports a decode problem recorded by RideFromData, or nil.
func (r Ride) Problem() error { return r.problem }

// Schedule parses the ride's calendar fields.
func (r Ride) Schedule() (Schedule, error) {
	if errors.Is(r.problem, ErrMalformedSchedule) {
		return Schedule{}, r.problem
	}
	return ParseSchedule(r.Date, r.Time)
}

// Request mirrors both rides/{rideId}/requests/{requestId} and the standalone
// ride_requests/{requestId} documents; RideID, From and To are only stored on
// the standalone form.
type Request struct {
	ID          types.ID      `firestore:"-"`
	RideID      types.ID      `firestore:"rideId,omitempty"`
	PassengerID types.ID      `firestore:"passengerId"`
	Status      RequestStatus `firestore:"status"`
	From        string        `firestore:"from,omitempty"`
	To          string        `firestore:"to,omitempty"`
	CompletedAt *time.Time    `firestore:"completedAt,omitempty"`
}

// NormalizeStatus treats a missing ride status as active.
func NormalizeStatus(s Status) Status {
	if s == "" {
		return StatusActive
	}
	return s
}

// NormalizeRequestStatus treats a missing request status as pending.
func NormalizeRequestStatus(s RequestStatus) RequestStatus {
	if s == "" {
		return RequestPending
	}
	return s
}

// AllowedRideTransitions is the ride lifecycle as code.
var AllowedRideTransitions = map[Status][]Status{
	StatusActive: {StatusCancelled, StatusCompleted},
}

// AllowedRequestTransitions is the request lifecycle as code. Only one of
// accepted/declined/cancelled is reachable from pending; completion is
// applied by the sweeper to every request of a finished ride.
var AllowedRequestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:   {RequestAccepted, RequestDeclined, RequestCancelled, RequestCompleted},
	RequestAccepted:  {RequestCancelled, RequestCompleted},
	RequestDeclined:  {RequestCompleted},
	RequestCancelled: {RequestCompleted},
}

func CanTransitionRide(from, to Status) bool {
	return contains(AllowedRideTransitions[NormalizeStatus(from)], NormalizeStatus(to))
}

func CanTransitionRequest(from, to RequestStatus) bool {
	return contains(AllowedRequestTransitions[NormalizeRequestStatus(from)], NormalizeRequestStatus(to))
}

func contains[T comparable](list []T, v T) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
