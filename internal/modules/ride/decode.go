// README: Field-by-field decoding of ride and request documents; one odd field never hides the document.
package ride

import (
	"errors"
	"fmt"
	"time"

	"ridenotify/internal/types"
)

// ErrMalformedDocument marks a document whose identifying fields (status,
// driverId, passengerId) hold a value of the wrong type.
var ErrMalformedDocument = errors.New("ride document malformed")

// RideFromData decodes a rides/{id} document. Display fields of the wrong
// type read as empty. A wrong-typed date or time is kept on the ride as an
// ErrMalformedSchedule problem and a wrong-typed status or driverId as an
// ErrMalformedDocument problem; see Problem.
func RideFromData(id types.ID, data map[string]any) Ride {
	r := Ride{ID: id}
	var docErr, schedErr error

	status, err := stringField(data, "status")
	docErr = errors.Join(docErr, err)
	r.Status = Status(status)
	driverID, err := stringField(data, "driverId")
	docErr = errors.Join(docErr, err)
	r.DriverID = types.ID(driverID)

	r.Date, err = stringField(data, "date")
	schedErr = errors.Join(schedErr, err)
	r.Time, err = stringField(data, "time")
	schedErr = errors.Join(schedErr, err)

	r.DriverName, _ = stringField(data, "driverName")
	r.From, _ = stringField(data, "from")
	r.To, _ = stringField(data, "to")
	r.AutoCompleted, _ = data["autoCompleted"].(bool)
	if at, ok := data["completedAt"].(time.Time); ok {
		r.CompletedAt = &at
	}

	switch {
	case docErr != nil:
		r.problem = fmt.Errorf("%w: %v", ErrMalformedDocument, docErr)
	case schedErr != nil:
		r.problem = fmt.Errorf("%w: %v", ErrMalformedSchedule, schedErr)
	}
	return r
}

// RequestFromData decodes a request document. Only passengerId and status
// must be strings; anything else of the wrong type reads as empty.
func RequestFromData(id types.ID, data map[string]any) (Request, error) {
	req := Request{ID: id}
	passengerID, err1 := stringField(data, "passengerId")
	status, err2 := stringField(data, "status")
	if err := errors.Join(err1, err2); err != nil {
		return Request{}, fmt.Errorf("%w: request %s: %v", ErrMalformedDocument, id, err)
	}
	req.PassengerID = types.ID(passengerID)
	req.Status = RequestStatus(status)

	rideID, _ := stringField(data, "rideId")
	req.RideID = types.ID(rideID)
	req.From, _ = stringField(data, "from")
	req.To, _ = stringField(data, "to")
	if at, ok := data["completedAt"].(time.Time); ok {
		req.CompletedAt = &at
	}
	return req, nil
}

// stringField returns "" for a missing or null key and an error for any
// other non-string value.
func stringField(data map[string]any, key string) (string, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s is %T", key, v)
	}
	return s, nil
}
