// README: Notification composer; pure mapping from transition kind and parties to message text and data.
package notification

import (
	"fmt"

	"ridenotify/internal/types"
)

// Route carries the optional trip context substituted into message bodies.
type Route struct {
	From string
	To   string
	Date string
	Time string
}

// Input is everything Compose needs. Fields that do not apply to a Type are
// ignored; missing ones substitute as "".
type Input struct {
	Type        Type
	SenderName  string
	SenderID    types.ID
	RideID      types.ID
	RequestID   types.ID
	PassengerID types.ID
	DriverID    types.ID
	Route       Route

	// Chat messages carry pre-composed text and a room reference.
	ChatRoomID string
	Title      string
	Body       string
}

// Compose never fails.
func Compose(in Input) Message {
	m := Message{Type: in.Type, Data: map[string]string{"type": string(in.Type)}}
	name, r := in.SenderName, in.Route

	switch in.Type {
	case TypeRideRequest:
		m.Title = "New Ride Request"
		m.Body = fmt.Sprintf("%s wants to join your ride from %s to %s", name, r.From, r.To)
		m.Summary = fmt.Sprintf("%s wants to join your ride", name)
		putID(m.Data, "rideId", in.RideID)
		putID(m.Data, "requestId", in.RequestID)
		putID(m.Data, "passengerId", in.PassengerID)
	case TypeRideAccepted:
		m.Title = "Ride Request Accepted"
		m.Body = fmt.Sprintf("%s accepted your request for the ride from %s to %s", name, r.From, r.To)
		m.Summary = fmt.Sprintf("%s accepted your ride request", name)
		putID(m.Data, "rideId", in.RideID)
		putID(m.Data, "requestId", in.RequestID)
		putID(m.Data, "driverId", in.DriverID)
	case TypeRideDeclined:
		m.Title = "Ride Request Declined"
		m.Body = fmt.Sprintf("%s declined your request for the ride from %s to %s", name, r.From, r.To)
		m.Summary = fmt.Sprintf("%s declined your ride request", name)
		putID(m.Data, "rideId", in.RideID)
		putID(m.Data, "requestId", in.RequestID)
		putID(m.Data, "driverId", in.DriverID)
	case TypeRideCancelled:
		m.Title = "Ride Cancelled"
		m.Body = fmt.Sprintf("%s cancelled the ride from %s to %s on %s at %s", name, r.From, r.To, r.Date, r.Time)
		m.Summary = fmt.Sprintf("%s cancelled the ride", name)
		putID(m.Data, "rideId", in.RideID)
		putID(m.Data, "driverId", in.DriverID)
	case TypeRequestCancelled:
		m.Title = "Ride Request Cancelled"
		m.Body = fmt.Sprintf("%s cancelled their request for the ride from %s to %s", name, r.From, r.To)
		m.Summary = fmt.Sprintf("%s cancelled their ride request", name)
		putID(m.Data, "rideId", in.RideID)
		putID(m.Data, "requestId", in.RequestID)
		putID(m.Data, "passengerId", in.PassengerID)
	case TypeChatMessage:
		if name == "" {
			name = "User"
		}
		m.Title = in.Title
		m.Body = in.Body
		m.Summary = in.Body
		if in.ChatRoomID != "" {
			m.Data["chatRoomId"] = in.ChatRoomID
		}
		putID(m.Data, "senderId", in.SenderID)
		m.Data["senderName"] = name
	}
	return m
}

// RecordFor builds the persisted record for a composed message.
func RecordFor(m Message, in Input, recipient types.ID) Record {
	return Record{
		RecipientID: recipient,
		SenderID:    in.SenderID,
		SenderName:  in.SenderName,
		Title:       m.Title,
		Body:        m.Summary,
		Type:        m.Type,
		RideID:      in.RideID,
		RequestID:   in.RequestID,
		ChatRoomID:  in.ChatRoomID,
	}
}

func putID(data map[string]string, key string, id types.ID) {
	if id != "" {
		data[key] = string(id)
	}
}
