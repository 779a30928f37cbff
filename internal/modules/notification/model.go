// README: Notification types, persisted record and composed message.
package notification

import (
	"errors"
	"time"

	"ridenotify/internal/types"
)

// Type is the closed set of notification tags stored on records and sent in
// push data.
type Type string

const (
	TypeRideRequest      Type = "ride_request"
	TypeRideAccepted     Type = "ride_accepted"
	TypeRideDeclined     Type = "ride_declined"
	TypeRideCancelled    Type = "ride_cancelled"
	TypeRequestCancelled Type = "request_cancelled"
	TypeChatMessage      Type = "chat_message"
)

var ErrInvalidType = errors.New("invalid notification type")

func (t Type) Valid() bool {
	switch t {
	case TypeRideRequest, TypeRideAccepted, TypeRideDeclined,
		TypeRideCancelled, TypeRequestCancelled, TypeChatMessage:
		return true
	}
	return false
}

// Record mirrors a notifications/{id} document. A zero CreatedAt is filled
// with the server timestamp on write.
type Record struct {
	ID          types.ID  `firestore:"-"`
	RecipientID types.ID  `firestore:"recipientId"`
	SenderID    types.ID  `firestore:"senderId"`
	SenderName  string    `firestore:"senderName"`
	Title       string    `firestore:"title"`
	Body        string    `firestore:"body"`
	Type        Type      `firestore:"type"`
	RideID      types.ID  `firestore:"rideId,omitempty"`
	RequestID   types.ID  `firestore:"requestId,omitempty"`
	ChatRoomID  string    `firestore:"chatRoomId,omitempty"`
	Read        bool      `firestore:"read"`
	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp"`
}

// Message is the composed output for one recipient. Body is the push text;
// Summary is the shorter text persisted on the record.
type Message struct {
	Type    Type
	Title   string
	Body    string
	Summary string
	Data    map[string]string
}
