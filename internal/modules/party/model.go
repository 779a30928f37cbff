// README: User profile fields needed to address a notification.
package party

import "ridenotify/internal/types"

// User mirrors a users/{userId} document.
type User struct {
	ID         types.ID `firestore:"-"`
	Name       string   `firestore:"name"`
	FCMToken   string   `firestore:"fcmToken,omitempty"`
	TotalRides int64    `firestore:"totalRides"`
}

// PushToken returns the delivery token; empty means push is suppressed.
func (u *User) PushToken() string {
	if u == nil {
		return ""
	}
	return u.FCMToken
}
