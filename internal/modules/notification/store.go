// README: Notification record store backed by Firestore.
package notification

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"ridenotify/internal/types"
)

const notificationsCollection = "notifications"

type Store struct {
	client *firestore.Client
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Add appends a record. Records are always written unread; the creation time
// is assigned by the server when rec.CreatedAt is zero.
func (s *Store) Add(ctx context.Context, rec Record) (types.ID, error) {
	if !rec.Type.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, rec.Type)
	}
	rec.Read = false
	ref, _, err := s.client.Collection(notificationsCollection).Add(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("add notification for %s: %w", rec.RecipientID, err)
	}
	return types.ID(ref.ID), nil
}
