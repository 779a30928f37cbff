// README: Journal entries for push/record delivery attempts and sweep runs.
package journal

import (
	"time"

	"github.com/google/uuid"

	"ridenotify/internal/types"
)

type Channel string

const (
	ChannelPush   Channel = "push"
	ChannelRecord Channel = "record"
)

type Delivery struct {
	RecipientID types.ID
	Type        string
	Channel     Channel
	OK          bool
	Error       string
	At          time.Time
}

type SweepRun struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Completed  int
	Skipped    int
	Malformed  int
	Stale      int
	Failed     int
}
