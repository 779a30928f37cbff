// README: Dispatcher; push delivery and record persistence as two independent best-effort calls.
package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ridenotify/internal/modules/journal"
	"ridenotify/internal/types"
)

type Pusher interface {
	Push(ctx context.Context, token string, m Message) (string, error)
}

type RecordStore interface {
	Add(ctx context.Context, rec Record) (types.ID, error)
}

type DeliveryJournal interface {
	RecordDelivery(ctx context.Context, d journal.Delivery) error
}

// Delivery addresses one message. An empty Token skips push; a nil Record
// skips persistence.
type Delivery struct {
	RecipientID types.ID
	Token       string
	Message     Message
	Record      *Record
}

// Outcome reports each half of a delivery separately.
type Outcome struct {
	PushAttempted bool
	MessageID     string
	PushErr       error
	RecordID      types.ID
	RecordErr     error
}

type Dispatcher struct {
	pusher  Pusher
	records RecordStore
	journal DeliveryJournal
	log     *zap.Logger
}

// NewDispatcher wires the transport and the record store. journal may be nil.
func NewDispatcher(pusher Pusher, records RecordStore, j DeliveryJournal, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{pusher: pusher, records: records, journal: j, log: log}
}

// Deliver never returns an error: failures are logged and reported in the
// Outcome so the triggering transition is never affected.
func (d *Dispatcher) Deliver(ctx context.Context, del Delivery) Outcome {
	var out Outcome
	log := d.log.With(
		zap.String("recipient", string(del.RecipientID)),
		zap.String("type", string(del.Message.Type)),
	)

	if del.Token != "" {
		out.PushAttempted = true
		out.MessageID, out.PushErr = d.pusher.Push(ctx, del.Token, del.Message)
		if out.PushErr != nil {
			log.Warn("push delivery failed", zap.Error(out.PushErr))
		} else {
			log.Info("push delivered", zap.String("message_id", out.MessageID))
		}
		d.note(ctx, del, journal.ChannelPush, out.PushErr)
	} else {
		log.Info("no push token; skipping push")
	}

	if del.Record != nil {
		rec := *del.Record
		rec.Read = false
		out.RecordID, out.RecordErr = d.records.Add(ctx, rec)
		if out.RecordErr != nil {
			log.Warn("notification record not persisted", zap.Error(out.RecordErr))
		}
		d.note(ctx, del, journal.ChannelRecord, out.RecordErr)
	}
	return out
}

func (d *Dispatcher) note(ctx context.Context, del Delivery, ch journal.Channel, err error) {
	if d.journal == nil {
		return
	}
	entry := journal.Delivery{
		RecipientID: del.RecipientID,
		Type:        string(del.Message.Type),
		Channel:     ch,
		OK:          err == nil,
		At:          time.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if jerr := d.journal.RecordDelivery(ctx, entry); jerr != nil {
		d.log.Debug("journal write failed", zap.Error(jerr))
	}
}
