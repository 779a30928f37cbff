package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ridenotify/internal/modules/journal"
	"ridenotify/internal/types"
)

type recordingPusher struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (p *recordingPusher) Push(_ context.Context, token string, _ Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, token)
	if p.err != nil {
		return "", p.err
	}
	return "msg-" + token, nil
}

type memRecords struct {
	mu   sync.Mutex
	recs []Record
	err  error
}

func (m *memRecords) Add(_ context.Context, rec Record) (types.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if !rec.Type.Valid() {
		return "", ErrInvalidType
	}
	m.recs = append(m.recs, rec)
	return types.ID("n" + string(rune('0'+len(m.recs)))), nil
}

type memJournal struct {
	mu      sync.Mutex
	entries []journal.Delivery
}

func (j *memJournal) RecordDelivery(_ context.Context, d journal.Delivery) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, d)
	return nil
}

func TestDeliverPushAndRecord(t *testing.T) {
	p, recs, j := &recordingPusher{}, &memRecords{}, &memJournal{}
	d := NewDispatcher(p, recs, j, nil)
	m := Message{Type: TypeRideRequest, Title: "t", Body: "b", Summary: "s"}
	rec := Record{RecipientID: "D1", Type: TypeRideRequest, Read: true}

	out := d.Deliver(context.Background(), Delivery{RecipientID: "D1", Token: "tok", Message: m, Record: &rec})
	if !out.PushAttempted || out.PushErr != nil || out.MessageID != "msg-tok" {
		t.Fatalf("unexpected push outcome %+v", out)
	}
	if out.RecordErr != nil || out.RecordID == "" {
		t.Fatalf("unexpected record outcome %+v", out)
	}
	if len(recs.recs) != 1 || recs.recs[0].Read {
		t.Fatalf("expected one unread record, got %+v", recs.recs)
	}
	if len(j.entries) != 2 || j.entries[0].Channel != journal.ChannelPush || j.entries[1].Channel != journal.ChannelRecord {
		t.Fatalf("unexpected journal %+v", j.entries)
	}
}

func TestDeliverWithoutTokenStillPersists(t *testing.T) {
	p, recs := &recordingPusher{}, &memRecords{}
	d := NewDispatcher(p, recs, nil, nil)
	rec := Record{RecipientID: "P1", Type: TypeRideAccepted}

	out := d.Deliver(context.Background(), Delivery{RecipientID: "P1", Message: Message{Type: TypeRideAccepted}, Record: &rec})
	if out.PushAttempted || len(p.tokens) != 0 {
		t.Fatal("push must be skipped without a token")
	}
	if len(recs.recs) != 1 {
		t.Fatalf("record must still be persisted, got %d", len(recs.recs))
	}
}

func TestDeliverPushFailureDoesNotBlockRecord(t *testing.T) {
	p := &recordingPusher{err: errors.New("unregistered")}
	recs, j := &memRecords{}, &memJournal{}
	d := NewDispatcher(p, recs, j, nil)
	rec := Record{RecipientID: "P1", Type: TypeRideDeclined}

	out := d.Deliver(context.Background(), Delivery{RecipientID: "P1", Token: "bad", Message: Message{Type: TypeRideDeclined}, Record: &rec})
	if out.PushErr == nil {
		t.Fatal("expected push error in outcome")
	}
	if out.RecordErr != nil || len(recs.recs) != 1 {
		t.Fatalf("record must be persisted independently, got %+v", out)
	}
	if j.entries[0].OK || j.entries[0].Error != "unregistered" {
		t.Fatalf("expected failed push journal entry, got %+v", j.entries[0])
	}
}

func TestDeliverPushOnly(t *testing.T) {
	p, recs := &recordingPusher{}, &memRecords{}
	d := NewDispatcher(p, recs, nil, nil)
	out := d.Deliver(context.Background(), Delivery{RecipientID: "U1", Token: "tok", Message: Message{Type: TypeChatMessage}})
	if !out.PushAttempted || len(recs.recs) != 0 {
		t.Fatalf("expected push only, got %+v records=%d", out, len(recs.recs))
	}
}

func TestDeliverRecordFailureReported(t *testing.T) {
	recs := &memRecords{err: errors.New("unavailable")}
	d := NewDispatcher(&recordingPusher{}, recs, nil, nil)
	rec := Record{RecipientID: "D1", Type: TypeRideRequest}
	out := d.Deliver(context.Background(), Delivery{RecipientID: "D1", Token: "tok", Message: Message{Type: TypeRideRequest}, Record: &rec})
	if out.RecordErr == nil || out.PushErr != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
}
