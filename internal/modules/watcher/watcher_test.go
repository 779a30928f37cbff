package watcher

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"ridenotify/internal/modules/notification"
	"ridenotify/internal/modules/party"
	"ridenotify/internal/modules/ride"
	"ridenotify/internal/types"
)

type fakeDirectory struct {
	mu       sync.Mutex
	users    map[types.ID]*party.User
	rides    map[types.ID]*ride.Ride
	requests map[types.ID][]ride.Request
}

func (d *fakeDirectory) GetUser(_ context.Context, id types.ID) (*party.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, party.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *fakeDirectory) GetRide(_ context.Context, id types.ID) (*ride.Ride, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rides[id]
	if !ok {
		return nil, party.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (d *fakeDirectory) ListRideRequests(_ context.Context, rideID types.ID, st ride.RequestStatus) ([]ride.Request, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []ride.Request
	for _, r := range d.requests[rideID] {
		if r.Status == st {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification.Delivery
}

func (n *fakeNotifier) Deliver(_ context.Context, d notification.Delivery) notification.Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, d)
	return notification.Outcome{PushAttempted: d.Token != ""}
}

func (n *fakeNotifier) deliveries() []notification.Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Delivery(nil), n.sent...)
}

func newFixture() (*fakeDirectory, *fakeNotifier, *Router) {
	dir := &fakeDirectory{
		users: map[types.ID]*party.User{
			"D1": {ID: "D1", Name: "Dana", FCMToken: "tokD"},
			"P1": {ID: "P1", Name: "Sara", FCMToken: "tokP1"},
			"P2": {ID: "P2", Name: "Omar"},
			"P3": {ID: "P3", Name: "Huda", FCMToken: "tokP3"},
			"P4": {ID: "P4", Name: "Ali", FCMToken: "tokP4"},
		},
		rides: map[types.ID]*ride.Ride{
			"R1": {ID: "R1", DriverID: "D1", From: "Manama", To: "Riffa", Date: "01/03/2025", Time: "08:00", Status: ride.StatusActive},
		},
		requests: map[types.ID][]ride.Request{},
	}
	n := &fakeNotifier{}
	deps := Deps{Parties: party.NewResolver(dir), Notifier: n}
	return dir, n, NewRouter(nil, Default(deps)...)
}

func TestRequestLifecycleScenario(t *testing.T) {
	dir, n, router := newFixture()
	ctx := context.Background()

	created := Change{Path: "rides/R1/requests/Q1", Kind: KindCreate,
		After: Document{"passengerId": "P1", "status": "pending"}}
	if got := router.Dispatch(ctx, created); got != 1 {
		t.Fatalf("expected one watcher for create, got %d", got)
	}
	sent := n.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sent))
	}
	d := sent[0]
	if d.RecipientID != "D1" || d.Token != "tokD" || d.Message.Type != notification.TypeRideRequest {
		t.Fatalf("unexpected delivery %+v", d)
	}
	if d.Message.Body != "Sara wants to join your ride from Manama to Riffa" {
		t.Fatalf("unexpected body %q", d.Message.Body)
	}
	if d.Record == nil || d.Record.Body != "Sara wants to join your ride" || d.Record.RequestID != "Q1" {
		t.Fatalf("unexpected record %+v", d.Record)
	}

	accepted := Change{Path: "rides/R1/requests/Q1", Kind: KindUpdate,
		Before: Document{"passengerId": "P1", "status": "pending"},
		After:  Document{"passengerId": "P1", "status": "accepted"}}
	router.Dispatch(ctx, accepted)
	sent = n.deliveries()
	d = sent[len(sent)-1]
	if d.RecipientID != "P1" || d.Message.Type != notification.TypeRideAccepted || d.Message.Title != "Ride Request Accepted" {
		t.Fatalf("unexpected acceptance delivery %+v", d)
	}
	if d.Message.Data["driverId"] != "D1" {
		t.Fatalf("expected driverId in data, got %v", d.Message.Data)
	}

	dir.requests["R1"] = []ride.Request{{ID: "Q1", PassengerID: "P1", Status: ride.RequestAccepted}}
	cancelled := Change{Path: "rides/R1", Kind: KindUpdate,
		Before: Document{"driverId": "D1", "status": "active"},
		After:  Document{"driverId": "D1", "status": "cancelled", "from": "Manama", "to": "Riffa", "date": "01/03/2025", "time": "08:00"}}
	router.Dispatch(ctx, cancelled)
	sent = n.deliveries()
	if len(sent) != 3 {
		t.Fatalf("expected three deliveries total, got %d", len(sent))
	}
	d = sent[2]
	if d.RecipientID != "P1" || d.Message.Body != "Dana cancelled the ride from Manama to Riffa on 01/03/2025 at 08:00" {
		t.Fatalf("unexpected cancellation delivery %+v", d)
	}
}

func TestSameStatusUpdateDoesNotTrigger(t *testing.T) {
	_, n, router := newFixture()
	c := Change{Path: "rides/R1/requests/Q1", Kind: KindUpdate,
		Before: Document{"passengerId": "P1", "status": "accepted"},
		After:  Document{"passengerId": "P1", "status": "accepted", "seat": "2"}}
	if got := router.Dispatch(context.Background(), c); got != 0 {
		t.Fatalf("expected no watcher, got %d", got)
	}
	if len(n.deliveries()) != 0 {
		t.Fatal("expected no deliveries")
	}
}

func TestRideCancelledNotifiesOnlyAcceptedPassengers(t *testing.T) {
	dir, n, router := newFixture()
	dir.requests["R1"] = []ride.Request{
		{ID: "Q1", PassengerID: "P1", Status: ride.RequestAccepted},
		{ID: "Q2", PassengerID: "P2", Status: ride.RequestAccepted},
		{ID: "Q3", PassengerID: "P3", Status: ride.RequestAccepted},
		{ID: "Q4", PassengerID: "P4", Status: ride.RequestPending},
		{ID: "Q5", PassengerID: "P4", Status: ride.RequestDeclined},
	}
	c := Change{Path: "rides/R1", Kind: KindUpdate,
		Before: Document{"driverId": "D1", "status": "active"},
		After:  Document{"driverId": "D1", "status": "cancelled"}}
	router.Dispatch(context.Background(), c)

	sent := n.deliveries()
	var got []string
	for _, d := range sent {
		got = append(got, string(d.RecipientID))
		if d.Message.Type != notification.TypeRideCancelled || d.Record == nil {
			t.Fatalf("unexpected delivery %+v", d)
		}
	}
	sort.Strings(got)
	if len(got) != 3 || got[0] != "P1" || got[1] != "P2" || got[2] != "P3" {
		t.Fatalf("expected P1,P2,P3, got %v", got)
	}
}

func TestMissingTokenStillPersistsRecord(t *testing.T) {
	_, n, router := newFixture()
	c := Change{Path: "rides/R1/requests/Q2", Kind: KindUpdate,
		Before: Document{"passengerId": "P2", "status": "pending"},
		After:  Document{"passengerId": "P2", "status": "declined"}}
	router.Dispatch(context.Background(), c)
	sent := n.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sent))
	}
	if sent[0].Token != "" || sent[0].Record == nil || sent[0].Message.Type != notification.TypeRideDeclined {
		t.Fatalf("unexpected delivery %+v", sent[0])
	}
}

func TestRequestCancelledNotifiesDriver(t *testing.T) {
	_, n, router := newFixture()
	c := Change{Path: "ride_requests/Q9", Kind: KindUpdate,
		Before: Document{"rideId": "R1", "passengerId": "P1", "status": "accepted"},
		After:  Document{"rideId": "R1", "passengerId": "P1", "status": "cancelled", "from": "Seef", "to": "Isa Town"}}
	if got := router.Dispatch(context.Background(), c); got != 1 {
		t.Fatalf("expected one watcher, got %d", got)
	}
	d := n.deliveries()[0]
	if d.RecipientID != "D1" || d.Message.Body != "Sara cancelled their request for the ride from Seef to Isa Town" {
		t.Fatalf("unexpected delivery %+v", d)
	}
	if d.Record.RideID != "R1" || d.Record.RequestID != "Q9" {
		t.Fatalf("unexpected record %+v", d.Record)
	}
}

func TestChatMessageIsPushOnly(t *testing.T) {
	_, n, router := newFixture()
	c := Change{Path: "notifications/N1", Kind: KindCreate, After: Document{
		"type": "chat_message", "recipientId": "P1", "senderId": "D1",
		"title": "Dana", "body": "on my way", "chatRoomId": "room-1",
	}}
	router.Dispatch(context.Background(), c)
	sent := n.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sent))
	}
	if sent[0].Record != nil {
		t.Fatal("chat messages must not create another record")
	}
	if sent[0].Message.Data["senderName"] != "User" || sent[0].Message.Body != "on my way" {
		t.Fatalf("unexpected message %+v", sent[0].Message)
	}

	other := Change{Path: "notifications/N2", Kind: KindCreate, After: Document{"type": "ride_request", "recipientId": "P1"}}
	if got := router.Dispatch(context.Background(), other); got != 0 {
		t.Fatalf("non-chat records must not match, got %d", got)
	}
}

func TestMissingEntityAbortsSilently(t *testing.T) {
	dir, n, _ := newFixture()
	w := NewRequestCreated(Deps{Parties: party.NewResolver(dir), Notifier: n})
	c := Change{Path: "rides/GONE/requests/Q1", Kind: KindCreate, After: Document{"passengerId": "P1"}}
	err := w.Handle(context.Background(), c)
	if !party.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(n.deliveries()) != 0 {
		t.Fatal("expected no deliveries")
	}
}

func TestDisallowedTransitionsRejected(t *testing.T) {
	dir, n, _ := newFixture()
	deps := Deps{Parties: party.NewResolver(dir), Notifier: n}

	declinedToCancelled := Change{Path: "ride_requests/Q1", Kind: KindUpdate,
		Before: Document{"rideId": "R1", "passengerId": "P1", "status": "declined"},
		After:  Document{"rideId": "R1", "passengerId": "P1", "status": "cancelled"}}
	w := NewRequestCancelled(deps)
	if !w.Matches(declinedToCancelled) {
		t.Fatal("trigger predicate should match")
	}
	if err := w.Handle(context.Background(), declinedToCancelled); !errors.Is(err, ErrRejectedTransition) {
		t.Fatalf("expected rejected transition, got %v", err)
	}

	completedToCancelled := Change{Path: "rides/R1", Kind: KindUpdate,
		Before: Document{"driverId": "D1", "status": "completed"},
		After:  Document{"driverId": "D1", "status": "cancelled"}}
	if err := NewRideCancelled(deps).Handle(context.Background(), completedToCancelled); !errors.Is(err, ErrRejectedTransition) {
		t.Fatalf("expected rejected transition, got %v", err)
	}
	if len(n.deliveries()) != 0 {
		t.Fatal("rejected transitions must not notify")
	}
}

type panicky struct{}

func (panicky) Name() string                         { return "panicky" }
func (panicky) Matches(Change) bool                  { return true }
func (panicky) Handle(context.Context, Change) error { panic("boom") }

func TestRouterRecoversFromPanics(t *testing.T) {
	_, n, _ := newFixture()
	r := NewRouter(nil, panicky{}, NewChatMessage(Deps{Parties: party.NewResolver(&fakeDirectory{}), Notifier: n}))
	got := r.Dispatch(context.Background(), Change{Path: "notifications/N1", Kind: KindCreate, After: Document{"type": "chat_message"}})
	if got != 2 {
		t.Fatalf("expected both watchers to run, got %d", got)
	}
}
