// README: Watcher contract, shared dependencies and the change router.
package watcher

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ridenotify/internal/modules/notification"
	"ridenotify/internal/modules/party"
	"ridenotify/internal/modules/ride"
	"ridenotify/internal/types"
)

// ErrRejectedTransition marks a trigger whose before/after edge is not in the
// lifecycle table.
var ErrRejectedTransition = errors.New("transition not allowed")

// Watcher pairs a pure trigger predicate with its effect.
type Watcher interface {
	Name() string
	Matches(c Change) bool
	Handle(ctx context.Context, c Change) error
}

// Parties is the lookup side the watchers need; *party.Resolver satisfies it.
type Parties interface {
	User(ctx context.Context, id types.ID) (*party.User, error)
	RideWithDriver(ctx context.Context, rideID types.ID) (*ride.Ride, *party.User, error)
	AcceptedRequests(ctx context.Context, rideID types.ID) ([]ride.Request, error)
}

// Notifier is satisfied by *notification.Dispatcher.
type Notifier interface {
	Deliver(ctx context.Context, d notification.Delivery) notification.Outcome
}

type Deps struct {
	Parties  Parties
	Notifier Notifier
	Log      *zap.Logger
	// FanOut bounds concurrent deliveries inside one handler; zero means 8.
	FanOut int
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func (d Deps) fanOut() int {
	if d.FanOut <= 0 {
		return 8
	}
	return d.FanOut
}

// notify composes a message for one recipient and hands it to the notifier.
// persist=false sends push only.
func (d Deps) notify(ctx context.Context, recipient *party.User, in notification.Input, persist bool) notification.Outcome {
	msg := notification.Compose(in)
	del := notification.Delivery{
		RecipientID: recipient.ID,
		Token:       recipient.PushToken(),
		Message:     msg,
	}
	if persist {
		rec := notification.RecordFor(msg, in, recipient.ID)
		del.Record = &rec
	}
	return d.Notifier.Deliver(ctx, del)
}

// Default returns the standard watcher set.
func Default(deps Deps) []Watcher {
	return []Watcher{
		NewRequestCreated(deps),
		NewRequestDecision(deps, ride.RequestAccepted),
		NewRequestDecision(deps, ride.RequestDeclined),
		NewRideCancelled(deps),
		NewRequestCancelled(deps),
		NewChatMessage(deps),
	}
}

type Router struct {
	watchers []Watcher
	log      *zap.Logger
}

func NewRouter(log *zap.Logger, watchers ...Watcher) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{watchers: watchers, log: log}
}

// Dispatch runs every matching watcher in turn and returns how many matched.
// Handler failures are logged here and never propagated.
func (r *Router) Dispatch(ctx context.Context, c Change) int {
	matched := 0
	for _, w := range r.watchers {
		if !w.Matches(c) {
			continue
		}
		matched++
		r.run(ctx, w, c)
	}
	return matched
}

func (r *Router) run(ctx context.Context, w Watcher, c Change) {
	log := r.log.With(zap.String("watcher", w.Name()), zap.String("path", c.Path))
	defer func() {
		if p := recover(); p != nil {
			log.Error("watcher panicked", zap.String("panic", fmt.Sprint(p)))
		}
	}()
	err := w.Handle(ctx, c)
	switch {
	case err == nil:
	case party.IsNotFound(err):
		log.Debug("referenced entity missing; notification dropped", zap.Error(err))
	case errors.Is(err, ErrRejectedTransition):
		log.Warn("transition rejected", zap.Error(err))
	default:
		log.Error("watcher failed", zap.Error(err))
	}
}
