// README: Firestore change feed; snapshot listeners turned into Changes for the router.
package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	feedMinBackoff = time.Second
	feedMaxBackoff = time.Minute
)

type source struct {
	name  string
	query firestore.Query
}

// Feed listens to the monitored collections and routes every change after
// each listener's initial snapshot.
type Feed struct {
	sources  []source
	router   *Router
	log      *zap.Logger
	inflight sync.WaitGroup
}

func NewFeed(client *firestore.Client, router *Router, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{
		sources: []source{
			{name: "requests", query: client.CollectionGroup("requests").Query},
			{name: "rides", query: client.Collection("rides").Query},
			{name: "ride_requests", query: client.Collection("ride_requests").Query},
			{name: "chat_notifications", query: client.Collection("notifications").
				Where("type", "==", "chat_message")},
		},
		router: router,
		log:    log,
	}
}

// Run blocks until ctx is cancelled, then waits for in-flight dispatches.
func (f *Feed) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range f.sources {
		src := src
		g.Go(func() error {
			f.listen(gctx, src)
			return nil
		})
	}
	err := g.Wait()
	f.inflight.Wait()
	return err
}

func (f *Feed) listen(ctx context.Context, src source) {
	log := f.log.With(zap.String("source", src.name))
	backoff := feedMinBackoff
	for {
		err := f.watch(ctx, src)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			backoff = feedMinBackoff
			continue
		}
		log.Warn("listener stopped; reconnecting", zap.Error(err), zap.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > feedMaxBackoff {
			backoff = feedMaxBackoff
		}
	}
}

func (f *Feed) watch(ctx context.Context, src source) error {
	it := src.query.Snapshots(ctx)
	defer it.Stop()

	diff := newDiffer()
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
			return nil
		}
		if err != nil {
			return err
		}
		for _, dc := range snap.Changes {
			c, ok := diff.apply(dc.Kind, relativePath(dc.Doc.Ref.Path), Document(dc.Doc.Data()))
			if ok {
				f.dispatch(ctx, c)
			}
		}
		diff.prime()
	}
}

func (f *Feed) dispatch(ctx context.Context, c Change) {
	f.inflight.Add(1)
	go func() {
		defer f.inflight.Done()
		// Deliveries already started finish even when the feed is shutting down.
		f.router.Dispatch(context.WithoutCancel(ctx), c)
	}()
}

// differ keeps the last seen image of every document so that updates carry a
// before-image. Nothing is emitted until the initial snapshot is primed.
type differ struct {
	seen   map[string]Document
	primed bool
}

func newDiffer() *differ {
	return &differ{seen: map[string]Document{}}
}

func (d *differ) prime() { d.primed = true }

func (d *differ) apply(kind firestore.DocumentChangeKind, path string, data Document) (Change, bool) {
	before, had := d.seen[path]
	switch kind {
	case firestore.DocumentRemoved:
		delete(d.seen, path)
		if !d.primed {
			return Change{}, false
		}
		return Change{Path: path, Kind: KindDelete, Before: before}, true
	default:
		d.seen[path] = data
		if !d.primed {
			return Change{}, false
		}
		if kind == firestore.DocumentAdded && !had {
			return Change{Path: path, Kind: KindCreate, After: data}, true
		}
		return Change{Path: path, Kind: KindUpdate, Before: before, After: data}, true
	}
}
