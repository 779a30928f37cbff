// README: Completion sweeper; hourly scan that auto-completes rides long past their start.
package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ridenotify/internal/modules/journal"
	"ridenotify/internal/modules/ride"
	"ridenotify/internal/types"
)

const DefaultThreshold = 6 * time.Hour

type RideStore interface {
	ListOpenRides(ctx context.Context) ([]ride.Ride, error)
	CompleteRide(ctx context.Context, rideID types.ID, expect ride.Status) (Plan, error)
}

// Lease guards against overlapping sweeps in different processes.
type Lease interface {
	Acquire(ctx context.Context) (string, error)
	Release(ctx context.Context, token string) error
}

type RunJournal interface {
	RecordSweep(ctx context.Context, r journal.SweepRun) error
}

type Options struct {
	Threshold time.Duration
	// RideLocation is the zone ride date/time fields are read in; nil means UTC.
	RideLocation *time.Location
	Lease        Lease
	Journal      RunJournal
	Log          *zap.Logger
	Now          func() time.Time
}

type Sweeper struct {
	store     RideStore
	threshold time.Duration
	loc       *time.Location
	lease     Lease
	journal   RunJournal
	log       *zap.Logger
	now       func() time.Time
}

func NewSweeper(store RideStore, opts Options) *Sweeper {
	s := &Sweeper{
		store:     store,
		threshold: opts.Threshold,
		loc:       opts.RideLocation,
		lease:     opts.Lease,
		journal:   opts.Journal,
		log:       opts.Log,
		now:       opts.Now,
	}
	if s.threshold <= 0 {
		s.threshold = DefaultThreshold
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Sweep runs one pass. Per-ride failures are counted and logged; an error is
// returned only when the scan itself fails, the lease is held or ctx ends.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.New(), StartedAt: s.now()}
	log := s.log.With(zap.String("run", res.RunID.String()))

	if s.lease != nil {
		token, err := s.lease.Acquire(ctx)
		if err != nil {
			return res, err
		}
		if token == "" {
			return res, ErrLeaseHeld
		}
		defer func() {
			if err := s.lease.Release(context.WithoutCancel(ctx), token); err != nil {
				log.Warn("lease release failed", zap.Error(err))
			}
		}()
	}

	rides, err := s.store.ListOpenRides(ctx)
	if err != nil {
		return res, fmt.Errorf("scan rides: %w", err)
	}

	now := s.now()
	for _, rd := range rides {
		if err := ctx.Err(); err != nil {
			s.finish(ctx, log, &res)
			return res, err
		}
		res.Scanned++
		s.sweepOne(ctx, log, rd, now, &res)
	}
	s.finish(ctx, log, &res)
	return res, nil
}

func (s *Sweeper) sweepOne(ctx context.Context, log *zap.Logger, rd ride.Ride, now time.Time, res *Result) {
	rlog := log.With(zap.String("ride", string(rd.ID)))
	if err := rd.Problem(); errors.Is(err, ride.ErrMalformedDocument) {
		res.Malformed++
		rlog.Warn("ride document unreadable; skipping", zap.Error(err))
		return
	}
	switch status := ride.NormalizeStatus(rd.Status); status {
	case ride.StatusActive:
	case ride.StatusCancelled:
		res.Skipped++
		return
	default:
		res.Skipped++
		rlog.Warn("ride has unexpected status; skipping", zap.String("status", string(status)))
		return
	}
	sched, err := rd.Schedule()
	if err != nil {
		res.Malformed++
		rlog.Warn("ride schedule unreadable; skipping", zap.Error(err))
		return
	}
	start := sched.In(s.loc)
	if !Eligible(start, now, s.threshold) {
		res.Skipped++
		return
	}

	plan, err := s.store.CompleteRide(ctx, rd.ID, rd.Status)
	switch {
	case errors.Is(err, ride.ErrMalformedDocument):
		res.Malformed++
		rlog.Warn("ride or request unreadable; skipping", zap.Error(err))
	case errors.Is(err, ErrStale):
		res.Stale++
		rlog.Info("ride changed since scan; left alone")
	case err != nil:
		res.Failed++
		rlog.Error("auto-complete failed", zap.Error(err))
	default:
		res.Completed++
		rlog.Info("ride auto-completed",
			zap.Duration("since_start", now.Sub(start)),
			zap.Int("requests", len(plan.RequestIDs)),
			zap.Int("ratings", len(plan.Ratings)))
	}
}

func (s *Sweeper) finish(ctx context.Context, log *zap.Logger, res *Result) {
	res.FinishedAt = s.now()
	log.Info("sweep finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("completed", res.Completed),
		zap.Int("skipped", res.Skipped),
		zap.Int("malformed", res.Malformed),
		zap.Int("stale", res.Stale),
		zap.Int("failed", res.Failed))
	if s.journal == nil {
		return
	}
	err := s.journal.RecordSweep(context.WithoutCancel(ctx), journal.SweepRun{
		ID:         res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Scanned:    res.Scanned,
		Completed:  res.Completed,
		Skipped:    res.Skipped,
		Malformed:  res.Malformed,
		Stale:      res.Stale,
		Failed:     res.Failed,
	})
	if err != nil {
		log.Warn("sweep journal write failed", zap.Error(err))
	}
}

// RunScheduler runs Sweep on spec in loc until ctx is cancelled, then waits
// for a running sweep to finish. Overlapping ticks in this process are
// skipped.
func (s *Sweeper) RunScheduler(ctx context.Context, spec string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			if errors.Is(err, ErrLeaseHeld) {
				s.log.Info("sweep skipped; lease held elsewhere")
				return
			}
			s.log.Error("sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", spec, err)
	}

	s.log.Info("sweep scheduler started", zap.String("schedule", spec), zap.String("tz", loc.String()))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
