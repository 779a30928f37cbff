// README: One-shot completion sweep for external schedulers.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ridenotify/internal/config"
	"ridenotify/internal/infra"
	"ridenotify/internal/modules/completion"
	"ridenotify/internal/modules/journal"
)

func main() {
	os.Exit(run())
}

// run returns 0 even when individual rides fail; per-ride failures are in
// the log and the journal.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Print(err)
		return 2
	}
	logger, err := infra.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Print(err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		logger.Error("firebase init", zap.Error(err))
		return 1
	}
	fs, err := app.Firestore(ctx)
	if err != nil {
		logger.Error("firestore client", zap.Error(err))
		return 1
	}
	defer fs.Close()

	opts := completion.Options{
		Threshold:    cfg.Sweep.Threshold,
		RideLocation: cfg.Sweep.RideLocation,
		Log:          logger,
	}
	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Error("journal db", zap.Error(err))
			return 1
		}
		defer pool.Close()
		opts.Journal = journal.NewStore(pool)
	}
	if cfg.Redis.Addr != "" {
		rc := infra.NewRedis(cfg.Redis.Addr)
		defer rc.Close()
		opts.Lease = completion.NewRedisLease(rc, cfg.Sweep.LeaseKey, cfg.Sweep.LeaseTTL)
	}

	res, err := completion.NewSweeper(completion.NewStore(fs), opts).Sweep(ctx)
	if errors.Is(err, completion.ErrLeaseHeld) {
		logger.Warn("another sweep holds the lease")
		return 3
	}
	if err != nil {
		logger.Error("sweep failed", zap.Error(err))
		return 1
	}
	logger.Info("sweep done", zap.String("run", res.RunID.String()), zap.Int("completed", res.Completed))
	return 0
}
