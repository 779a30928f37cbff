// README: Entry point; loads config, wires services, starts HTTP server, change feed and sweep scheduler.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ridenotify/internal/config"
	httptransport "ridenotify/internal/http"
	"ridenotify/internal/http/handlers"
	"ridenotify/internal/infra"
	"ridenotify/internal/maps"
	"ridenotify/internal/modules/completion"
	"ridenotify/internal/modules/journal"
	"ridenotify/internal/modules/notification"
	"ridenotify/internal/modules/party"
	"ridenotify/internal/modules/watcher"
	"ridenotify/internal/types"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Maps.APIKey == "" {
		logger.Fatal("GOOGLE_MAPS_API_KEY is required")
	}

	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		logger.Fatal("firebase init", zap.Error(err))
	}
	fs, err := app.Firestore(ctx)
	if err != nil {
		logger.Fatal("firestore client", zap.Error(err))
	}
	defer fs.Close()
	fcm, err := app.Messaging(ctx)
	if err != nil {
		logger.Fatal("messaging client", zap.Error(err))
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, app)
	if err != nil {
		logger.Fatal("auth client", zap.Error(err))
	}

	var (
		deliveries notification.DeliveryJournal
		counts     handlers.DeliveryCounter
		history    handlers.SweepHistory
	)
	sweepOpts := completion.Options{
		Threshold:    cfg.Sweep.Threshold,
		RideLocation: cfg.Sweep.RideLocation,
		Log:          logger.Named("sweep"),
	}
	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Fatal("journal db", zap.Error(err))
		}
		defer pool.Close()
		j := journal.NewStore(pool)
		deliveries, counts, history, sweepOpts.Journal = j, j, j, j
	} else {
		logger.Info("RIDENOTIFY_DB_DSN not set; delivery journal disabled")
	}
	if cfg.Redis.Addr != "" {
		rc := infra.NewRedis(cfg.Redis.Addr)
		defer rc.Close()
		sweepOpts.Lease = completion.NewRedisLease(rc, cfg.Sweep.LeaseKey, cfg.Sweep.LeaseTTL)
	} else {
		logger.Info("RIDENOTIFY_REDIS_ADDR not set; sweep lease disabled")
	}

	dispatcher := notification.NewDispatcher(
		notification.NewFCMPusher(fcm),
		notification.NewStore(fs),
		deliveries,
		logger.Named("dispatch"),
	)
	router := watcher.NewRouter(logger.Named("watcher"), watcher.Default(watcher.Deps{
		Parties:  party.NewResolver(party.NewStore(fs, logger.Named("party"))),
		Notifier: dispatcher,
		Log:      logger.Named("watcher"),
	})...)
	sweeper := completion.NewSweeper(completion.NewStore(fs), sweepOpts)

	mapsClient, err := maps.NewClient(cfg.Maps.APIKey)
	if err != nil {
		logger.Fatal("maps client", zap.Error(err))
	}
	bias := maps.Bias{
		Center:  types.Point{Lat: cfg.Geo.BiasLat, Lng: cfg.Geo.BiasLng},
		RadiusM: uint(cfg.Geo.RadiusM),
		Country: cfg.Geo.CountryCode,
	}

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Verifier:   verifier,
		Places:     maps.NewPlacesService(mapsClient, bias),
		Geocoder:   maps.NewGeocodeService(mapsClient),
		Events:     router,
		Sweeper:    sweeper,
		History:    history,
		Deliveries: counts,
		Log:        logger.Named("http"),
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweeper.RunScheduler(gctx, cfg.Sweep.Schedule, cfg.Sweep.Location)
	})
	if cfg.Feed.Enabled {
		feed := watcher.NewFeed(fs, router, logger.Named("feed"))
		g.Go(func() error { return feed.Run(gctx) })
	}
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown with error", zap.Error(err))
		return
	}
	logger.Info("stopped")
}
