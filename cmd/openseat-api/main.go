// README: Entry point; loads config, wires stores and services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"openseat/internal/config"
	httptransport "openseat/internal/http"
	"openseat/internal/infra"
	"openseat/internal/logger"
	"openseat/internal/modules/booking"
	"openseat/internal/modules/geo"
	"openseat/internal/modules/matching"
	"openseat/internal/modules/payment"
	"openseat/internal/modules/token"
	"openseat/internal/modules/trip"
	"openseat/internal/modules/user"
	"openseat/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", logger.Err(err))
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, nil)
	if err := run(cfg, log); err != nil {
		log.Error("openseat-api stopped", logger.Err(err))
		os.Exit(1)
	}
}

type stores struct {
	trips    trip.Store
	bookings booking.Store
	tokens   token.Store
	payments payment.Store
	users    user.Store
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		return errors.New("OPENSEAT_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return err
	}

	var st stores
	switch cfg.Store.Driver {
	case "memory":
		tripStore := trip.NewMemoryStore(types.SystemClock{})
		bookingStore := booking.NewMemoryStore(tripStore)
		tripStore.SetBookingProbe(bookingStore.HasTrip)
		st = stores{
			trips:    tripStore,
			bookings: bookingStore,
			tokens:   token.NewMemoryStore(),
			payments: payment.NewMemoryStore(),
			users:    user.NewMemoryStore(),
		}
		log.Warn("using in-memory stores; data is lost on restart")
	default:
		db, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		st = stores{
			trips:    trip.NewStore(db),
			bookings: booking.NewStore(db),
			tokens:   token.NewStore(db),
			payments: payment.NewStore(db),
			users:    user.NewStore(db),
		}
	}

	var locker booking.Locker = booking.NewMemoryLocker()
	if cfg.Redis.Addr != "" {
		rdb := infra.NewRedis(cfg.Redis.Addr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		locker = infra.NewRedisLocker(rdb, cfg.Redis.LockTTL)
	}

	var publisher booking.Publisher
	if cfg.RabbitMQ.URL != "" {
		pub, err := infra.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		publisher = pub
	}

	clock := types.SystemClock{}
	users := user.NewService(st.users, clock, log)
	trips := trip.NewService(st.trips, clock, log)
	tokens := token.NewService(st.tokens, cfg.Token, clock, log)
	bookings := booking.NewService(booking.Deps{
		Store:     st.bookings,
		Trips:     trips,
		Tokens:    tokens,
		Users:     users,
		Locker:    locker,
		Publisher: publisher,
		Clock:     clock,
		Log:       log,
	})
	payments := payment.NewService(st.payments, bookings, payment.NewInterswitch(cfg.Interswitch), users, clock, log)
	search := matching.NewService(trips, matching.NewRanker(geo.DefaultLagos(), cfg.Search.Limit), log)

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Trips:       trips,
		Search:      search,
		Bookings:    bookings,
		Tokens:      tokens,
		Payments:    payments,
		Users:       users,
		Verifier:    verifier,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Log:         log,
	})

	log.Info("openseat-api starting", "store", cfg.Store.Driver, "redis_lock", cfg.Redis.Addr != "", "events", cfg.RabbitMQ.URL != "")
	return httptransport.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, log).Run(ctx)
}
