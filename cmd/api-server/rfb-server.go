package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"rfbmarket/db"
	"rfbmarket/db/migrations"
	"rfbmarket/internal/config"
	"rfbmarket/internal/delivery"
	"rfbmarket/internal/handlers"
	"rfbmarket/internal/logger"
	"rfbmarket/internal/metrics"
	"rfbmarket/internal/otp"
	"rfbmarket/internal/pricing"
	"rfbmarket/internal/workflow"
)

const serviceName = "rfbmarket"

type storage interface {
	handlers.StorageInterface
	delivery.BidRecorder
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer closeStore()

	otpStore, closeOTP, err := openOTPStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open otp store")
	}
	defer closeOTP()

	publisher, closePublisher, err := openPublisher(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open publisher")
	}
	defer closePublisher()

	m := metrics.New(serviceName, prometheus.DefaultRegisterer)

	var codes otp.CodeGenerator = otp.RandomCode{}
	if cfg.OTP.Mode == config.OTPModeFixed {
		codes = otp.FixedCode(cfg.OTP.FixedCode)
	}
	gate := otp.NewGate(otpStore, codes, otp.LogSender{Log: log, RevealCode: cfg.Development()}, cfg.OTP.TTL)

	registry := workflow.NewRegistry(workflow.Deps{
		Gate: gate,
		Deliverer: &delivery.ProposalDeliverer{
			Publisher: publisher,
			Queue:     cfg.AMQP.ProposalsQueue,
			Bids:      store,
			Log:       log,
		},
		Rates: pricing.Rates{
			CGST:     cfg.Pricing.CGSTRate,
			SGST:     cfg.Pricing.SGSTRate,
			Discount: cfg.Pricing.DiscountRate,
		},
		Log:      log,
		Observer: m,
	})
	go runJanitor(ctx, cfg.Proposals, registry, otpStore, log)

	notifier := delivery.ShortlistNotifier{Publisher: publisher, Queue: cfg.AMQP.ShortlistQueue}
	h := handlers.NewHandler(store, registry, notifier, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger(log, m))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", h.Routes)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Address).Msg("starting rfb server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStorage connects to Postgres when POSTGRES_CONN is set and falls back
// to the seeded in-memory store otherwise. Postgres only gets the demo rows
// in development.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage, func(), error) {
	if cfg.Postgres.Conn == "" {
		log.Warn().Msg("POSTGRES_CONN is not set, using in-memory storage with demo data")
		return db.NewSeededMemoryStorage(time.Now()), func() {}, nil
	}

	dbConn, err := sqlx.Connect("postgres", cfg.Postgres.Conn)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to DB: %w", err)
	}
	if cfg.Postgres.MigrationsEnabled {
		if err := migrations.Run(dbConn.DB, log); err != nil {
			dbConn.Close()
			return nil, nil, err
		}
	}
	store := db.NewStorage(dbConn)
	if cfg.Development() {
		n, err := db.SeedDemo(ctx, store, time.Now())
		if err != nil {
			dbConn.Close()
			return nil, nil, fmt.Errorf("seed demo data: %w", err)
		}
		log.Info().Int("rfbs", n).Msg("demo data seeded")
	}
	return store, func() { dbConn.Close() }, nil
}

// runJanitor drops idle proposals and, for the in-memory store, expired
// passcode sessions until ctx is done.
func runJanitor(ctx context.Context, cfg config.ProposalsConfig, registry *workflow.Registry, otpStore otp.Store, log zerolog.Logger) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	memStore, _ := otpStore.(*otp.MemoryStore)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := registry.Sweep(cfg.IdleTTL)
			expired := 0
			if memStore != nil {
				expired = memStore.Sweep()
			}
			if dropped == 0 && expired == 0 {
				continue
			}
			ev := log.Debug().
				Int("proposals_dropped", dropped).
				Int("proposals_held", registry.Len()).
				Int("otp_sessions_expired", expired)
			if memStore != nil {
				ev = ev.Int("otp_sessions_held", memStore.Len())
			}
			ev.Msg("swept idle state")
		}
	}
}

func openOTPStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (otp.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR is not set, keeping otp sessions in memory")
		return otp.NewMemoryStore(), func() {}, nil
	}

	rs, err := otp.NewRedisStore(ctx, otp.RedisConfig{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("otp sessions stored in redis")
	return rs, func() { rs.Close() }, nil
}

func openPublisher(cfg *config.Config, log zerolog.Logger) (delivery.Publisher, func(), error) {
	if cfg.AMQP.URL == "" {
		log.Info().Msg("AMQP_URL is not set, proposals are written to the log")
		return delivery.LogPublisher{Log: log}, func() {}, nil
	}

	p, err := delivery.NewAMQPPublisher(cfg.AMQP.URL, log)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { p.Close() }, nil
}
