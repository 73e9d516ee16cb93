// README: Entry point; loads config, wires stores and services, starts the HTTP server.
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

	"github.com/jackc/pgx/v5/pgxpool"

	"carebook/internal/ai"
	"carebook/internal/config"
	httptransport "carebook/internal/http"
	"carebook/internal/http/handlers"
	"carebook/internal/http/middleware"
	"carebook/internal/infra"
	"carebook/internal/logger"
	"carebook/internal/modules/account"
	"carebook/internal/modules/analytics"
	"carebook/internal/modules/assignment"
	"carebook/internal/modules/booking"
	"carebook/internal/modules/catalog"
	"carebook/internal/modules/dashboard"
	"carebook/internal/store/memstore"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

type stores struct {
	accounts account.Repository
	catalog  catalog.Repository
	bookings booking.Repository
	pinger   analytics.Pinger
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.New(cfg.ServiceName, cfg.Logger.Level)
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := infra.InitTracer(ctx, cfg.ServiceName, version, os.Getenv("CAREBOOK_ENV"), cfg.Tracing.Endpoint)
	if err != nil {
		lg.Error("tracer init failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	loc, err := cfg.Booking.Location()
	if err != nil {
		lg.Error("invalid time zone", logger.String("tz", cfg.Booking.TimeZone), logger.Error(err))
		os.Exit(1)
	}

	st, err := openStores(ctx, cfg, lg)
	if err != nil {
		lg.Error("store init failed", logger.String("driver", cfg.DB.Driver), logger.Error(err))
		os.Exit(1)
	}
	defer st.close()

	accountSvc := account.NewService(st.accounts)
	catalogSvc := catalog.NewService(st.catalog)

	bookingOpts := []booking.Option{booking.WithLocation(loc), booking.WithLogger(lg)}
	if cfg.AMQP.URL != "" {
		pub, err := infra.NewEventPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			lg.Error("event publisher init failed", logger.Error(err))
			os.Exit(1)
		}
		defer pub.Close()
		bookingOpts = append(bookingOpts, booking.WithPublisher(pub))
	}
	bookingSvc := booking.NewService(st.bookings, accountSvc, catalogSvc, bookingOpts...)

	var locker assignment.Locker
	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			lg.Error("redis init failed", logger.Error(err))
			os.Exit(1)
		}
		defer rdb.Close()
		locker = assignment.NewRedisLocker(rdb, cfg.Redis.LockTTL)
	}
	assignSvc := assignment.NewService(bookingSvc, accountSvc, locker, lg)

	var recommender analytics.Recommender
	if cfg.AI.GeminiKey != "" {
		gen, err := ai.NewGeminiGenerator(ctx, cfg.AI.GeminiKey)
		if err != nil {
			lg.Warning("gemini unavailable, using heuristic recommendations", logger.Error(err))
		} else {
			defer gen.Close()
			recommender = ai.NewRecommender(gen)
		}
	}
	analyticsSvc := analytics.NewService(bookingSvc, st.pinger, recommender, analytics.Options{
		RealizedOnly: cfg.Analytics.RealizedOnly,
		Currency:     cfg.Booking.Currency,
	}, lg)
	viewSvc := dashboard.NewService(bookingSvc, cfg.Booking.Currency)

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		lg.Error("auth init failed", logger.String("mode", cfg.Auth.Mode), logger.Error(err))
		os.Exit(1)
	}

	srv := httptransport.NewServer(httptransport.ServerDeps{
		Bookings:    handlers.NewBookingHandler(bookingSvc, assignSvc, loc),
		Views:       handlers.NewViewHandler(viewSvc),
		Analytics:   handlers.NewAnalyticsHandler(analyticsSvc),
		Catalog:     handlers.NewCatalogHandler(catalogSvc),
		Verifier:    verifier,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Logger:      lg,
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: srv.Routes()}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			lg.Error("http shutdown", logger.Error(err))
		}
	}()

	lg.Info("http server starting", logger.String("addr", cfg.HTTP.Addr), logger.String("driver", cfg.DB.Driver))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error("http server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func openStores(ctx context.Context, cfg config.Config, lg logger.ILogger) (*stores, error) {
	if cfg.DB.Driver == config.DriverMemory {
		mem := memstore.New()
		if err := seedMemory(ctx, account.NewService(mem.Accounts()), catalog.NewService(mem.Catalog()), lg); err != nil {
			return nil, err
		}
		lg.Warning("using in-memory store; data is lost on restart")
		return &stores{
			accounts: mem.Accounts(),
			catalog:  mem.Catalog(),
			bookings: mem.Bookings(),
			pinger:   mem,
			close:    func() {},
		}, nil
	}

	if cfg.DB.AutoMigrate {
		m, err := infra.NewMigrator(cfg.DB.MigrationsPath, cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		err = m.Up()
		_ = m.Close()
		if err != nil {
			return nil, err
		}
		lg.Info("migrations applied", logger.String("path", cfg.DB.MigrationsPath))
	}

	pool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	return &stores{
		accounts: account.NewStore(pool),
		catalog:  catalog.NewStore(pool),
		bookings: booking.NewStore(pool),
		pinger:   poolPinger{pool},
		close:    pool.Close,
	}, nil
}

type poolPinger struct{ pool *pgxpool.Pool }

func (p poolPinger) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func newVerifier(ctx context.Context, cfg config.Config) (infra.TokenVerifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthJWT:
		return infra.NewJWTVerifier(cfg.Auth.JWTSecret), nil
	case config.AuthFirebase:
		return infra.NewFirebaseVerifier(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredentialsFile)
	default:
		return nil, nil
	}
}
