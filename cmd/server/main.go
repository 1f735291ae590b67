package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/ticket-compare/internal/config"
	"github.com/iliyamo/ticket-compare/internal/database"
	"github.com/iliyamo/ticket-compare/internal/handler"
	"github.com/iliyamo/ticket-compare/internal/logger"
	"github.com/iliyamo/ticket-compare/internal/metrics"
	"github.com/iliyamo/ticket-compare/internal/middleware"
	"github.com/iliyamo/ticket-compare/internal/provider"
	"github.com/iliyamo/ticket-compare/internal/queue"
	"github.com/iliyamo/ticket-compare/internal/repository"
	"github.com/iliyamo/ticket-compare/internal/router"
	"github.com/iliyamo/ticket-compare/internal/service"
)

func main() {
	cfg := config.MustLoad() // Load environment config
	lg := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(lg)

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	// Redis is optional: nil disables caching and rate limiting.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		lg.Warn("redis unavailable; cache and rate limit disabled", "addr", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	providers, err := provider.NewFromConfig(cfg.Providers, metrics.NewProvider(reg))
	if err != nil {
		log.Fatalf("providers: %v", err)
	}
	if providers.Listings == nil {
		lg.Warn("RAPIDAPI_API_KEY not set; comparisons will list no other sellers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := service.Options{
		Match:           service.ParseMatchMode(cfg.Providers.MatchMode),
		SearchSize:      cfg.Providers.SearchSize,
		DiscoverKeyword: cfg.Providers.DiscoverKeyword,
		DiscoverSize:    cfg.Providers.DiscoverSize,
		Logger:          lg,
	}
	var activity *service.ActivityPublisher
	if cfg.Queue.Enabled {
		activity = service.NewActivityPublisher(cfg.Queue.URL, cfg.Queue.Name, lg)
		opts.Activity = activity
		go func() {
			err := queue.StartActivityConsumer(ctx, queue.ConsumerConfig{
				URL:    cfg.Queue.URL,
				Queue:  cfg.Queue.Name,
				LogDir: cfg.Queue.LogDir,
			}, lg)
			if err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("activity consumer stopped", "err", err)
			}
		}()
	}
	events := service.NewEventService(providers.Events, providers.Listings, opts)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID}
			if uid, ok := middleware.UserID(c); ok {
				attrs = append(attrs, "user_id", uid)
			}
			if v.Error != nil {
				lg.Error("request", append(attrs, "err", v.Error)...)
				return nil
			}
			lg.Info("request", attrs...)
			return nil
		},
	}))

	router.RegisterRoutes(e, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg.Auth, users, tokens, lg))
	router.RegisterProfile(e, handler.NewProfileHandler(cfg.Auth, users, tokens, lg), cfg.Auth.JWTSecret)
	router.RegisterEvents(e,
		handler.NewEventHandler(events, cfg.Providers.Timeout),
		cfg.Auth.JWTSecret,
		middleware.NewTokenBucket(cfg.RateLimit, rdb, lg),
		middleware.NewRedisCache(cfg.Cache, rdb, lg),
	)

	addr := ":" + cfg.App.Port                              // Address string with port
	lg.Info("listening", "addr", addr, "env", cfg.App.Env) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", "err", err)
	}
	if activity != nil {
		if err := activity.Close(shutdownCtx); err != nil {
			lg.Warn("activity events not flushed", "err", err)
		}
	}
}
