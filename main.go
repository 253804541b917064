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

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"taskboard/api"
	"taskboard/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := cfg.newLogger()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer db.Close()

	var store api.Storage = db
	var deduper api.Deduper
	if cfg.Redis != nil {
		rc := redis.NewClient(cfg.Redis)
		defer rc.Close()
		store = storage.NewCache(db, rc, cfg.CacheTTL)
		deduper = api.NewRedisDeduper(rc, cfg.DeduperTTL)
		logger.WithField("addr", cfg.Redis.Addr).Info("redis cache and move idempotency enabled")
	} else {
		logger.Warn("REDIS_CONNECTION_STRING not set; project cache and move idempotency disabled")
	}

	auth, err := newAuth(cfg)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = api.SonicSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(api.RequestLogger(logger))
	e.Use(api.RequestMetrics(logger))
	e.Use(echoprometheus.NewMiddleware("taskboard"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, store, auth, deduper, logger)

	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("gateway starting")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down gateway")

	sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}

func newAuth(cfg config) (*api.Auth, error) {
	if len(cfg.SharedSecret) > 0 {
		return api.NewAuth(nil, api.AuthOptions{
			Audience:     cfg.AuthAudience,
			SharedSecret: cfg.SharedSecret,
		})
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", cfg.AuthDomain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{RefreshInterval: cfg.JWKSCacheTTL})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return api.NewAuth(jwks, api.AuthOptions{
		Audience:    cfg.AuthAudience,
		Issuer:      "https://" + cfg.AuthDomain + "/",
		KeyCacheTTL: cfg.JWKSCacheTTL,
	})
}
