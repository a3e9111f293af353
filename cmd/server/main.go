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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/akozhevin/storefront/internal/config"
	"github.com/akozhevin/storefront/internal/es"
	"github.com/akozhevin/storefront/internal/handlers"
	"github.com/akozhevin/storefront/internal/logging"
	"github.com/akozhevin/storefront/internal/mykafka"
	"github.com/akozhevin/storefront/internal/service/search"
	"github.com/akozhevin/storefront/internal/service/token"
	httpserver "github.com/akozhevin/storefront/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(cfg.JWT_SECRET)
	refreshSecret := []byte(cfg.REFRESH_SECRET)

	var producer *mykafka.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}

	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := logger.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		JWTSecret:   jwtSecret,
		Auth:        &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		User:        &handlers.UserHandler{DB: db, Tokens: tokens},
		Product:     &handlers.ProductHandler{DB: db, Producer: producer, ES: esClient, Index: search.Index},
		Category:    &handlers.CategoryHandler{DB: db},
		Cart:        &handlers.CartHandler{DB: db, Producer: producer},
		Order:       &handlers.OrderHandler{DB: db, Producer: producer},
		Shipping:    &handlers.ShippingHandler{DB: db},
		Payment:     &handlers.PaymentHandler{DB: db, Producer: producer, WebhookSecret: []byte(cfg.WEBHOOK_SECRET)},
		Review:      &handlers.ReviewHandler{DB: db},
		Inventory:   &handlers.InventoryHandler{DB: db, Producer: producer},
		HomeFeature: &handlers.HomeFeatureHandler{DB: db},
		Search:      &handlers.SearchHandler{ES: esClient, Index: search.Index},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTP_ADDR)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
