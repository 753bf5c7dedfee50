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
	"github.com/redis/go-redis/v9"

	"github.com/avrusin/storefront/internal/cache"
	"github.com/avrusin/storefront/internal/config"
	"github.com/avrusin/storefront/internal/es"
	"github.com/avrusin/storefront/internal/handlers"
	"github.com/avrusin/storefront/internal/imagestore"
	"github.com/avrusin/storefront/internal/logging"
	"github.com/avrusin/storefront/internal/middleware/auth"
	"github.com/avrusin/storefront/internal/mykafka"
	"github.com/avrusin/storefront/internal/payment"
	"github.com/avrusin/storefront/internal/service/cart"
	"github.com/avrusin/storefront/internal/service/order"
	"github.com/avrusin/storefront/internal/service/token"
	httpserver "github.com/avrusin/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")
	config.MustNonEmpty(configuration.REFRESH_SECRET, "REFRESH_SECRET")

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}

	var redisClient *redis.Client
	if configuration.REDIS_ADDR != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: configuration.REDIS_ADDR})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unavailable, product cache disabled", "error", err)
			redisClient = nil
		}
	}

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}
	authMW := &auth.Middleware{Tokens: tokens}

	gateway := payment.NewClient(
		configuration.RAZORPAY_KEY_ID,
		configuration.RAZORPAY_KEY_SECRET,
		configuration.RAZORPAY_URL,
	)

	cartSvc := &cart.Service{DB: db}
	orderSvc := &order.Service{DB: db, Gateway: gateway}

	productCache := cache.NewProductCache(redisClient)
	images := imagestore.New(configuration.IMAGE_DIR)

	const productIndex = "products"

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(logger))
	e.Static("/images", configuration.IMAGE_DIR)

	deps := httpserver.Deps{
		DB:               db,
		Auth:             authMW,
		AuthHandler:      &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		StaffHandler:     &handlers.StaffHandler{DB: db, Tokens: tokens, Producer: prod},
		AdminHandler:     &handlers.AdminHandler{DB: db, Tokens: tokens, Producer: prod, Orders: orderSvc, AdminCode: configuration.ADMIN_CODE},
		ProductHandler:   &handlers.ProductHandler{DB: db, Producer: prod, ES: esClient, Index: productIndex, Cache: productCache, Images: images},
		WorkspaceHandler: &handlers.WorkspaceHandler{DB: db, Producer: prod, Images: images},
		CartHandler:      &handlers.CartHandler{Cart: cartSvc, Producer: prod},
		OrderHandler:     &handlers.OrderHandler{Orders: orderSvc, Producer: prod},
		SearchHandler:    &handlers.SearchHandler{ES: esClient, Index: productIndex},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
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

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
