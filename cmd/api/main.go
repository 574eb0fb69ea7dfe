package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/payment"
	"github.com/example/storefront/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Invalid configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("[API] JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[API] JWT_SECRET must be at least 32 characters long")
	}
	if cfg.StripeAPIKey == "" {
		log.Fatal("[API] STRIPE_SECRET_KEY environment variable is required")
	}
	if cfg.StripeWebhookSecret == "" {
		log.Fatal("[API] STRIPE_WEBHOOK_SECRET environment variable is required")
	}

	log.Println("[API] ========================================")
	log.Printf("[API] Storefront - %s mode", cfg.Capabilities.Model)
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v (topic %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
	if cfg.Capabilities.DepositPercent > 0 {
		log.Printf("[API] Charging %d%% deposit at checkout", cfg.Capabilities.DepositPercent)
	}

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	if err := store.EnsureSchema(db); err != nil {
		log.Fatalf("[API] Failed to ensure schema: %v", err)
	}
	log.Println("[API] Connected to PostgreSQL")

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	// Stores
	ledger := store.NewPostgresLedger(db)
	carts := store.NewPostgresCartStore(db)
	products := store.NewPostgresCatalog(db)
	sessions := store.NewPostgresSessionStore(db)
	subs := store.NewPostgresSubscriptionStore(db)
	seen := store.NewPostgresWebhookEventStore(db)
	users := store.NewPostgresUserStore(db)

	// Services
	provider := payment.NewStripeProvider(cfg.StripeAPIKey, cfg.StripeWebhookSecret)
	resolver := catalog.NewResolver(products)
	checkoutSvc := checkout.NewService(carts, resolver, provider, sessions, ledger, checkout.Config{
		Mode:            cfg.Capabilities.CheckoutMode,
		DepositPercent:  cfg.Capabilities.DepositPercent,
		SuccessURL:      cfg.CheckoutSuccessURL,
		CancelURL:       cfg.CheckoutCancelURL,
		ProviderTimeout: cfg.ProviderTimeout,
	})
	processor := webhook.NewProcessor(ledger, sessions, subs, seen, producer)
	jwtService := auth.NewJWTService(
		cfg.JWTSecret,
		15*time.Minute, // Access token expiry
		7*24*time.Hour, // Refresh token expiry (7 days)
	)

	// API
	handlers := api.NewHandlers(products, carts, checkoutSvc, ledger, subs, producer, db)
	authHandlers := api.NewAuthHandlers(users, jwtService)
	webhookHandlers := api.NewWebhookHandlers(provider, processor)
	router := api.NewRouter(handlers, authHandlers, webhookHandlers, jwtService)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
