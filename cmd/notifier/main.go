package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/notification"
)

const consumerGroup = "email-notifier"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notifier] Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Order Status Notifier")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v (topic %s, group %s)", cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup)
	log.Printf("[Notifier] SMTP: %s:%s (from %s)", cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	handler := notification.NewHandler(emailSvc)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup)
	defer consumer.Close()

	errCh := make(chan error, 1)
	go func() {
		log.Println("[Notifier] Consuming order status events...")
		errCh <- consumer.Consume(ctx, handler.HandleMessage)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Println("[Notifier] Shutting down...")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			log.Fatalf("[Notifier] Consumer error: %v", err)
		}
	}
}
