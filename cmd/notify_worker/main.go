package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/gigboard/config"
	"github.com/oksasatya/gigboard/internal/notify"
	"github.com/oksasatya/gigboard/pkg/helpers"
	"github.com/oksasatya/gigboard/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-notify", cfg.Env, cfg.LogLevel)

	if !cfg.NotifyEnabled {
		logger.Info("NOTIFY_ENABLED=false; notify worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEngagementQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEngagementQueue, 16)
	if err != nil {
		logger.WithError(err).Fatal("amqp connect failed")
	}
	defer consumer.Close()

	deliveries, err := consumer.Deliveries(cfg.AppName + "-notify")
	if err != nil {
		logger.WithError(err).Fatal("amqp consume failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := notify.NewWorker(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), cfg.AppName, logger)
	logger.WithField("queue", cfg.RabbitMQEngagementQueue).Info("notify worker listening")
	w.Run(ctx, deliveries)
	logger.Info("notify worker stopped")
}
