package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentgate/internal/app/commands"
	"rentgate/internal/infra/broker/kafka"
	"rentgate/internal/infra/broker/rabbitmq"
	"rentgate/internal/infra/config"
	infraoutbox "rentgate/internal/infra/outbox"
)

const (
	shutdownTimeout = 5 * time.Second
	clientID        = "rentgate"
)

// startMessaging runs the outbox worker and, on Kafka, the payment outcome consumer.
// The returned func waits for both loops after ctx is cancelled.
func startMessaging(ctx context.Context, cfg config.Config, st *storage, bus commands.Bus, logger *slog.Logger) (func(), error) {
	var (
		producer infraoutbox.Producer
		closers  []func() error
		loops    []func(context.Context) error
	)
	switch cfg.Broker {
	case config.BrokerKafka:
		p, err := kafka.NewProducer(cfg.KafkaBrokers, clientID)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		producer = p
		closers = append(closers, p.Close)

		handler := &kafka.OutcomeHandler{Bus: bus, Inbox: st.inbox, Logger: logger}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, handler, logger)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		closers = append(closers, consumer.Close)
		loops = append(loops, func(ctx context.Context) error {
			return consumer.Run(ctx, []string{cfg.KafkaOutcomesTopic})
		})
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq publisher: %w", err)
		}
		producer = p
		closers = append(closers, p.Close)
	default:
		logger.Info("no broker configured, outbox events are not published")
		return func() {}, nil
	}

	worker := &infraoutbox.Worker{
		Store:       st.outboxStore,
		Producer:    infraoutbox.NewBreakerProducer(cfg.Broker, producer, logger),
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		ID:          clientID + "-" + uuid.NewString(),
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	loops = append(loops, worker.Run)

	done := make(chan struct{}, len(loops))
	for _, loop := range loops {
		go func(run func(context.Context) error) {
			defer func() { done <- struct{}{} }()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background loop stopped", "error", err)
			}
		}(loop)
	}
	logger.Info("messaging started", "broker", cfg.Broker, "worker_id", worker.ID)

	return func() {
		timeout := time.After(shutdownTimeout)
		for range loops {
			select {
			case <-done:
			case <-timeout:
				logger.Warn("background loops did not stop in time")
				return
			}
		}
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("broker close failed", "error", err)
			}
		}
	}, nil
}
