// Package service holds the application services that sit between the HTTP
// handlers and the outside world: audit event publication and routine
// generation.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/config"
	"github.com/glowscan/skincare-admin/internal/queue"
)

// AuditPublisher delivers scan audit events. Callers log failures and carry
// on; an event is never a reason to fail a request.
type AuditPublisher interface {
	Publish(ctx context.Context, ev queue.ScanAuditEvent) error
}

// NewAuditEvent stamps an event with a fresh id and the current UTC time.
func NewAuditEvent(action string, analysisID, adminID uint64, recommendations int64, reason string) queue.ScanAuditEvent {
	return queue.ScanAuditEvent{
		EventID:         uuid.NewString(),
		Action:          action,
		AnalysisID:      analysisID,
		AdminID:         adminID,
		Recommendations: recommendations,
		Reason:          reason,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}
}

// NewAuditPublisher returns an AMQP publisher when audit events are enabled
// and a no-op otherwise.
func NewAuditPublisher(cfg config.RabbitMQConfig, logger *zap.Logger) AuditPublisher {
	if !cfg.Enabled {
		return NoopPublisher{}
	}
	q := cfg.Queue
	if q == "" {
		q = queue.AuditQueueName
	}
	return &AMQPPublisher{url: cfg.URL, queue: q, logger: logger.Named("audit_publisher")}
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, queue.ScanAuditEvent) error { return nil }

// AMQPPublisher opens a connection per event and publishes it as a
// persistent JSON message to a durable queue on the default exchange.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *zap.Logger
}

// Publish sends ev. Errors are logged and returned.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ScanAuditEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.logger.Warn("rabbitmq queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.logger.Warn("rabbitmq publish failed", zap.Error(err))
		return err
	}
	p.logger.Debug("audit event published",
		zap.String("event_id", ev.EventID),
		zap.String("action", ev.Action),
		zap.Uint64("analysis_id", ev.AnalysisID))
	return nil
}
