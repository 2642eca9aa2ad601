package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConsumerConfig tells the audit consumer where to read from and write to.
type ConsumerConfig struct {
	URL     string
	Queue   string
	LogPath string // e.g. logs/audit.log
}

// StartAuditConsumer connects to RabbitMQ, declares the audit queue (durable)
// and appends every event to cfg.LogPath as one line. It reconnects with
// exponential backoff and only returns when ctx is cancelled.
func StartAuditConsumer(ctx context.Context, cfg ConsumerConfig, logger *zap.Logger) error {
	if cfg.Queue == "" {
		cfg.Queue = AuditQueueName
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join("logs", "audit.log")
	}
	logger = logger.Named("audit_consumer")

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			logger.Warn("failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, logger *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	logger.Info("consuming", zap.String("queue", cfg.Queue), zap.String("log_path", cfg.LogPath))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(d.Body, cfg.LogPath); err != nil {
				logger.Error("handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(body []byte, logPath string) error {
	var ev ScanAuditEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Action == "" || ev.AnalysisID == 0 {
		return fmt.Errorf("incomplete event %q", ev.EventID)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as a single newline-terminated log line.
func FormatAuditLine(ev ScanAuditEvent) string {
	line := fmt.Sprintf("[%s] Scan %s | event_id=%s | analysis_id=%d | admin_id=%d | recommendations=%d",
		ev.OccurredAt, ev.Action, ev.EventID, ev.AnalysisID, ev.AdminID, ev.Recommendations)
	if ev.Reason != "" {
		line += " | reason=" + strconv.Quote(ev.Reason)
	}
	return line + "\n"
}
