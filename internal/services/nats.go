package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
)

const (
	StreamName    = "file-events"
	streamSubject = "files.*"
)

// EventBus publishes file events to JetStream and hands out durable
// subscriptions on them.
type EventBus struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
}

// ConnectEventBus connects to NATS, initializes JetStream and makes sure the
// file-events stream exists.
func ConnectEventBus(url string, logger *slog.Logger) (*EventBus, error) {
	logger = logger.With(slog.String("component", "nats"))

	opts := []nats.Option{
		nats.Name("catalog-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	bus := &EventBus{conn: conn, js: js, logger: logger}
	if err := bus.ensureStream(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", StreamName, err)
	}

	logger.Info("connected and JetStream initialized", slog.String("url", conn.ConnectedUrl()))
	return bus, nil
}

func (b *EventBus) ensureStream() error {
	_, err := b.js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}

	_, err = b.js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{streamSubject},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	if err == nil {
		b.logger.Info("stream created", slog.String("stream", StreamName))
	}
	return err
}

// Publish stores the event on the subject named by its type. Each message
// carries a fresh id so JetStream can drop duplicates on retry.
func (b *EventBus) Publish(ctx context.Context, event models.FileEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	subject := string(event.Type)
	_, err = b.js.Publish(subject, data, nats.MsgId(uuid.NewString()), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	b.logger.Debug("event published", slog.String("subject", subject), slog.Int64("file_id", event.Record.ID))
	return nil
}

// Subscribe creates a durable, manual-ack consumer. handler must Ack or Nak.
func (b *EventBus) Subscribe(subject, durable string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := b.js.Subscribe(subject, handler,
		nats.Durable(durable),
		nats.ManualAck(),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	b.logger.Info("subscribed", slog.String("subject", subject), slog.String("durable", durable))
	return sub, nil
}

// CheckConnection is used by the health endpoint.
func (b *EventBus) CheckConnection() error {
	if b == nil || b.conn == nil {
		return errors.New("nats not initialized")
	}
	if !b.conn.IsConnected() {
		return nats.ErrConnectionClosed
	}
	return nil
}

// Drain lets in-flight messages finish and closes the connection.
func (b *EventBus) Drain() error {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}
