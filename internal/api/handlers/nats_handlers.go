package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services"
)

const eventTimeout = 25 * time.Second

// EventHandlers consumes file events from JetStream.
type EventHandlers struct {
	processor *services.FileProcessor
	logger    *slog.Logger
}

func NewEventHandlers(processor *services.FileProcessor, logger *slog.Logger) *EventHandlers {
	return &EventHandlers{
		processor: processor,
		logger:    logger.With(slog.String("component", "nats_handlers")),
	}
}

// HandleFileEvent decodes a FileEvent and runs it through the processor.
// Undecodable payloads are terminated; processing failures are redelivered.
func (h *EventHandlers) HandleFileEvent(msg *nats.Msg) {
	var event models.FileEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		h.logger.Error("invalid payload", slog.String("subject", msg.Subject), slog.Any("error", err))
		_ = msg.Term()
		return
	}
	if event.Type == "" {
		event.Type = models.EventType(msg.Subject)
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if err := h.processor.Process(ctx, event); err != nil {
		h.logger.Warn("event processing failed",
			slog.String("subject", msg.Subject),
			slog.Int64("file_id", event.Record.ID),
			slog.Any("error", err),
		)
		_ = msg.Nak()
		return
	}

	h.logger.Debug("event processed", slog.String("subject", msg.Subject), slog.Int64("file_id", event.Record.ID))
	_ = msg.Ack()
}
