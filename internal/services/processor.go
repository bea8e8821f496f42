package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
)

var eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_file_events_processed_total",
	Help: "File events handled by the post-processing pipeline.",
}, []string{"event", "status"})

// VirusScanner is satisfied by *Scanner.
type VirusScanner interface {
	Scan(path string) (ScanVerdict, error)
}

// ObjectMirror is satisfied by *MinioMirror.
type ObjectMirror interface {
	Upload(ctx context.Context, record models.FileRecord) error
	Remove(ctx context.Context, id int64) error
}

// FileProcessor runs the follow-up work for catalog events: registered and
// updated files are scanned, and clean ones are mirrored; deleted files are
// dropped from the mirror. Both collaborators are optional.
type FileProcessor struct {
	scanner VirusScanner
	mirror  ObjectMirror
	logger  *slog.Logger
}

func NewFileProcessor(scanner VirusScanner, mirror ObjectMirror, logger *slog.Logger) *FileProcessor {
	return &FileProcessor{
		scanner: scanner,
		mirror:  mirror,
		logger:  logger.With(slog.String("component", "file_processor")),
	}
}

// Process handles one event. A returned error means the event should be
// retried.
func (p *FileProcessor) Process(ctx context.Context, event models.FileEvent) error {
	err := p.process(ctx, event)
	status := "ok"
	if err != nil {
		status = "error"
	}
	eventsProcessed.WithLabelValues(string(event.Type), status).Inc()
	return err
}

func (p *FileProcessor) process(ctx context.Context, event models.FileEvent) error {
	record := event.Record

	switch event.Type {
	case models.EventFileRegistered, models.EventFileUpdated:
		if p.scanner != nil {
			verdict, err := p.scanner.Scan(record.FilePath)
			if err != nil {
				return fmt.Errorf("scan of file %d failed: %w", record.ID, err)
			}
			if verdict.Infected {
				p.logger.Warn("virus detected, file not mirrored",
					slog.Int64("file_id", record.ID),
					slog.String("path", record.FilePath),
					slog.String("signature", verdict.Signature),
				)
				if p.mirror != nil {
					return p.mirror.Remove(ctx, record.ID)
				}
				return nil
			}
		}
		if p.mirror != nil {
			return p.mirror.Upload(ctx, record)
		}
		return nil

	case models.EventFileDeleted:
		if p.mirror != nil {
			return p.mirror.Remove(ctx, record.ID)
		}
		return nil

	default:
		p.logger.Warn("unknown event type", slog.String("type", string(event.Type)))
		return nil
	}
}

// InlinePublisher runs the processor in the publishing goroutine. It stands
// in for the event bus when NATS is not configured.
type InlinePublisher struct {
	Processor *FileProcessor
}

func (p InlinePublisher) Publish(ctx context.Context, event models.FileEvent) error {
	return p.Processor.Process(ctx, event)
}
