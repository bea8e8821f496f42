package download

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/storage"
)

var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_downloads_total",
		Help: "Download requests by mode (single, batch) and outcome.",
	}, []string{"mode", "status"})

	archiveBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_archive_build_duration_seconds",
		Help:    "Time spent assembling zip archives.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})

	archiveEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_archive_entries_total",
		Help: "Files written into zip archives.",
	})

	downloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_download_bytes_total",
		Help: "Bytes handed out as download bodies.",
	})
)

// Service serves single-file and batch downloads.
type Service struct {
	catalog    storage.Catalog
	reconciler *Reconciler
	builder    *Builder
	logger     *slog.Logger
}

func NewService(catalog storage.Catalog, logger *slog.Logger) *Service {
	return &Service{
		catalog:    catalog,
		reconciler: NewReconciler(catalog),
		builder:    NewBuilder(),
		logger:     logger.With(slog.String("component", "download_service")),
	}
}

// DownloadOne streams the file behind id.
func (s *Service) DownloadOne(ctx context.Context, id int64) (*Stream, error) {
	record, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		downloadsTotal.WithLabelValues("single", statusOf(err)).Inc()
		return nil, err
	}

	stream, err := s.builder.Single(record)
	if err != nil {
		downloadsTotal.WithLabelValues("single", statusOf(err)).Inc()
		return nil, err
	}

	downloadsTotal.WithLabelValues("single", "ok").Inc()
	downloadBytesTotal.Add(float64(stream.Size))
	return stream, nil
}

// DownloadBatch returns one file directly or several as a zip. If any id is
// missing from the catalog or from disk, nothing is returned except the error
// listing them.
func (s *Service) DownloadBatch(ctx context.Context, ids []int64) (*Stream, error) {
	if len(ids) == 0 {
		downloadsTotal.WithLabelValues("batch", string(apperr.KindValidation)).Inc()
		return nil, apperr.Validation(apperr.FieldError{Field: "ids", Message: "at least one file ID is required"})
	}

	res, err := s.reconciler.Reconcile(ctx, ids)
	if err != nil {
		downloadsTotal.WithLabelValues("batch", statusOf(err)).Inc()
		return nil, err
	}
	if err := res.Err(); err != nil {
		s.logger.Info("batch download rejected",
			slog.Any("catalog_missing", res.CatalogMissing),
			slog.Int("disk_missing", len(res.DiskMissing)),
		)
		downloadsTotal.WithLabelValues("batch", statusOf(err)).Inc()
		return nil, err
	}

	start := time.Now()
	stream, err := s.builder.Build(ctx, res.Valid)
	if err != nil {
		downloadsTotal.WithLabelValues("batch", statusOf(err)).Inc()
		return nil, err
	}
	if len(res.Valid) > 1 {
		archiveBuildDuration.Observe(time.Since(start).Seconds())
		archiveEntriesTotal.Add(float64(len(res.Valid)))
		s.logger.Debug("archive built",
			slog.String("name", stream.Name),
			slog.Int("entries", len(res.Valid)),
			slog.Int64("size", stream.Size),
		)
	}

	downloadsTotal.WithLabelValues("batch", "ok").Inc()
	downloadBytesTotal.Add(float64(stream.Size))
	return stream, nil
}

func statusOf(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return string(apperr.KindOf(err))
}
