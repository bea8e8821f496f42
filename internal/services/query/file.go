package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/storage"
)

// ListParams are the optional list filters. Empty values impose no constraint.
type ListParams struct {
	Search     string
	FileType   string
	MinCreated *time.Time
}

// Service serves read-only catalog queries.
type Service struct {
	catalog storage.Catalog
	logger  *slog.Logger
}

func NewService(catalog storage.Catalog, logger *slog.Logger) *Service {
	return &Service{
		catalog: catalog,
		logger:  logger.With(slog.String("component", "query_service")),
	}
}

// List returns the records matching params in ascending id order.
func (s *Service) List(ctx context.Context, params ListParams) ([]models.FileRecord, error) {
	filter := Build(params.Search, params.FileType, params.MinCreated)

	files, err := s.catalog.Filter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	s.logger.Debug("files listed",
		slog.String("search", params.Search),
		slog.String("file_type", params.FileType),
		slog.Int("count", len(files)),
	)
	return files, nil
}

// Get returns the record with id or an apperr not-found error.
func (s *Service) Get(ctx context.Context, id int64) (models.FileRecord, error) {
	return s.catalog.FindByID(ctx, id)
}
