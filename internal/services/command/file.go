package command

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/infrastructure"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/storage"
)

// EventPublisher receives an event after each successful mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event models.FileEvent) error
}

// Service performs the catalog mutations and the matching filesystem work.
// The catalog is always written first; the disk step that follows is best
// effort except when registering, where a file that cannot be created undoes
// the catalog entry.
type Service struct {
	catalog   storage.Catalog
	policy    *infrastructure.PathPolicy
	publisher EventPublisher
	logger    *slog.Logger
}

// NewService builds the command service. publisher may be nil.
func NewService(catalog storage.Catalog, policy *infrastructure.PathPolicy, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		catalog:   catalog,
		policy:    policy,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "command_service")),
	}
}

// Register adds a file to the catalog. When only a path is supplied, name and
// type come from its base name. A missing backing file is created empty.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.FileRecord, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.FilePath = strings.TrimSpace(in.FilePath)

	if in.Name == "" && strings.TrimSpace(in.FileType) == "" && in.FilePath != "" &&
		!infrastructure.IsDirectoryPath(in.FilePath) {
		in.Name, in.FileType = splitFileName(in.FilePath)
	}
	in.FileType = NormalizeFileType(in.FileType)

	if errs := ValidateRegister(in); len(errs) > 0 {
		return models.FileRecord{}, apperr.Validation(errs...)
	}

	target, err := s.policy.Target(in.FilePath, in.Name, in.FileType)
	if err != nil {
		return models.FileRecord{}, err
	}
	if errs := validateFilePath(target); len(errs) > 0 {
		return models.FileRecord{}, apperr.Validation(errs...)
	}

	record, err := s.catalog.Create(ctx, models.FileRecord{
		Name:     in.Name,
		FileType: in.FileType,
		FilePath: target,
	})
	if err != nil {
		return models.FileRecord{}, apperr.Internal("failed to register file", err)
	}

	if err := ensureFile(target); err != nil {
		if _, derr := s.catalog.Delete(ctx, record.ID); derr != nil {
			s.logger.Error("failed to undo catalog entry",
				slog.Int64("file_id", record.ID), slog.Any("error", derr))
		}
		return models.FileRecord{}, apperr.Internal("failed to create backing file", err)
	}

	s.logger.Info("file registered",
		slog.Int64("file_id", record.ID),
		slog.String("name", record.Name),
		slog.String("path", record.FilePath),
	)
	s.publish(ctx, models.EventFileRegistered, record)
	return record, nil
}

// Update renames and/or moves a record. A directory-style path gets
// {name}{fileType} appended using the new or current values. If the path
// changes, the backing file is moved, or created empty when it is missing.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (models.FileRecord, error) {
	if present(in.FileType) {
		ft := NormalizeFileType(*in.FileType)
		in.FileType = &ft
	}
	if errs := ValidateUpdate(in); len(errs) > 0 {
		return models.FileRecord{}, apperr.Validation(errs...)
	}

	current, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return models.FileRecord{}, err
	}

	var changes models.FileChanges
	if present(in.Name) {
		name := strings.TrimSpace(*in.Name)
		changes.Name = &name
	}
	if present(in.FileType) {
		changes.FileType = in.FileType
	}

	next := changes.Apply(current)
	moving := false
	if present(in.FilePath) {
		target, err := s.policy.Target(*in.FilePath, next.Name, next.FileType)
		if err != nil {
			return models.FileRecord{}, err
		}
		if errs := validateFilePath(target); len(errs) > 0 {
			return models.FileRecord{}, apperr.Validation(errs...)
		}
		if target != current.FilePath {
			if err := s.checkMoveTarget(current.FilePath, target); err != nil {
				return models.FileRecord{}, err
			}
			changes.FilePath = &target
			moving = true
		}
	}

	updated, err := s.catalog.Update(ctx, id, changes)
	if err != nil {
		return models.FileRecord{}, apperr.Internal("failed to update file", err)
	}

	if moving {
		s.relocate(current.FilePath, updated.FilePath, id)
	}

	s.logger.Info("file updated",
		slog.Int64("file_id", updated.ID),
		slog.String("name", updated.Name),
		slog.String("path", updated.FilePath),
	)
	s.publish(ctx, models.EventFileUpdated, updated)
	return updated, nil
}

// Delete removes the record, then tries to remove the backing file.
func (s *Service) Delete(ctx context.Context, id int64) error {
	record, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.catalog.Delete(ctx, id)
	if err != nil {
		return apperr.Internal("failed to delete file", err)
	}
	if !deleted {
		return apperr.NotFound("file with ID %d not found", id)
	}

	if err := infrastructure.RemoveFile(record.FilePath); err != nil {
		s.logger.Warn("failed to remove backing file",
			slog.Int64("file_id", id),
			slog.String("path", record.FilePath),
			slog.Any("error", err),
		)
	}

	s.logger.Info("file deleted", slog.Int64("file_id", id))
	s.publish(ctx, models.EventFileDeleted, record)
	return nil
}

// checkMoveTarget rejects a move onto another existing file. Paths that only
// differ in case are treated as the same file.
func (s *Service) checkMoveTarget(from, to string) error {
	if strings.EqualFold(from, to) {
		return nil
	}
	exists, err := infrastructure.FileExists(to)
	if err != nil {
		return apperr.Internal("failed to check target path", err)
	}
	if exists {
		return apperr.Conflict("a file already exists at %q", to)
	}
	return nil
}

func (s *Service) relocate(from, to string, id int64) {
	exists, err := infrastructure.FileExists(from)
	if err != nil {
		s.logger.Warn("failed to check old path", slog.Int64("file_id", id), slog.Any("error", err))
	}
	if exists {
		err = infrastructure.MoveFile(from, to)
	} else {
		err = infrastructure.CreateEmpty(to)
	}
	if err != nil {
		s.logger.Warn("failed to move backing file",
			slog.Int64("file_id", id),
			slog.String("from", from),
			slog.String("to", to),
			slog.Any("error", err),
		)
	}
}

func (s *Service) publish(ctx context.Context, t models.EventType, record models.FileRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, models.NewFileEvent(t, record)); err != nil {
		s.logger.Warn("failed to publish file event",
			slog.String("event", string(t)),
			slog.Int64("file_id", record.ID),
			slog.Any("error", err),
		)
	}
}

func ensureFile(p string) error {
	exists, err := infrastructure.FileExists(p)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return infrastructure.CreateEmpty(p)
}

// splitFileName splits the base name of p into stem and extension.
// "report.tar.gz" gives ("report.tar", ".gz").
func splitFileName(p string) (string, string) {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}
