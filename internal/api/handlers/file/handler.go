// Package file holds the HTTP handlers for /api/files.
package file

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/command"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/download"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/query"
)

type Handler struct {
	queries   *query.Service
	commands  *command.Service
	downloads *download.Service
	logger    *slog.Logger
}

func NewHandler(queries *query.Service, commands *command.Service, downloads *download.Service, logger *slog.Logger) *Handler {
	return &Handler{
		queries:   queries,
		commands:  commands,
		downloads: downloads,
		logger:    logger.With(slog.String("component", "file_handler")),
	}
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(apperr.FieldError{Field: "id", Message: "must be a positive integer"})
	}
	return id, nil
}
