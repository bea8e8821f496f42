package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
)

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound, apperr.KindDiskInconsistency:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindValidation, apperr.KindPathRejected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a JSON error body. Archive and internal
// failures are logged with their cause and reported without detail.
func RespondError(c *gin.Context, logger *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		// client went away
		c.Status(499)
		return
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = &apperr.Error{Kind: apperr.KindInternal, Cause: err}
	}
	status := StatusFor(appErr.Kind)

	switch appErr.Kind {
	case apperr.KindArchiveFailure:
		logger.Error("archive failure", requestAttrs(c, err)...)
		c.JSON(status, gin.H{"error": "An error occurred while creating the ZIP archive"})
		return
	case apperr.KindInternal:
		logger.Error("internal error", requestAttrs(c, err)...)
		c.JSON(status, gin.H{"error": "An internal error occurred"})
		return
	}

	body := gin.H{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	if appErr.Kind == apperr.KindDiskInconsistency {
		if len(appErr.CatalogMissing) > 0 {
			body["missingIds"] = appErr.CatalogMissing
		}
		if len(appErr.DiskMissing) > 0 {
			body["missingFiles"] = appErr.DiskMissing
		}
		if len(appErr.Available) > 0 {
			body["availableFiles"] = appErr.Available
		}
	}
	c.JSON(status, body)
}

func requestAttrs(c *gin.Context, err error) []any {
	return []any{
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("request_id", c.GetString("request_id")),
		slog.Any("error", err),
	}
}
