package file

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/download"
)

type downloadRequest struct {
	IDs []int64 `json:"ids"`
}

// DownloadOne handles GET /api/files/:id/download
func (h *Handler) DownloadOne(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}

	stream, err := h.downloads.DownloadOne(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}
	h.serve(c, stream)
}

// DownloadBatch handles POST /api/files/download with {"ids": [...]}
func (h *Handler) DownloadBatch(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondError(c, h.logger, invalidBody(err))
		return
	}

	stream, err := h.downloads.DownloadBatch(c.Request.Context(), req.IDs)
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}
	h.serve(c, stream)
}

func (h *Handler) serve(c *gin.Context, stream *download.Stream) {
	defer func() {
		if err := stream.Body.Close(); err != nil {
			h.logger.Warn("failed to close download body", slog.Any("error", err))
		}
	}()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": stream.Name})
	c.DataFromReader(http.StatusOK, stream.Size, stream.ContentType, stream.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}
