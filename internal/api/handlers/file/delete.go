package file

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api/handlers"
)

// Delete handles DELETE /api/files/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}

	if err := h.commands.Delete(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
