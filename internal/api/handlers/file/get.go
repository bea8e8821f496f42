package file

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/query"
)

// accepted layouts for minCreated
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// List handles GET /api/files?search=&fileType=&minCreated=
func (h *Handler) List(c *gin.Context) {
	params := query.ListParams{
		Search:   c.Query("search"),
		FileType: c.Query("fileType"),
	}

	if raw := c.Query("minCreated"); raw != "" {
		t, ok := parseDate(raw)
		if !ok {
			handlers.RespondError(c, h.logger, apperr.Validation(apperr.FieldError{
				Field:   "minCreated",
				Message: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp",
			}))
			return
		}
		params.MinCreated = &t
	}

	files, err := h.queries.List(c.Request.Context(), params)
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Get handles GET /api/files/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}

	record, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
