package file

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/command"
)

type registerRequest struct {
	Name     string `json:"name"`
	FileType string `json:"fileType"`
	FilePath string `json:"filePath"`
}

type updateRequest struct {
	Name     *string `json:"name"`
	FileType *string `json:"fileType"`
	FilePath *string `json:"filePath"`
}

// Register handles POST /api/files
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondError(c, h.logger, invalidBody(err))
		return
	}

	record, err := h.commands.Register(c.Request.Context(), command.RegisterInput{
		Name:     req.Name,
		FileType: req.FileType,
		FilePath: req.FilePath,
	})
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/files/%d", record.ID))
	c.JSON(http.StatusCreated, record)
}

// Update handles PUT /api/files/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondError(c, h.logger, invalidBody(err))
		return
	}

	record, err := h.commands.Update(c.Request.Context(), id, command.UpdateInput{
		Name:     req.Name,
		FileType: req.FileType,
		FilePath: req.FilePath,
	})
	if err != nil {
		handlers.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func invalidBody(err error) error {
	return apperr.Validation(apperr.FieldError{Field: "body", Message: "invalid JSON: " + err.Error()})
}
