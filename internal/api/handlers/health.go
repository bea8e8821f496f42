package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Health reports the catalog and optional dependencies. A failing catalog
// makes the service unavailable; other failures only degrade it.
type Health struct {
	driver   string
	catalog  Check
	optional map[string]Check
}

func NewHealth(driver string, catalog Check, optional map[string]Check) *Health {
	return &Health{driver: driver, catalog: catalog, optional: optional}
}

func (h *Health) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	deps := gin.H{}

	if err := h.catalog(ctx); err != nil {
		status = "unavailable"
		code = http.StatusServiceUnavailable
		deps["catalog"] = err.Error()
	} else {
		deps["catalog"] = "ok"
	}

	names := make([]string, 0, len(h.optional))
	for name := range h.optional {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.optional[name](ctx); err != nil {
			deps[name] = err.Error()
			if status == "ok" {
				status = "degraded"
			}
			continue
		}
		deps[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":       status,
		"timestamp":    time.Now().UTC(),
		"catalog":      h.driver,
		"dependencies": deps,
	})
}
