// README: Analytics and catalog read handlers.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carebook/internal/modules/analytics"
	"carebook/internal/modules/catalog"
)

const analyticsTimeout = 15 * time.Second

type AnalyticsHandler struct {
	analytics *analytics.Service
}

func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: svc}
}

// Report handles GET /analytics.
func (h *AnalyticsHandler) Report(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), analyticsTimeout)
	defer cancel()

	r, err := h.analytics.Report(ctx)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

type CatalogHandler struct {
	catalog *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

// List handles GET /services?type=.
func (h *CatalogHandler) List(c *gin.Context) {
	entries, err := h.catalog.List(c.Request.Context(), catalog.Type(strings.ToUpper(c.Query("type"))))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]serviceResponse, len(entries))
	for i, e := range entries {
		out[i] = toServiceResponse(e)
	}
	writeJSON(c, http.StatusOK, gin.H{"services": out})
}
