package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Manojkumar-smk/ocr-in-sap/internal/domain"
	"github.com/gin-gonic/gin"
)

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health: database reachability and Document
// AI credential configuration.
type HealthHandler struct {
	db            Pinger
	doxConfigured bool
}

// NewHealthHandler creates a new health handler.
// Parameters:
//   - db: database pinger.
//   - doxConfigured: whether Document AI credentials are present.
// Returns:
//   - *HealthHandler: initialized handler.
func NewHealthHandler(db Pinger, doxConfigured bool) *HealthHandler {
	return &HealthHandler{
		db:            db,
		doxConfigured: doxConfigured,
	}
}

// Health handles GET /api/v1/health. Overall status is "healthy" only when
// both checks pass; otherwise "degraded" with an itemized issue list.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *HealthHandler) Health(c *gin.Context) {
	dbConnected := h.db.Ping(c.Request.Context()) == nil

	status := "healthy"
	message := "All systems operational"

	if !dbConnected || !h.doxConfigured {
		status = "degraded"
		var issues []string
		if !dbConnected {
			issues = append(issues, "database")
		}
		if !h.doxConfigured {
			issues = append(issues, "document_ai")
		}
		message = "Issues detected: " + strings.Join(issues, ", ")
	}

	c.JSON(http.StatusOK, domain.HealthResponse{
		Status:               status,
		Message:              message,
		DatabaseConnected:    dbConnected,
		DocumentAIConfigured: h.doxConfigured,
		Timestamp:            time.Now().UTC(),
	})
}
