package api

import (
	"net/http"

	"github.com/Manojkumar-smk/ocr-in-sap/internal/api/handler"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/api/middleware"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/config"
	"github.com/gin-gonic/gin"
)

const apiVersion = "v1"

// SetupRouter configures the Gin router with all routes.
// Parameters:
//   - invoiceHandler: invoice upload/read handler.
//   - healthHandler: health check handler.
//   - cfg: server configuration (mode, CORS).
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(
	invoiceHandler *handler.InvoiceHandler,
	healthHandler *handler.HealthHandler,
	cfg *config.ServerConfig,
) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Recovery turns panics into a bare 500 with no internal detail
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Root endpoint - API information
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":         "Invoice OCR Service",
			"version":      apiVersion,
			"status":       "running",
			"health_check": "/api/" + apiVersion + "/health",
		})
	})

	v1 := r.Group("/api/" + apiVersion)
	{
		v1.POST("/invoices/upload", invoiceHandler.Upload)
		v1.GET("/invoices", invoiceHandler.List)
		v1.GET("/invoices/:id", invoiceHandler.Get)
		v1.GET("/invoices/:id/pdf", invoiceHandler.DownloadPDF)
		v1.GET("/health", healthHandler.Health)
	}

	return r
}
