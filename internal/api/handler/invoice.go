package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Manojkumar-smk/ocr-in-sap/internal/domain"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/repository"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/service"
	"github.com/gin-gonic/gin"
)

// InvoiceProcessor runs the extraction workflow for one upload.
type InvoiceProcessor interface {
	ProcessUpload(ctx context.Context, in *service.UploadInput) (*service.ProcessResult, error)
}

// InvoiceStore reads stored invoice records.
type InvoiceStore interface {
	GetByID(ctx context.Context, id uint) (*domain.Invoice, error)
	List(ctx context.Context, limit, offset int) ([]domain.Invoice, error)
}

// PDFArchive retrieves archived invoice PDFs by storage key.
type PDFArchive interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// InvoiceHandler handles invoice-related endpoints.
type InvoiceHandler struct {
	processor    InvoiceProcessor
	store        InvoiceStore
	archive      PDFArchive // nil when archival is disabled
	maxSizeBytes int64
	maxSizeMB    int
}

// NewInvoiceHandler creates a new invoice handler.
// Parameters:
//   - processor: upload orchestration service.
//   - store: invoice read access.
//   - archive: archived-PDF storage; nil disables the download endpoint.
//   - maxSizeMB: configured upload size ceiling in megabytes.
// Returns:
//   - *InvoiceHandler: initialized handler.
func NewInvoiceHandler(processor InvoiceProcessor, store InvoiceStore, archive PDFArchive, maxSizeMB int) *InvoiceHandler {
	return &InvoiceHandler{
		processor:    processor,
		store:        store,
		archive:      archive,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
		maxSizeMB:    maxSizeMB,
	}
}

// Upload handles POST /api/v1/invoices/upload.
// Validation rejects non-PDF names and oversize files before any vendor or
// store call. Extraction and parsing failures come back as 422; everything
// else unexpected is a 500.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *InvoiceHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "A file upload named 'file' is required",
		})
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Invalid file type. Only PDF files are allowed.",
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Failed to read uploaded file",
		})
		return
	}
	defer src.Close()

	// Size is enforced on the buffered bytes, not the client-supplied
	// Content-Length.
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Failed to read uploaded file",
		})
		return
	}

	if int64(len(data)) > h.maxSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": fmt.Sprintf("File size exceeds maximum allowed size of %dMB", h.maxSizeMB),
		})
		return
	}

	result, err := h.processor.ProcessUpload(c.Request.Context(), &service.UploadInput{
		FileName: fileHeader.Filename,
		Data:     data,
	})
	if err != nil {
		var exErr *service.ExtractionError
		if errors.As(err, &exErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"detail": "Failed to process invoice: " + exErr.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": "An unexpected error occurred. Please try again later.",
		})
		return
	}

	invoice := result.Invoice
	c.JSON(http.StatusOK, domain.UploadResponse{
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		VendorName:      invoice.VendorName,
		FileName:        invoice.FileName,
		FileSizeKB:      invoice.FileSizeKB,
		ConfidenceScore: result.ConfidenceScore,
		Status:          string(invoice.Status),
		Message:         "Invoice processed successfully",
		Timestamp:       time.Now().UTC(),
	})
}

// Get handles GET /api/v1/invoices/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Invoice ID must be a positive integer",
		})
		return
	}

	invoice, err := h.store.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"detail": fmt.Sprintf("Invoice with ID %d not found", id),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": "Failed to fetch invoice",
		})
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// DownloadPDF handles GET /api/v1/invoices/:id/pdf.
// Streams the archived original PDF. A record stored before archival was
// enabled has no storage key and answers 404 like a missing record.
// Parameters:
//   - c: Gin request context.
// Returns: none (streams the PDF or writes a JSON error).
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Invoice ID must be a positive integer",
		})
		return
	}

	invoice, err := h.store.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"detail": fmt.Sprintf("Invoice with ID %d not found", id),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": "Failed to fetch invoice",
		})
		return
	}

	if h.archive == nil || invoice.StorageKey == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"detail": fmt.Sprintf("No archived PDF for invoice %d", id),
		})
		return
	}

	body, err := h.archive.Download(c.Request.Context(), invoice.StorageKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": "Failed to fetch archived PDF",
		})
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoice.FileName))
	c.DataFromReader(http.StatusOK, -1, "application/pdf", body, nil)
}

// List handles GET /api/v1/invoices.
// Pagination bounds are rejected, not clamped: limit must be in [1,100]
// and offset must be >= 0.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *InvoiceHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Parameter 'limit' must be an integer between 1 and 100",
		})
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Parameter 'offset' must be a non-negative integer",
		})
		return
	}

	invoices, err := h.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": "Failed to list invoices",
		})
		return
	}

	c.JSON(http.StatusOK, domain.ListResponse{
		Invoices: invoices,
		Total:    len(invoices),
		Limit:    limit,
		Offset:   offset,
	})
}
