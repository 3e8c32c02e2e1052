package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Manojkumar-smk/ocr-in-sap/internal/domain"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/repository"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProcessor struct {
	result *service.ProcessResult
	err    error
	calls  int
}

func (f *fakeProcessor) ProcessUpload(ctx context.Context, in *service.UploadInput) (*service.ProcessResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeStore struct {
	invoice  *domain.Invoice
	invoices []domain.Invoice
	err      error

	lastLimit  int
	lastOffset int
}

func (f *fakeStore) GetByID(ctx context.Context, id uint) (*domain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func (f *fakeStore) List(ctx context.Context, limit, offset int) ([]domain.Invoice, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	if f.err != nil {
		return nil, f.err
	}
	return f.invoices, nil
}

func newUploadRequest(t *testing.T, fieldName, fileName string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func performUpload(h *InvoiceHandler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router := gin.New()
	router.POST("/api/v1/invoices/upload", h.Upload)
	router.ServeHTTP(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body.Detail
}

func TestUpload_Success(t *testing.T) {
	processor := &fakeProcessor{
		result: &service.ProcessResult{
			Invoice: &domain.Invoice{
				ID:            42,
				InvoiceNumber: "INV-2024-001",
				VendorName:    "Acme GmbH",
				FileName:      "invoice.pdf",
				FileSizeKB:    1.5,
				Status:        domain.InvoiceStatusProcessed,
			},
			ConfidenceScore: 0.85,
		},
	}
	h := NewInvoiceHandler(processor, &fakeStore{}, nil, 10)

	rec := performUpload(h, newUploadRequest(t, "file", "invoice.pdf", []byte("%PDF-1.4")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.InvoiceID != 42 {
		t.Errorf("expected invoice ID 42, got %d", resp.InvoiceID)
	}
	if resp.InvoiceNumber != "INV-2024-001" || resp.VendorName != "Acme GmbH" {
		t.Errorf("unexpected fields: %+v", resp)
	}
	if resp.ConfidenceScore != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", resp.ConfidenceScore)
	}
	if resp.Status != "PROCESSED" {
		t.Errorf("expected PROCESSED, got %s", resp.Status)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	processor := &fakeProcessor{}
	h := NewInvoiceHandler(processor, &fakeStore{}, nil, 10)

	rec := performUpload(h, newUploadRequest(t, "document", "invoice.pdf", []byte("%PDF-1.4")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if processor.calls != 0 {
		t.Error("expected processor not to be called")
	}
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
	}{
		{"text file", "notes.txt"},
		{"image", "scan.png"},
		{"no extension", "invoice"},
		{"pdf in the middle", "invoice.pdf.exe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &fakeProcessor{}
			h := NewInvoiceHandler(processor, &fakeStore{}, nil, 10)

			rec := performUpload(h, newUploadRequest(t, "file", tt.fileName, []byte("content")))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if detail := decodeDetail(t, rec); detail != "Invalid file type. Only PDF files are allowed." {
				t.Errorf("unexpected detail: %s", detail)
			}
			if processor.calls != 0 {
				t.Error("expected processor not to be called")
			}
		})
	}
}

func TestUpload_AcceptsUppercaseExtension(t *testing.T) {
	processor := &fakeProcessor{
		result: &service.ProcessResult{
			Invoice: &domain.Invoice{ID: 1, Status: domain.InvoiceStatusProcessed},
		},
	}
	h := NewInvoiceHandler(processor, &fakeStore{}, nil, 10)

	rec := performUpload(h, newUploadRequest(t, "file", "INVOICE.PDF", []byte("%PDF-1.4")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if processor.calls != 1 {
		t.Errorf("expected one processor call, got %d", processor.calls)
	}
}

func TestUpload_RejectsOversizeFile(t *testing.T) {
	processor := &fakeProcessor{}
	h := NewInvoiceHandler(processor, &fakeStore{}, nil, 1)

	oversize := bytes.Repeat([]byte("a"), 1024*1024+1)
	rec := performUpload(h, newUploadRequest(t, "file", "big.pdf", oversize))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail != "File size exceeds maximum allowed size of 1MB" {
		t.Errorf("unexpected detail: %s", detail)
	}
	if processor.calls != 0 {
		t.Error("expected processor not to be called")
	}
}

func TestUpload_ExtractionErrorReturns422(t *testing.T) {
	processor := &fakeProcessor{
		err: &service.ExtractionError{Err: errors.New("document processing failed: corrupt file")},
	}
	h := NewInvoiceHandler(processor, &fakeStore{}, nil, 10)

	rec := performUpload(h, newUploadRequest(t, "file", "invoice.pdf", []byte("%PDF-1.4")))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	detail := decodeDetail(t, rec)
	if detail != "Failed to process invoice: document processing failed: corrupt file" {
		t.Errorf("unexpected detail: %s", detail)
	}
}

func TestUpload_PersistenceErrorReturns500(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("failed to store invoice: connection refused")}
	h := NewInvoiceHandler(processor, &fakeStore{}, nil, 10)

	rec := performUpload(h, newUploadRequest(t, "file", "invoice.pdf", []byte("%PDF-1.4")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	// Internal detail must not leak to the client.
	if detail := decodeDetail(t, rec); detail != "An unexpected error occurred. Please try again later." {
		t.Errorf("unexpected detail: %s", detail)
	}
}

func performGet(h *InvoiceHandler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router := gin.New()
	router.GET("/api/v1/invoices/:id", h.Get)
	router.GET("/api/v1/invoices/:id/pdf", h.DownloadPDF)
	router.GET("/api/v1/invoices", h.List)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

type fakeArchive struct {
	content []byte
	err     error
	lastKey string
	calls   int
}

func (f *fakeArchive) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f.calls++
	f.lastKey = key
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.content)), nil
}

func TestGet_Success(t *testing.T) {
	store := &fakeStore{
		invoice: &domain.Invoice{
			ID:            7,
			InvoiceNumber: "INV-7",
			VendorName:    "Acme",
			Status:        domain.InvoiceStatusProcessed,
		},
	}
	h := NewInvoiceHandler(&fakeProcessor{}, store, nil, 10)

	rec := performGet(h, "/api/v1/invoices/7")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var invoice domain.Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &invoice); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if invoice.ID != 7 || invoice.InvoiceNumber != "INV-7" {
		t.Errorf("unexpected invoice: %+v", invoice)
	}
}

func TestGet_InvalidID(t *testing.T) {
	h := NewInvoiceHandler(&fakeProcessor{}, &fakeStore{}, nil, 10)

	for _, id := range []string{"abc", "-1", "1.5"} {
		rec := performGet(h, "/api/v1/invoices/"+id)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %q: expected 400, got %d", id, rec.Code)
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	store := &fakeStore{err: repository.ErrNotFound}
	h := NewInvoiceHandler(&fakeProcessor{}, store, nil, 10)

	rec := performGet(h, "/api/v1/invoices/9999")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail != "Invoice with ID 9999 not found" {
		t.Errorf("unexpected detail: %s", detail)
	}
}

func TestDownloadPDF_Success(t *testing.T) {
	store := &fakeStore{
		invoice: &domain.Invoice{
			ID:         7,
			FileName:   "invoice.pdf",
			StorageKey: "invoices/abc.pdf",
			Status:     domain.InvoiceStatusProcessed,
		},
	}
	archive := &fakeArchive{content: []byte("%PDF-1.4 archived")}
	h := NewInvoiceHandler(&fakeProcessor{}, store, archive, 10)

	rec := performGet(h, "/api/v1/invoices/7/pdf")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "invoice.pdf") {
		t.Errorf("expected original file name in disposition, got %s", rec.Header().Get("Content-Disposition"))
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte("%PDF-1.4 archived")) {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
	if archive.lastKey != "invoices/abc.pdf" {
		t.Errorf("expected download by storage key, got %s", archive.lastKey)
	}
}

func TestDownloadPDF_NoStorageKey(t *testing.T) {
	store := &fakeStore{
		invoice: &domain.Invoice{ID: 7, FileName: "invoice.pdf"},
	}
	archive := &fakeArchive{content: []byte("%PDF-1.4")}
	h := NewInvoiceHandler(&fakeProcessor{}, store, archive, 10)

	rec := performGet(h, "/api/v1/invoices/7/pdf")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if archive.calls != 0 {
		t.Error("expected archive not to be called without a storage key")
	}
}

func TestDownloadPDF_ArchivalDisabled(t *testing.T) {
	store := &fakeStore{
		invoice: &domain.Invoice{ID: 7, StorageKey: "invoices/abc.pdf"},
	}
	h := NewInvoiceHandler(&fakeProcessor{}, store, nil, 10)

	rec := performGet(h, "/api/v1/invoices/7/pdf")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDownloadPDF_InvoiceNotFound(t *testing.T) {
	store := &fakeStore{err: repository.ErrNotFound}
	h := NewInvoiceHandler(&fakeProcessor{}, store, &fakeArchive{}, 10)

	rec := performGet(h, "/api/v1/invoices/9999/pdf")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDownloadPDF_ArchiveError(t *testing.T) {
	store := &fakeStore{
		invoice: &domain.Invoice{ID: 7, StorageKey: "invoices/abc.pdf"},
	}
	archive := &fakeArchive{err: errors.New("connection refused")}
	h := NewInvoiceHandler(&fakeProcessor{}, store, archive, 10)

	rec := performGet(h, "/api/v1/invoices/7/pdf")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestList_Defaults(t *testing.T) {
	store := &fakeStore{
		invoices: []domain.Invoice{
			{ID: 2, InvoiceNumber: "INV-2", UploadTimestamp: time.Now().UTC()},
			{ID: 1, InvoiceNumber: "INV-1", UploadTimestamp: time.Now().UTC().Add(-time.Hour)},
		},
	}
	h := NewInvoiceHandler(&fakeProcessor{}, store, nil, 10)

	rec := performGet(h, "/api/v1/invoices")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.lastLimit != 50 || store.lastOffset != 0 {
		t.Errorf("expected defaults limit=50 offset=0, got limit=%d offset=%d", store.lastLimit, store.lastOffset)
	}

	var resp domain.ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Invoices) != 2 {
		t.Errorf("unexpected list response: %+v", resp)
	}
}

func TestList_RejectsInvalidPagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"limit zero", "?limit=0"},
		{"limit too large", "?limit=101"},
		{"limit not a number", "?limit=abc"},
		{"negative offset", "?offset=-1"},
		{"offset not a number", "?offset=xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewInvoiceHandler(&fakeProcessor{}, &fakeStore{}, nil, 10)

			rec := performGet(h, "/api/v1/invoices"+tt.query)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestList_BoundaryValuesAccepted(t *testing.T) {
	for _, query := range []string{"?limit=1", "?limit=100", "?offset=0"} {
		store := &fakeStore{}
		h := NewInvoiceHandler(&fakeProcessor{}, store, nil, 10)

		rec := performGet(h, "/api/v1/invoices"+query)
		if rec.Code != http.StatusOK {
			t.Errorf("query %q: expected 200, got %d", query, rec.Code)
		}
	}
}
