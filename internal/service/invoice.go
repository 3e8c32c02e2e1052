package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Manojkumar-smk/ocr-in-sap/internal/domain"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/dox"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/logger"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/repository"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/storage"
	"github.com/google/uuid"
)

// Extractor uploads a document to the OCR vendor and returns the raw DONE
// result body.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]byte, error)
}

// ExtractionError marks an error from the extraction or parsing stage, as
// opposed to validation or persistence. The handler maps it to a 422.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return e.Err.Error() }

func (e *ExtractionError) Unwrap() error { return e.Err }

// InvoiceService orchestrates the upload workflow: temp file, extraction,
// parsing, persistence, and best-effort archival. Constructed once at
// startup and shared by all requests; it holds no per-request state.
type InvoiceService struct {
	repo      *repository.InvoiceRepository
	extractor Extractor
	archive   storage.ObjectStorage // nil when archival is disabled
	tempDir   string
}

// NewInvoiceService creates the upload orchestration service.
// Parameters:
//   - repo: invoice repository.
//   - extractor: Document AI extraction client.
//   - archive: object storage for PDF archival; nil disables archival.
//   - tempDir: directory for request-scoped temp files.
// Returns:
//   - *InvoiceService: initialized service.
func NewInvoiceService(repo *repository.InvoiceRepository, extractor Extractor, archive storage.ObjectStorage, tempDir string) *InvoiceService {
	return &InvoiceService{
		repo:      repo,
		extractor: extractor,
		archive:   archive,
		tempDir:   tempDir,
	}
}

// UploadInput is a fully buffered, already validated upload.
type UploadInput struct {
	FileName string
	Data     []byte
}

// ProcessResult is the outcome of a successful upload.
type ProcessResult struct {
	Invoice         *domain.Invoice
	ConfidenceScore float64
}

// ProcessUpload runs the extraction workflow for one upload: write the PDF
// to a temp file (removed on every exit path), extract and parse via the
// vendor, and insert a PROCESSED record. On an extraction or parsing
// failure a FAILED record is written best-effort and an *ExtractionError is
// returned; any other error is a persistence failure.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - in: buffered upload.
// Returns:
//   - *ProcessResult: stored record plus the extraction confidence.
//   - error: *ExtractionError for extraction-path failures, otherwise the
//     persistence error.
func (s *InvoiceService) ProcessUpload(ctx context.Context, in *UploadInput) (*ProcessResult, error) {
	fileSizeKB := float64(len(in.Data)) / 1024

	tempPath, err := s.writeTempFile(in.Data)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tempPath)

	start := time.Now()

	raw, err := s.extractor.Extract(ctx, tempPath)
	if err != nil {
		s.recordFailure(ctx, in.FileName, fileSizeKB, err)
		return nil, &ExtractionError{Err: err}
	}

	result, err := dox.ParseResult(raw)
	if err != nil {
		s.recordFailure(ctx, in.FileName, fileSizeKB, err)
		return nil, &ExtractionError{Err: err}
	}

	invoice := &domain.Invoice{
		InvoiceNumber:   result.InvoiceNumber,
		VendorName:      result.VendorName,
		FileName:        in.FileName,
		FileSizeKB:      fileSizeKB,
		RawText:         result.RawJSON,
		Status:          domain.InvoiceStatusProcessed,
		StorageKey:      s.archivePDF(ctx, in),
		UploadTimestamp: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to store invoice: %w", err)
	}

	logger.With(logger.Fields{
		logger.FieldInvoiceID:  invoice.ID,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info(ctx, "Invoice processed: number=%s, vendor=%s, confidence=%.2f",
		result.InvoiceNumber, result.VendorName, result.ConfidenceScore)

	return &ProcessResult{
		Invoice:         invoice,
		ConfidenceScore: result.ConfidenceScore,
	}, nil
}

// writeTempFile persists the upload under a unique name in the temp dir.
func (s *InvoiceService) writeTempFile(data []byte) (string, error) {
	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.tempDir, uuid.New().String()+".pdf")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return path, nil
}

// recordFailure writes a best-effort FAILED record so the error is visible
// in the audit trail. If this secondary write also fails, the caller still
// surfaces the original extraction error; the loss is logged rather than
// silently dropped.
func (s *InvoiceService) recordFailure(ctx context.Context, fileName string, fileSizeKB float64, cause error) {
	record := &domain.Invoice{
		InvoiceNumber:   "UNKNOWN",
		VendorName:      "UNKNOWN",
		FileName:        fileName,
		FileSizeKB:      fileSizeKB,
		Status:          domain.InvoiceStatusFailed,
		ErrorMessage:    cause.Error(),
		UploadTimestamp: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		logger.FromContext(ctx).WithError(err).
			Errorf("Failed to store FAILED record for %s (extraction error: %v)", fileName, cause)
	}
}

// archivePDF copies the original PDF to object storage for audit. Archival
// is optional and never fails the request; an empty key means no archive.
func (s *InvoiceService) archivePDF(ctx context.Context, in *UploadInput) string {
	if s.archive == nil {
		return ""
	}

	key := "invoices/" + uuid.New().String() + ".pdf"
	err := s.archive.Upload(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), "application/pdf")
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warnf("Failed to archive PDF %s", in.FileName)
		return ""
	}
	return key
}
