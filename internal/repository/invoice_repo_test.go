package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Manojkumar-smk/ocr-in-sap/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *InvoiceRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Invoice{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewInvoiceRepository(db)
}

func TestInvoiceRepository_CreateAssignsID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	invoice := &domain.Invoice{
		InvoiceNumber:   "INV-100",
		VendorName:      "Acme",
		FileName:        "invoice.pdf",
		FileSizeKB:      12.5,
		Status:          domain.InvoiceStatusProcessed,
		UploadTimestamp: time.Now().UTC(),
	}
	if err := repo.Create(ctx, invoice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invoice.ID == 0 {
		t.Fatal("expected store-assigned ID after insert")
	}

	got, err := repo.GetByID(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.InvoiceNumber != "INV-100" || got.VendorName != "Acme" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Status != domain.InvoiceStatusProcessed {
		t.Errorf("expected PROCESSED status, got %s", got.Status)
	}
}

func TestInvoiceRepository_GetByIDNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInvoiceRepository_ListNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, number := range []string{"INV-1", "INV-2", "INV-3"} {
		invoice := &domain.Invoice{
			InvoiceNumber:   number,
			VendorName:      "Acme",
			Status:          domain.InvoiceStatusProcessed,
			UploadTimestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, invoice); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	invoices, err := repo.List(ctx, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(invoices) != 3 {
		t.Fatalf("expected 3 invoices, got %d", len(invoices))
	}

	want := []string{"INV-3", "INV-2", "INV-1"}
	for i, invoice := range invoices {
		if invoice.InvoiceNumber != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], invoice.InvoiceNumber)
		}
	}
}

func TestInvoiceRepository_ListPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		invoice := &domain.Invoice{
			InvoiceNumber:   "INV",
			VendorName:      "Acme",
			Status:          domain.InvoiceStatusProcessed,
			UploadTimestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, invoice); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	page, err := repo.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("expected page of 2, got %d", len(page))
	}
}

func TestInvoiceRepository_Ping(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("expected ping to succeed, got %v", err)
	}
}
