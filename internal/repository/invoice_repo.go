package repository

import (
	"context"
	"errors"

	"github.com/Manojkumar-smk/ocr-in-sap/internal/domain"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no invoice record.
var ErrNotFound = errors.New("invoice not found")

// InvoiceRepository handles invoice data operations. Every write runs in a
// transaction: committed on success, rolled back on any failure.
type InvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new InvoiceRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *InvoiceRepository: repository instance bound to db.
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts a new invoice record. The store assigns the identifier,
// which is written back onto the passed record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - invoice: invoice record to persist.
// Returns:
//   - error: non-nil if the insert fails; the transaction is rolled back.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(invoice).Error
	})
}

// GetByID retrieves an invoice by its store-assigned identifier.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: invoice ID.
// Returns:
//   - *domain.Invoice: invoice record if found.
//   - error: ErrNotFound when absent; other errors on query failure.
func (r *InvoiceRepository) GetByID(ctx context.Context, id uint) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// List retrieves invoices ordered by upload timestamp, newest first.
// Callers validate limit and offset; they are applied as given.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Invoice: matching records.
//   - error: non-nil if the query fails.
func (r *InvoiceRepository) List(ctx context.Context, limit, offset int) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	if err := r.db.WithContext(ctx).
		Order("upload_timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Ping checks database reachability with a trivial round trip.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - error: non-nil if the database is unreachable.
func (r *InvoiceRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
