package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/corecapital/autoreports-api/internal/models"
)

// InvoiceRepository manages persistence for billing activity rows.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs an InvoiceRepository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// FindByKey looks an invoice up by its composite dedup key. Returns nil
// without error when absent.
func (r *InvoiceRepository) FindByKey(ctx context.Context, row models.BillingRow) (*models.Invoice, error) {
	const query = `SELECT id, teacher_name, shift, eligible, activity_start, activity_end
		FROM invoices
		WHERE teacher_name = $1 AND shift = $2 AND activity_start = $3 AND activity_end = $4`
	var invoice models.Invoice
	err := r.db.GetContext(ctx, &invoice, query, row.TeacherName, row.Shift, row.ActivityStart, row.ActivityEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapStorage(err, "find invoice by key")
	}
	return &invoice, nil
}

// Insert persists a new invoice row.
func (r *InvoiceRepository) Insert(ctx context.Context, row models.BillingRow) error {
	const query = `INSERT INTO invoices (teacher_name, shift, eligible, activity_start, activity_end)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, row.TeacherName, row.Shift, row.Eligible, row.ActivityStart, row.ActivityEnd); err != nil {
		return wrapStorage(err, "insert invoice")
	}
	return nil
}

// UpdateEligible refreshes only the eligible flag of an existing row, so
// a corrected billing export can flip eligibility without duplicating
// history.
func (r *InvoiceRepository) UpdateEligible(ctx context.Context, id int64, eligible bool) error {
	const query = `UPDATE invoices SET eligible = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, eligible); err != nil {
		return wrapStorage(err, "update invoice eligibility")
	}
	return nil
}

// ListByShift returns every invoice whose shift label equals the given
// value. The join is by label, not identity; one label may match many
// invoice rows.
func (r *InvoiceRepository) ListByShift(ctx context.Context, shift string) ([]models.Invoice, error) {
	const query = `SELECT id, teacher_name, shift, eligible, activity_start, activity_end
		FROM invoices WHERE shift = $1`
	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, shift); err != nil {
		return nil, wrapStorage(err, "list invoices for shift")
	}
	return invoices, nil
}
