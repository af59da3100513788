package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const invoiceColumns = `id, invoice_number, client_id, COALESCE(description, ''),
       amount, tax_amount, total, status, issued_on, due_on, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.ClientID,
		&inv.Description,
		&inv.Amount,
		&inv.TaxAmount,
		&inv.Total,
		&inv.Status,
		&inv.IssuedOn,
		&inv.DueOn,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// CreateInvoice inserts a new invoice
func (r *Repository) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Status == "" {
		inv.Status = InvoiceUnpaid
	}
	inv.Total = inv.Amount + inv.TaxAmount
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt

	query := `
	INSERT INTO invoices (id, invoice_number, client_id, description, amount, tax_amount, total, status, issued_on, due_on, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		inv.ID,
		inv.InvoiceNumber,
		inv.ClientID,
		inv.Description,
		inv.Amount,
		inv.TaxAmount,
		inv.Total,
		inv.Status,
		inv.IssuedOn,
		inv.DueOn,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// GetInvoiceByID retrieves an invoice by ID
func (r *Repository) GetInvoiceByID(ctx context.Context, id string) (*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1`, invoiceColumns)

	inv, err := scanInvoice(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice by id: %w", err)
	}
	return inv, nil
}

// ListInvoices retrieves invoices with optional filters
func (r *Repository) ListInvoices(ctx context.Context, clientID, status string, limit, offset int) ([]Invoice, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if clientID != "" {
		whereClause += fmt.Sprintf(" AND client_id = $%d", argNum)
		args = append(args, clientID)
		argNum++
	}
	if status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	query := fmt.Sprintf(`
	SELECT %s FROM invoices
	%s
	ORDER BY issued_on DESC, created_at DESC
	LIMIT $%d OFFSET $%d
	`, invoiceColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}

	return invoices, total, nil
}

// SetInvoiceStatus updates an invoice's payment status
func (r *Repository) SetInvoiceStatus(ctx context.Context, id, status string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE invoices SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set invoice status: %w", err)
	}
	return nil
}

// CreateReceipt records a payment and rolls the invoice status forward when
// the receipts cover the total.
func (r *Repository) CreateReceipt(ctx context.Context, rec *Receipt) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Mode == "" {
		rec.Mode = "bank"
	}
	rec.CreatedAt = time.Now()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin receipt transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
	INSERT INTO receipts (id, receipt_number, invoice_id, amount, mode, received_on, notes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rec.ID,
		rec.ReceiptNumber,
		rec.InvoiceID,
		rec.Amount,
		rec.Mode,
		rec.ReceivedOn,
		rec.Notes,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}

	var total, received float64
	err = tx.QueryRow(ctx, `
	SELECT i.total, COALESCE(SUM(r.amount), 0)
	FROM invoices i
	LEFT JOIN receipts r ON r.invoice_id = i.id
	WHERE i.id = $1
	GROUP BY i.total
	`, rec.InvoiceID).Scan(&total, &received)
	if err != nil {
		return fmt.Errorf("failed to total receipts: %w", err)
	}

	status := InvoicePartiallyPaid
	if received >= total {
		status = InvoicePaid
	}
	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET status = $2 WHERE id = $1`, rec.InvoiceID, status); err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit receipt: %w", err)
	}
	return nil
}

// ListReceipts returns the receipts recorded against an invoice
func (r *Repository) ListReceipts(ctx context.Context, invoiceID string) ([]Receipt, error) {
	rows, err := r.db.Pool.Query(ctx, `
	SELECT id, receipt_number, invoice_id, amount, mode, received_on, COALESCE(notes, ''), created_at
	FROM receipts
	WHERE invoice_id = $1
	ORDER BY received_on
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		var rec Receipt
		if err := rows.Scan(
			&rec.ID,
			&rec.ReceiptNumber,
			&rec.InvoiceID,
			&rec.Amount,
			&rec.Mode,
			&rec.ReceivedOn,
			&rec.Notes,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, rec)
	}

	return receipts, nil
}

// OutstandingBalance returns the unpaid amount across a client's invoices
func (r *Repository) OutstandingBalance(ctx context.Context, clientID string) (float64, error) {
	var outstanding float64
	err := r.db.Pool.QueryRow(ctx, `
	SELECT COALESCE(SUM(i.total), 0) - COALESCE(SUM(p.paid), 0)
	FROM invoices i
	LEFT JOIN (
		SELECT invoice_id, SUM(amount) AS paid FROM receipts GROUP BY invoice_id
	) p ON p.invoice_id = i.id
	WHERE i.client_id = $1 AND i.status != 'cancelled'
	`, clientID).Scan(&outstanding)
	if err != nil {
		return 0, fmt.Errorf("failed to compute outstanding balance: %w", err)
	}
	return outstanding, nil
}
