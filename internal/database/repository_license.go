package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ca-backoffice/internal/license"
)

// GetActiveLicense returns the current active license record, or nil when
// none exists. Newest record wins if more than one is somehow active.
func (r *Repository) GetActiveLicense(ctx context.Context) (*license.Record, error) {
	query := `
	SELECT id, token, company, COALESCE(email, ''), license_id, license_type,
	       max_users, issued_at, expires_at, status
	FROM licenses
	WHERE status = 'active'
	ORDER BY id DESC
	LIMIT 1
	`

	var rec license.Record
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&rec.ID,
		&rec.Token,
		&rec.Company,
		&rec.Email,
		&rec.LicenseID,
		&rec.LicenseType,
		&rec.MaxUsers,
		&rec.IssuedAt,
		&rec.ExpiresAt,
		&rec.Status,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active license: %w", err)
	}

	return &rec, nil
}

// ReplaceActiveLicense demotes every active record and inserts rec as the
// new active license in a single transaction, so no reader ever observes
// zero or two active records.
func (r *Repository) ReplaceActiveLicense(ctx context.Context, rec *license.Record) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin activation transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE licenses SET status = 'expired' WHERE status = 'active'`,
	); err != nil {
		return 0, fmt.Errorf("failed to demote active licenses: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, `
	INSERT INTO licenses (token, company, email, license_id, license_type, max_users, issued_at, expires_at, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active')
	RETURNING id
	`,
		rec.Token,
		rec.Company,
		rec.Email,
		rec.LicenseID,
		rec.LicenseType,
		rec.MaxUsers,
		rec.IssuedAt,
		rec.ExpiresAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert license: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit activation: %w", err)
	}

	return id, nil
}

// SetLicenseStatus updates a single record's status.
func (r *Repository) SetLicenseStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE licenses SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set license status: %w", err)
	}
	return nil
}

// ExpireActiveLicenses demotes all active records. No-op when none are.
func (r *Repository) ExpireActiveLicenses(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE licenses SET status = 'expired' WHERE status = 'active'`)
	if err != nil {
		return 0, fmt.Errorf("failed to expire active licenses: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountActiveStaff returns the live seat usage checked against the license.
func (r *Repository) CountActiveStaff(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM staff WHERE status = 'active'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active staff: %w", err)
	}
	return count, nil
}

// ListLicenseHistory returns past and present license records, newest first.
func (r *Repository) ListLicenseHistory(ctx context.Context, limit int) ([]license.Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Pool.Query(ctx, `
	SELECT id, token, company, COALESCE(email, ''), license_id, license_type,
	       max_users, issued_at, expires_at, status
	FROM licenses
	ORDER BY id DESC
	LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list license history: %w", err)
	}
	defer rows.Close()

	var records []license.Record
	for rows.Next() {
		var rec license.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.Token,
			&rec.Company,
			&rec.Email,
			&rec.LicenseID,
			&rec.LicenseType,
			&rec.MaxUsers,
			&rec.IssuedAt,
			&rec.ExpiresAt,
			&rec.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan license record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}
