package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateStaff inserts a new staff member
func (r *Repository) CreateStaff(ctx context.Context, s *Staff) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Role == "" {
		s.Role = RoleStaff
	}
	if s.Status == "" {
		s.Status = StaffActive
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt

	query := `
	INSERT INTO staff (id, name, email, password_hash, role, status, designation, phone, joined_on, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Email,
		s.PasswordHash,
		s.Role,
		s.Status,
		s.Designation,
		s.Phone,
		s.JoinedOn,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

const staffColumns = `id, name, email, password_hash, role, status,
       COALESCE(designation, ''), COALESCE(phone, ''), joined_on, created_at, updated_at`

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Email,
		&s.PasswordHash,
		&s.Role,
		&s.Status,
		&s.Designation,
		&s.Phone,
		&s.JoinedOn,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStaffByID retrieves a staff member by ID
func (r *Repository) GetStaffByID(ctx context.Context, id string) (*Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE id = $1`, staffColumns)

	s, err := scanStaff(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff by id: %w", err)
	}
	return s, nil
}

// GetStaffByEmail retrieves a staff member by email
func (r *Repository) GetStaffByEmail(ctx context.Context, email string) (*Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE email = $1`, staffColumns)

	s, err := scanStaff(r.db.Pool.QueryRow(ctx, query, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff by email: %w", err)
	}
	return s, nil
}

// ListStaff retrieves staff with optional status filter
func (r *Repository) ListStaff(ctx context.Context, status string, limit, offset int) ([]Staff, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM staff %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count staff: %w", err)
	}

	query := fmt.Sprintf(`
	SELECT %s FROM staff
	%s
	ORDER BY name
	LIMIT $%d OFFSET $%d
	`, staffColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	var staff []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, *s)
	}

	return staff, total, nil
}

// UpdateStaff updates a staff member's profile fields
func (r *Repository) UpdateStaff(ctx context.Context, s *Staff) error {
	query := `
	UPDATE staff
	SET name = $2, email = $3, role = $4, status = $5, designation = $6, phone = $7, joined_on = $8
	WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Email,
		s.Role,
		s.Status,
		s.Designation,
		s.Phone,
		s.JoinedOn,
	)
	if err != nil {
		return fmt.Errorf("failed to update staff: %w", err)
	}
	return nil
}

// SetStaffStatus activates or deactivates a staff member. Deactivation frees
// a licensed seat.
func (r *Repository) SetStaffStatus(ctx context.Context, id, status string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE staff SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set staff status: %w", err)
	}
	return nil
}

// UpdateStaffPassword replaces a staff member's password hash
func (r *Repository) UpdateStaffPassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE staff SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update staff password: %w", err)
	}
	return nil
}
