package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CheckIn records the start of a staff member's day. A repeat check-in on
// the same day keeps the original timestamp.
func (r *Repository) CheckIn(ctx context.Context, staffID string, at time.Time) (*Attendance, error) {
	day := at.Truncate(24 * time.Hour)

	query := `
	INSERT INTO attendance (id, staff_id, day, check_in, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (staff_id, day) DO UPDATE SET check_in = COALESCE(attendance.check_in, EXCLUDED.check_in)
	RETURNING id, staff_id, day, check_in, check_out, created_at
	`

	var a Attendance
	err := r.db.Pool.QueryRow(ctx, query,
		uuid.New().String(), staffID, day, at, time.Now(),
	).Scan(&a.ID, &a.StaffID, &a.Day, &a.CheckIn, &a.CheckOut, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to check in: %w", err)
	}
	return &a, nil
}

// CheckOut stamps the end of the day on an existing attendance row.
func (r *Repository) CheckOut(ctx context.Context, staffID string, at time.Time) (*Attendance, error) {
	day := at.Truncate(24 * time.Hour)

	query := `
	UPDATE attendance SET check_out = $3
	WHERE staff_id = $1 AND day = $2
	RETURNING id, staff_id, day, check_in, check_out, created_at
	`

	var a Attendance
	err := r.db.Pool.QueryRow(ctx, query, staffID, day, at).
		Scan(&a.ID, &a.StaffID, &a.Day, &a.CheckIn, &a.CheckOut, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("no check-in found for today")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check out: %w", err)
	}
	return &a, nil
}

// ListAttendanceForDay returns every attendance row for one day.
func (r *Repository) ListAttendanceForDay(ctx context.Context, day time.Time) ([]Attendance, error) {
	rows, err := r.db.Pool.Query(ctx, `
	SELECT id, staff_id, day, check_in, check_out, created_at
	FROM attendance
	WHERE day = $1
	ORDER BY check_in
	`, day.Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []Attendance
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.StaffID, &a.Day, &a.CheckIn, &a.CheckOut, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}

	return records, nil
}

// ListAttendanceForStaff returns one staff member's rows in a date range.
func (r *Repository) ListAttendanceForStaff(ctx context.Context, staffID string, from, to time.Time) ([]Attendance, error) {
	rows, err := r.db.Pool.Query(ctx, `
	SELECT id, staff_id, day, check_in, check_out, created_at
	FROM attendance
	WHERE staff_id = $1 AND day BETWEEN $2 AND $3
	ORDER BY day
	`, staffID, from.Truncate(24*time.Hour), to.Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list staff attendance: %w", err)
	}
	defer rows.Close()

	var records []Attendance
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.StaffID, &a.Day, &a.CheckIn, &a.CheckOut, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}

	return records, nil
}
