package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const clientColumns = `id, name, COALESCE(pan, ''), COALESCE(gstin, ''), COALESCE(email, ''),
       COALESCE(phone, ''), COALESCE(address, ''), assigned_staff_id, status, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.PAN,
		&c.GSTIN,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.AssignedStaffID,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient inserts a new client record
func (r *Repository) CreateClient(ctx context.Context, c *Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = "active"
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	query := `
	INSERT INTO clients (id, name, pan, gstin, email, phone, address, assigned_staff_id, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.PAN,
		c.GSTIN,
		c.Email,
		c.Phone,
		c.Address,
		c.AssignedStaffID,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetClientByID retrieves a client by ID
func (r *Repository) GetClientByID(ctx context.Context, id string) (*Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)

	c, err := scanClient(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by id: %w", err)
	}
	return c, nil
}

// ListClients retrieves clients with optional search and staff filters
func (r *Repository) ListClients(ctx context.Context, search, assignedStaffID string, limit, offset int) ([]Client, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if search != "" {
		whereClause += fmt.Sprintf(" AND (name ILIKE $%d OR pan ILIKE $%d OR gstin ILIKE $%d)", argNum, argNum, argNum)
		args = append(args, "%"+search+"%")
		argNum++
	}
	if assignedStaffID != "" {
		whereClause += fmt.Sprintf(" AND assigned_staff_id = $%d", argNum)
		args = append(args, assignedStaffID)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clients %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	query := fmt.Sprintf(`
	SELECT %s FROM clients
	%s
	ORDER BY name
	LIMIT $%d OFFSET $%d
	`, clientColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}

	return clients, total, nil
}

// UpdateClient updates a client record
func (r *Repository) UpdateClient(ctx context.Context, c *Client) error {
	query := `
	UPDATE clients
	SET name = $2, pan = $3, gstin = $4, email = $5, phone = $6, address = $7,
	    assigned_staff_id = $8, status = $9
	WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.PAN,
		c.GSTIN,
		c.Email,
		c.Phone,
		c.Address,
		c.AssignedStaffID,
		c.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

// DeleteClient removes a client and cascades to its tasks and invoices
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}
