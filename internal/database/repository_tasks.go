package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const taskColumns = `id, title, COALESCE(description, ''), client_id, assignee_id,
       priority, status, due_date, completed_at, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.ClientID,
		&t.AssigneeID,
		&t.Priority,
		&t.Status,
		&t.DueDate,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts a new task
func (r *Repository) CreateTask(ctx context.Context, t *Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Priority == "" {
		t.Priority = PriorityNormal
	}
	if t.Status == "" {
		t.Status = TaskOpen
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt

	query := `
	INSERT INTO tasks (id, title, description, client_id, assignee_id, priority, status, due_date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.ClientID,
		t.AssigneeID,
		t.Priority,
		t.Status,
		t.DueDate,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTaskByID retrieves a task by ID
func (r *Repository) GetTaskByID(ctx context.Context, id string) (*Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	t, err := scanTask(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task by id: %w", err)
	}
	return t, nil
}

// ListTasks retrieves tasks with optional filters
func (r *Repository) ListTasks(ctx context.Context, status, assigneeID, clientID string, limit, offset int) ([]Task, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}
	if assigneeID != "" {
		whereClause += fmt.Sprintf(" AND assignee_id = $%d", argNum)
		args = append(args, assigneeID)
		argNum++
	}
	if clientID != "" {
		whereClause += fmt.Sprintf(" AND client_id = $%d", argNum)
		args = append(args, clientID)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tasks %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := fmt.Sprintf(`
	SELECT %s FROM tasks
	%s
	ORDER BY due_date NULLS LAST, created_at DESC
	LIMIT $%d OFFSET $%d
	`, taskColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}

	return tasks, total, nil
}

// UpdateTask updates a task's fields
func (r *Repository) UpdateTask(ctx context.Context, t *Task) error {
	query := `
	UPDATE tasks
	SET title = $2, description = $3, client_id = $4, assignee_id = $5,
	    priority = $6, status = $7, due_date = $8, completed_at = $9
	WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.ClientID,
		t.AssigneeID,
		t.Priority,
		t.Status,
		t.DueDate,
		t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// CompleteTask marks a task completed with a completion timestamp
func (r *Repository) CompleteTask(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE tasks SET status = $2, completed_at = NOW() WHERE id = $1`,
		id, TaskCompleted)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	return nil
}

// DeleteTask removes a task
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
