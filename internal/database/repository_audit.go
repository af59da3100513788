package database

import (
	"context"
	"fmt"
	"time"
)

// CreateAuditLog appends one entry to the audit trail
func (r *Repository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	log.CreatedAt = time.Now()

	query := `
	INSERT INTO audit_logs (actor_id, actor_email, action, entity, entity_id, detail, created_at)
	VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5, NULLIF($6, '')::jsonb, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		log.ActorID,
		log.ActorEmail,
		log.Action,
		log.Entity,
		log.EntityID,
		log.Detail,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// ListAuditLogs retrieves audit entries, newest first, with optional filters
func (r *Repository) ListAuditLogs(ctx context.Context, entity, actorID string, limit, offset int) ([]AuditLog, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if entity != "" {
		whereClause += fmt.Sprintf(" AND entity = $%d", argNum)
		args = append(args, entity)
		argNum++
	}
	if actorID != "" {
		whereClause += fmt.Sprintf(" AND actor_id = $%d", argNum)
		args = append(args, actorID)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_logs %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := fmt.Sprintf(`
	SELECT id, COALESCE(actor_id::text, ''), COALESCE(actor_email, ''), action, entity,
	       COALESCE(entity_id, ''), COALESCE(detail::text, ''), created_at
	FROM audit_logs
	%s
	ORDER BY id DESC
	LIMIT $%d OFFSET $%d
	`, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(
			&l.ID,
			&l.ActorID,
			&l.ActorEmail,
			&l.Action,
			&l.Entity,
			&l.EntityID,
			&l.Detail,
			&l.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, l)
	}

	return logs, total, nil
}
