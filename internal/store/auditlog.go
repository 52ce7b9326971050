package store

import (
	"context"
	"fmt"
	"time"

	"github.com/medlabel/apiserver/types"
)

// AuditLogRepository appends and reads immutable mutation records.
// Record must run over the same transaction as the mutation it describes;
// callers abort the transaction when it fails.
type AuditLogRepository struct {
	db DBTX
}

func NewAuditLogRepository(db DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Record appends one entry with the current timestamp truncated to
// seconds. Exactly one of imageID/labelID must be non-nil; the table
// constraint enforces it.
func (r *AuditLogRepository) Record(ctx context.Context, object, method, actor string, imageID, labelID *int64) error {
	const query = `
		INSERT INTO logs (object, updated_by, method, image_id, label_id, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	modifiedAt := time.Now().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, query, object, actor, method, imageID, labelID, modifiedAt)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record audit entry: no row written")
	}
	return nil
}

// List returns entries newest first, plus the total count.
func (r *AuditLogRepository) List(ctx context.Context, offset, limit int) ([]types.AuditLog, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM logs`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT log_id, object, updated_by, method, image_id, label_id, modified_at
		FROM logs
		ORDER BY log_id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, listQuery, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]types.AuditLog, 0, limit)
	for rows.Next() {
		var entry types.AuditLog
		if err := rows.Scan(
			&entry.LogID,
			&entry.Object,
			&entry.UpdatedBy,
			&entry.Method,
			&entry.ImageID,
			&entry.LabelID,
			&entry.ModifiedAt,
		); err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
