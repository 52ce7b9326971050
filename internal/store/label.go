package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medlabel/apiserver/types"
)

// LabelRepository handles persistence for labels.
type LabelRepository struct {
	db DBTX
}

func NewLabelRepository(db DBTX) *LabelRepository {
	return &LabelRepository{db: db}
}

// Get returns a non-deleted label joined with its image, annotator, and
// class. The joined image may itself be soft-deleted; a label outlives
// its image's soft-delete.
func (r *LabelRepository) Get(ctx context.Context, id int64) (types.LabelDetail, error) {
	const query = `
		SELECT l.label_id, l.image_id, i.path, u.username, u.first_name, u.last_name,
			l.class_id, c.name, l.geometry
		FROM labels l
		JOIN images i ON i.image_id = l.image_id
		JOIN users u ON u.username = l.labelled_by
		JOIN classes c ON c.class_id = l.class_id
		WHERE l.label_id = $1 AND NOT l.deleted`
	var detail types.LabelDetail
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&detail.LabelID,
		&detail.ImageID,
		&detail.Path,
		&detail.Username,
		&detail.FirstName,
		&detail.LastName,
		&detail.ClassID,
		&detail.ClassName,
		&detail.Geometry,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.LabelDetail{}, ErrNotFound
		}
		return types.LabelDetail{}, err
	}
	return detail, nil
}

// Create inserts a label row and returns the new id.
func (r *LabelRepository) Create(ctx context.Context, label types.Label) (int64, error) {
	const query = `
		INSERT INTO labels (image_id, labelled_by, class_id, geometry, deleted)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING label_id`
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		label.ImageID,
		label.LabelledBy,
		label.ClassID,
		label.Geometry,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update applies a partial update. Only the fields present in upd are
// touched; each combination gets its own parameterized statement rather
// than a concatenated column list.
func (r *LabelRepository) Update(ctx context.Context, id int64, upd types.LabelUpdate) error {
	var (
		result sql.Result
		err    error
	)
	switch {
	case upd.ClassID != nil && upd.Geometry != nil:
		const query = `
			UPDATE labels
			SET class_id = $1, geometry = $2
			WHERE label_id = $3 AND NOT deleted`
		result, err = r.db.ExecContext(ctx, query, *upd.ClassID, *upd.Geometry, id)
	case upd.ClassID != nil:
		const query = `
			UPDATE labels
			SET class_id = $1
			WHERE label_id = $2 AND NOT deleted`
		result, err = r.db.ExecContext(ctx, query, *upd.ClassID, id)
	case upd.Geometry != nil:
		const query = `
			UPDATE labels
			SET geometry = $1
			WHERE label_id = $2 AND NOT deleted`
		result, err = r.db.ExecContext(ctx, query, *upd.Geometry, id)
	default:
		return errors.New("no fields to update")
	}
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks a label deleted; zero rows matched is ErrNotFound.
func (r *LabelRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE labels SET deleted = TRUE WHERE label_id = $1 AND NOT deleted`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
