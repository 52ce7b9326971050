package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medlabel/apiserver/types"
)

// ImageRepository handles persistence for images.
type ImageRepository struct {
	db DBTX
}

func NewImageRepository(db DBTX) *ImageRepository {
	return &ImageRepository{db: db}
}

// Get returns a non-deleted image by id.
func (r *ImageRepository) Get(ctx context.Context, id int64) (types.Image, error) {
	const query = `
		SELECT image_id, path, contains_pii
		FROM images
		WHERE image_id = $1 AND NOT deleted`
	var image types.Image
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&image.ImageID,
		&image.Path,
		&image.ContainsPII,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Image{}, ErrNotFound
		}
		return types.Image{}, err
	}
	return image, nil
}

// List returns non-deleted images ordered by id, plus the total count.
func (r *ImageRepository) List(ctx context.Context, offset, limit int) ([]types.Image, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM images WHERE NOT deleted`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT image_id, path, contains_pii
		FROM images
		WHERE NOT deleted
		ORDER BY image_id
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, listQuery, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	images := make([]types.Image, 0, limit)
	for rows.Next() {
		var image types.Image
		if err := rows.Scan(&image.ImageID, &image.Path, &image.ContainsPII); err != nil {
			return nil, 0, err
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return images, total, nil
}

// Create inserts an image row and returns the new id. The contains_pii
// flag is fixed here and never recomputed.
func (r *ImageRepository) Create(ctx context.Context, path string, containsPII bool) (int64, error) {
	const query = `
		INSERT INTO images (path, contains_pii, deleted)
		VALUES ($1, $2, FALSE)
		RETURNING image_id`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, path, containsPII).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// SoftDelete marks an image deleted. Matching zero rows, whether the
// image never existed or was already deleted, is ErrNotFound.
func (r *ImageRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE images SET deleted = TRUE WHERE image_id = $1 AND NOT deleted`
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
