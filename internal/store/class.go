package store

import (
	"context"

	"github.com/medlabel/apiserver/types"
)

// ClassRepository handles persistence for annotation classes.
type ClassRepository struct {
	db DBTX
}

func NewClassRepository(db DBTX) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) List(ctx context.Context) ([]types.Class, error) {
	const query = `SELECT class_id, name FROM classes ORDER BY class_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []types.Class
	for rows.Next() {
		var class types.Class
		if err := rows.Scan(&class.ClassID, &class.Name); err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, rows.Err()
}

// Create inserts a provisioned class and returns its id.
func (r *ClassRepository) Create(ctx context.Context, name string) (int64, error) {
	const query = `INSERT INTO classes (name) VALUES ($1) RETURNING class_id`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
