package services

import (
	"context"
	"database/sql"

	"github.com/medlabel/apiserver/internal/store"
	"github.com/medlabel/apiserver/types"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// LabelService encapsulates label use-cases. As with images, mutations
// and their audit entries commit atomically.
type LabelService struct {
	db *sql.DB
}

func NewLabelService(db *sql.DB) *LabelService {
	return &LabelService{db: db}
}

func (s *LabelService) Get(ctx context.Context, id int64) (types.LabelDetail, error) {
	return store.NewLabelRepository(s.db).Get(ctx, id)
}

// Create validates the geometry and inserts a label owned by actor.
func (s *LabelService) Create(ctx context.Context, actor string, imageID, classID int64, geometry string) (int64, error) {
	if err := validateGeometry(geometry); err != nil {
		return 0, err
	}
	if imageID < 1 {
		return 0, invalidInput("image_id is required")
	}
	if classID < 1 {
		return 0, invalidInput("class_id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := store.NewLabelRepository(tx).Create(ctx, types.Label{
		ImageID:    imageID,
		LabelledBy: actor,
		ClassID:    classID,
		Geometry:   geometry,
	})
	if err != nil {
		return 0, err
	}
	if err := store.NewAuditLogRepository(tx).Record(ctx, types.ObjectLabel, types.MethodInsertion, actor, nil, &id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Update applies a partial update of class and/or geometry. Fields left
// nil are untouched.
func (s *LabelService) Update(ctx context.Context, actor string, id int64, upd types.LabelUpdate) error {
	if upd.ClassID == nil && upd.Geometry == nil {
		return invalidInput("at least one of class_id, geometry is required")
	}
	if upd.Geometry != nil {
		if err := validateGeometry(*upd.Geometry); err != nil {
			return err
		}
	}
	if upd.ClassID != nil && *upd.ClassID < 1 {
		return invalidInput("class_id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := store.NewLabelRepository(tx).Update(ctx, id, upd); err != nil {
		return err
	}
	if err := store.NewAuditLogRepository(tx).Record(ctx, types.ObjectLabel, types.MethodUpdate, actor, nil, &id); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete soft-deletes a label.
func (s *LabelService) Delete(ctx context.Context, actor string, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := store.NewLabelRepository(tx).SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := store.NewAuditLogRepository(tx).Record(ctx, types.ObjectLabel, types.MethodDelete, actor, nil, &id); err != nil {
		return err
	}
	return tx.Commit()
}

func validateGeometry(geometry string) error {
	if geometry == "" {
		return invalidInput("geometry is required")
	}
	if _, err := wkt.Unmarshal(geometry); err != nil {
		return invalidInput("geometry is not valid WKT: %v", err)
	}
	return nil
}
