package services

import (
	"context"
	"database/sql"

	"github.com/medlabel/apiserver/internal/store"
	"github.com/medlabel/apiserver/types"
)

// ClassService encapsulates annotation-class use-cases.
type ClassService struct {
	db *sql.DB
}

func NewClassService(db *sql.DB) *ClassService {
	return &ClassService{db: db}
}

func (s *ClassService) List(ctx context.Context) ([]types.Class, error) {
	return store.NewClassRepository(s.db).List(ctx)
}

// Create inserts a provisioned class. Used by the provision command.
func (s *ClassService) Create(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, invalidInput("class name is required")
	}
	return store.NewClassRepository(s.db).Create(ctx, name)
}
