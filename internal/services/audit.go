package services

import (
	"context"
	"database/sql"

	"github.com/medlabel/apiserver/internal/store"
	"github.com/medlabel/apiserver/types"
)

// AuditService reads the append-only mutation log. Writing happens
// inside the image and label transactions, never through this service.
type AuditService struct {
	db *sql.DB
}

func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) List(ctx context.Context, offset, limit int) ([]types.AuditLog, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return store.NewAuditLogRepository(s.db).List(ctx, offset, limit)
}
