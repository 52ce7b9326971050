package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medlabel/apiserver/internal/services"
	"github.com/medlabel/apiserver/types"
)

// AuditLogListResponse is the paginated audit-log payload.
type AuditLogListResponse struct {
	Items []types.AuditLog `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}

// AuditRouter registers the audit-log listing route.
func AuditRouter(r chi.Router, auditService *services.AuditService) {
	r.Get("/logs", func(w http.ResponseWriter, req *http.Request) {
		page, limit, offset, err := parsePagination(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		items, total, err := auditService.List(req.Context(), offset, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list audit log")
			return
		}

		writeJSON(w, http.StatusOK, AuditLogListResponse{
			Items: items,
			Page:  page,
			Limit: limit,
			Total: total,
		})
	})
}
