package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medlabel/apiserver/internal/services"
	"github.com/medlabel/apiserver/types"
)

// LabelHandler provides HTTP handlers for labels.
type LabelHandler struct {
	labelService *services.LabelService
}

func NewLabelHandler(labelService *services.LabelService) *LabelHandler {
	return &LabelHandler{labelService: labelService}
}

// LabelRouter registers label routes on the given router. The router is
// expected to already enforce authentication.
func LabelRouter(r chi.Router, labelService *services.LabelService) {
	handler := NewLabelHandler(labelService)

	r.Route("/label", func(r chi.Router) {
		r.Post("/", handler.CreateLabel)
		r.Route("/{labelID}", func(r chi.Router) {
			r.Get("/", handler.GetLabel)
			r.Put("/", handler.UpdateLabel)
			r.Delete("/", handler.DeleteLabel)
		})
	})
}

// LabelCreateRequest attaches a new annotation to an image. The
// annotator is taken from the authenticated request, never the body.
type LabelCreateRequest struct {
	ImageID  int64  `json:"image_id"`
	ClassID  int64  `json:"class_id"`
	Geometry string `json:"geometry"`
}

// LabelCreateResponse returns the id of the new label.
type LabelCreateResponse struct {
	LabelID int64 `json:"label_id"`
}

func (h *LabelHandler) GetLabel(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "labelID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.labelService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to fetch label")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *LabelHandler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	actor, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req LabelCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	id, err := h.labelService.Create(r.Context(), actor, req.ImageID, req.ClassID, req.Geometry)
	if err != nil {
		writeServiceError(w, err, "failed to create label")
		return
	}

	writeJSON(w, http.StatusOK, LabelCreateResponse{LabelID: id})
}

func (h *LabelHandler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	actor, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "labelID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var upd types.LabelUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.labelService.Update(r.Context(), actor, id, upd); err != nil {
		writeServiceError(w, err, "failed to update label")
		return
	}

	writeJSON(w, http.StatusOK, AckResponse{Status: "updated"})
}

func (h *LabelHandler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	actor, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "labelID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.labelService.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, err, "failed to delete label")
		return
	}

	writeJSON(w, http.StatusOK, AckResponse{Status: "deleted"})
}
