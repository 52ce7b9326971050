package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medlabel/apiserver/internal/services"
)

// ClassRouter registers the class listing route.
func ClassRouter(r chi.Router, classService *services.ClassService) {
	r.Get("/classes", func(w http.ResponseWriter, req *http.Request) {
		classes, err := classService.List(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list classes")
			return
		}
		writeJSON(w, http.StatusOK, classes)
	})
}
