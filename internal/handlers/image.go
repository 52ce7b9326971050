package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medlabel/apiserver/internal/services"
	"github.com/medlabel/apiserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 64 << 20
	formFieldFile      = "file"
)

// ImageHandler provides HTTP handlers for images.
type ImageHandler struct {
	imageService *services.ImageService
}

func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// ImageRouter registers image routes on the given router. The router is
// expected to already enforce authentication.
func ImageRouter(r chi.Router, imageService *services.ImageService) {
	handler := NewImageHandler(imageService)

	r.Get("/images", handler.ListImages)
	r.Route("/image", func(r chi.Router) {
		r.Post("/", handler.CreateImage)
		r.Post("/upload", handler.UploadImage)
		r.Route("/{imageID}", func(r chi.Router) {
			r.Get("/", handler.GetImage)
			r.Delete("/", handler.DeleteImage)
		})
	})
}

// ImageCreateRequest registers a file already present under the image
// root.
type ImageCreateRequest struct {
	Path string `json:"path"`
}

// ImageListResponse is the paginated image list payload.
type ImageListResponse struct {
	Items []types.Image `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
}

func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.imageService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list images")
		return
	}

	writeJSON(w, http.StatusOK, ImageListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "imageID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	image, err := h.imageService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to fetch image")
		return
	}

	writeJSON(w, http.StatusOK, image)
}

func (h *ImageHandler) CreateImage(w http.ResponseWriter, r *http.Request) {
	actor, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ImageCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Path = strings.TrimSpace(req.Path)

	image, err := h.imageService.Create(r.Context(), actor, req.Path)
	if err != nil {
		writeServiceError(w, err, "failed to register image")
		return
	}

	writeJSON(w, http.StatusOK, image)
}

func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	actor, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filename, contentType, data, err := parseUploadFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	image, err := h.imageService.Upload(r.Context(), actor, filename, contentType, data)
	if err != nil {
		writeServiceError(w, err, "failed to upload image")
		return
	}

	writeJSON(w, http.StatusOK, image)
}

func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	actor, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "imageID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.imageService.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, err, "failed to delete image")
		return
	}

	writeJSON(w, http.StatusOK, AckResponse{Status: "deleted"})
}

func parseUploadFile(r *http.Request) (filename, contentType string, data []byte, err error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return "", "", nil, errors.New("invalid multipart form")
	}
	if r.MultipartForm == nil {
		return "", "", nil, errors.New("missing form data")
	}

	files := r.MultipartForm.File[formFieldFile]
	if len(files) == 0 {
		return "", "", nil, errors.New("image file is required")
	}
	if len(files) > 1 {
		return "", "", nil, errors.New("only one image file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to read image file: %w", err)
	}

	data, err = readFileLimited(file, maxUploadBytes)
	_ = file.Close()
	if err != nil {
		return "", "", nil, err
	}

	return fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
