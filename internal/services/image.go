package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/medlabel/apiserver/internal/pii"
	"github.com/medlabel/apiserver/internal/storage"
	"github.com/medlabel/apiserver/internal/store"
	"github.com/medlabel/apiserver/types"
)

// Notifier publishes best-effort events to a broker channel.
type Notifier interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// ImageService encapsulates image use-cases. Every mutation and its
// audit entry run in one transaction; a failed audit insert rolls the
// mutation back.
type ImageService struct {
	db       *sql.DB
	screener pii.Checker
	root     string
	blobs    *storage.Storage
	mirror   *storage.Storage
	notifier Notifier
	topic    string
}

func NewImageService(db *sql.DB, screener pii.Checker, imageRoot string) *ImageService {
	return &ImageService{
		db:       db,
		screener: screener,
		root:     imageRoot,
		blobs:    storage.NewStorage(storage.NewLocal(imageRoot)),
	}
}

// SetMirror attaches an object-storage mirror for uploaded bytes.
func (s *ImageService) SetMirror(mirror *storage.Storage) {
	s.mirror = mirror
}

// SetNotifier attaches a broker for PII alerts on the given channel.
func (s *ImageService) SetNotifier(notifier Notifier, topic string) {
	s.notifier = notifier
	s.topic = topic
}

func (s *ImageService) Get(ctx context.Context, id int64) (types.Image, error) {
	return store.NewImageRepository(s.db).Get(ctx, id)
}

func (s *ImageService) List(ctx context.Context, offset, limit int) ([]types.Image, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return store.NewImageRepository(s.db).List(ctx, offset, limit)
}

// Create registers an existing file under the image root. The PII
// screen runs once here; its verdict is stored and never recomputed.
func (s *ImageService) Create(ctx context.Context, actor, path string) (types.Image, error) {
	rel, abs, err := s.resolvePath(path)
	if err != nil {
		return types.Image{}, err
	}

	containsPII, err := s.screener.Check(ctx, abs)
	if err != nil {
		return types.Image{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Image{}, err
	}
	defer tx.Rollback()

	id, err := store.NewImageRepository(tx).Create(ctx, rel, containsPII)
	if err != nil {
		return types.Image{}, err
	}
	if err := store.NewAuditLogRepository(tx).Record(ctx, types.ObjectImage, types.MethodInsertion, actor, &id, nil); err != nil {
		return types.Image{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Image{}, err
	}

	image := types.Image{ImageID: id, Path: rel, ContainsPII: containsPII}
	if containsPII {
		s.alert(ctx, image)
	}
	return image, nil
}

// Upload writes the image bytes under the root, mirrors them to object
// storage when a mirror is configured, then registers the file.
func (s *ImageService) Upload(ctx context.Context, actor, filename, contentType string, data []byte) (types.Image, error) {
	if filename == "" {
		return types.Image{}, invalidInput("filename is required")
	}
	if !filepath.IsLocal(filename) {
		return types.Image{}, invalidInput("filename escapes the image root")
	}
	if len(data) == 0 {
		return types.Image{}, invalidInput("empty upload")
	}

	rel := filepath.Clean(filename)
	key := filepath.ToSlash(rel)
	if err := s.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Image{}, err
	}

	if s.mirror != nil {
		if err := s.mirror.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			return types.Image{}, err
		}
	}

	return s.Create(ctx, actor, rel)
}

// Delete soft-deletes an image; the row is retained for the audit trail.
func (s *ImageService) Delete(ctx context.Context, actor string, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := store.NewImageRepository(tx).SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := store.NewAuditLogRepository(tx).Record(ctx, types.ObjectImage, types.MethodDelete, actor, &id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// resolvePath validates that path is relative, stays inside the image
// root once cleaned, and points at an existing regular file.
func (s *ImageService) resolvePath(path string) (rel, abs string, err error) {
	if path == "" {
		return "", "", invalidInput("path is required")
	}
	if !filepath.IsLocal(path) {
		return "", "", invalidInput("path escapes the image root")
	}

	rel = filepath.Clean(path)
	abs = filepath.Join(s.root, rel)
	info, err := os.Stat(abs)
	if err != nil {
		return "", "", invalidInput("no image file at %q", rel)
	}
	if info.IsDir() {
		return "", "", invalidInput("%q is a directory", rel)
	}
	return rel, abs, nil
}

func (s *ImageService) alert(ctx context.Context, image types.Image) {
	slog.Warn("image flagged for possible pii", "image_id", image.ImageID, "path", image.Path)
	if s.notifier == nil {
		return
	}

	data, err := json.Marshal(map[string]any{
		"image_id": image.ImageID,
		"path":     image.Path,
	})
	if err != nil {
		return
	}
	if _, err := s.notifier.Publish(ctx, s.topic, data, map[string]string{"object": types.ObjectImage}); err != nil {
		slog.Warn("pii alert publish failed", "image_id", image.ImageID, "error", err)
	}
}
