package types

// Image represents a registered medical image on disk.
// The row is never removed; deletion only flips the Deleted flag so the
// audit trail stays resolvable.
type Image struct {
	// ImageID is the unique identifier of the image.
	ImageID int64 `json:"image_id" db:"image_id"`

	// Path is the image location relative to the configured image root.
	// It is validated at registration time to resolve inside that root.
	Path string `json:"path" db:"path"`

	// ContainsPII records the outcome of the PII screen run once at
	// registration time. It is never recomputed, even if the suspicious
	// word list changes later.
	ContainsPII bool `json:"contains_pii" db:"contains_pii"`

	// Deleted marks the image as soft-deleted. Soft-deleted images are
	// invisible to reads but their rows remain.
	Deleted bool `json:"-" db:"deleted"`
}
