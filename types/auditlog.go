package types

import "time"

// Audit object kinds.
const (
	ObjectImage = "Image"
	ObjectLabel = "Label"
)

// Audit methods.
const (
	MethodInsertion = "INSERTION"
	MethodUpdate    = "UPDATE"
	MethodDelete    = "DELETE"
)

// AuditLog is an append-only record of one successful mutation of an
// Image or Label. Exactly one of ImageID/LabelID is set, matching Object.
// Rows are written in the same transaction as the mutation they describe
// and are never updated or deleted.
type AuditLog struct {
	// LogID is the unique identifier of the entry.
	LogID int64 `json:"log_id" db:"log_id"`

	// Object names the mutated resource kind, ObjectImage or ObjectLabel.
	Object string `json:"object" db:"object"`

	// UpdatedBy is the username of the authenticated actor.
	UpdatedBy string `json:"updated_by" db:"updated_by"`

	// Method is one of MethodInsertion, MethodUpdate, MethodDelete.
	Method string `json:"method" db:"method"`

	// ImageID is set when Object is ObjectImage, nil otherwise.
	ImageID *int64 `json:"image_id" db:"image_id"`

	// LabelID is set when Object is ObjectLabel, nil otherwise.
	LabelID *int64 `json:"label_id" db:"label_id"`

	// ModifiedAt is the mutation timestamp, truncated to seconds.
	ModifiedAt time.Time `json:"modified_at" db:"modified_at"`
}
