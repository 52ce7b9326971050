package types

// Label is a geometric region annotation attached to an image.
type Label struct {
	// LabelID is the unique identifier of the label.
	LabelID int64 `json:"label_id" db:"label_id"`

	// ImageID is the image this label annotates.
	ImageID int64 `json:"image_id" db:"image_id"`

	// LabelledBy is the username of the annotator.
	LabelledBy string `json:"labelled_by" db:"labelled_by"`

	// ClassID is the annotation class assigned to the region.
	ClassID int64 `json:"class_id" db:"class_id"`

	// Geometry is the annotated region as a WKT polygon or multipolygon.
	// It is validated as parseable WKT before acceptance.
	Geometry string `json:"geometry" db:"geometry"`

	// Deleted marks the label as soft-deleted.
	Deleted bool `json:"-" db:"deleted"`
}

// LabelDetail is a label joined with its owning image, user, and class,
// as returned by the label read endpoint.
type LabelDetail struct {
	LabelID   int64  `json:"label_id"`
	ImageID   int64  `json:"image_id"`
	Path      string `json:"path"`
	Username  string `json:"labelled_by"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ClassID   int64  `json:"class_id"`
	ClassName string `json:"class_name"`
	Geometry  string `json:"geometry"`
}

// LabelUpdate carries the optional fields of a partial label update.
// At least one field must be set; absent fields are left untouched.
type LabelUpdate struct {
	ClassID  *int64  `json:"class_id"`
	Geometry *string `json:"geometry"`
}
