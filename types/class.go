package types

// Class is an annotation type a label can be tagged with.
type Class struct {
	ClassID int64  `json:"class_id" db:"class_id"`
	Name    string `json:"name" db:"name"`
}
