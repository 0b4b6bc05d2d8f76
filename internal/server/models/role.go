package models

// Role names a grant that can be attached to users. Permissions is an opaque
// string owned by consumers; this service only stores and returns it.
type Role struct {
	ID          string
	Name        string
	Permissions string
}
