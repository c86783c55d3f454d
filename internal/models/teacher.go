package models

// Teacher is a persisted instructor identity. Created lazily the first
// time a name is seen during consolidation; never renamed or deleted.
type Teacher struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
