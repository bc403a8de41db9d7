package models

import "time"

// Meta is the bookkeeping every stored record carries. Version is the
// optimistic concurrency stamp checked on replace.
type Meta struct {
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Metadata exposes the embedded bookkeeping to storage backends.
func (m *Meta) Metadata() *Meta {
	return m
}
