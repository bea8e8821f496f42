package models

import (
	"time"
)

// FileRecord is the catalog entry describing a file on disk. ID and the
// timestamps are assigned by the catalog.
type FileRecord struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	FileType     string    `json:"fileType"`
	FilePath     string    `json:"filePath"`
	TimeCreated  time.Time `json:"timeCreated"`
	TimeModified time.Time `json:"timeModified"`
}

// FileName is the display file name, {name}{fileType}.
func (r FileRecord) FileName() string {
	return r.Name + r.FileType
}

// FileChanges is a partial update. Nil fields are left untouched.
type FileChanges struct {
	Name     *string
	FileType *string
	FilePath *string
}

// Apply returns a copy of r with the changes applied. Timestamps are not touched.
func (c FileChanges) Apply(r FileRecord) FileRecord {
	if c.Name != nil {
		r.Name = *c.Name
	}
	if c.FileType != nil {
		r.FileType = *c.FileType
	}
	if c.FilePath != nil {
		r.FilePath = *c.FilePath
	}
	return r
}

// Empty reports whether no field is set.
func (c FileChanges) Empty() bool {
	return c.Name == nil && c.FileType == nil && c.FilePath == nil
}

// FileRef identifies a record in error details.
type FileRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FilePath string `json:"filePath"`
}

// Ref returns the short reference form of r.
func (r FileRecord) Ref() FileRef {
	return FileRef{ID: r.ID, Name: r.Name, FilePath: r.FilePath}
}
