package models

import "time"

// EntryType classifies a filesystem entry within a snapshot.
type EntryType string

const (
	EntryFile    EntryType = "file"
	EntryDir     EntryType = "dir"
	EntrySymlink EntryType = "symlink"
	EntryOther   EntryType = "other"
)

// FileRecord describes one filesystem entry at scan time: metadata plus a
// content digest for regular files. The canonical path uniquely identifies
// a record within one snapshot.
type FileRecord struct {
	Path        string
	Type        EntryType
	Size        int64
	Permissions string
	ModTime     time.Time
	ChangeTime  time.Time
	OwnerID     string
	OwnerName   string
	ContentHash string
}

// Field names used when reporting which attributes of a record differ.
const (
	FieldType        = "type"
	FieldSize        = "size"
	FieldPermissions = "permissions"
	FieldModTime     = "modifiedTime"
	FieldChangeTime  = "changeTime"
	FieldOwnerID     = "ownerID"
	FieldOwnerName   = "ownerName"
	FieldContentHash = "contentHash"
)

// DiffFields compares two records field by field and returns the names of
// the fields whose values differ, in a fixed order. The content digest is
// treated as just another field.
func (r FileRecord) DiffFields(other FileRecord) []string {
	var fields []string
	if r.Type != other.Type {
		fields = append(fields, FieldType)
	}
	if r.Size != other.Size {
		fields = append(fields, FieldSize)
	}
	if r.Permissions != other.Permissions {
		fields = append(fields, FieldPermissions)
	}
	if !r.ModTime.Equal(other.ModTime) {
		fields = append(fields, FieldModTime)
	}
	if !r.ChangeTime.Equal(other.ChangeTime) {
		fields = append(fields, FieldChangeTime)
	}
	if r.OwnerID != other.OwnerID {
		fields = append(fields, FieldOwnerID)
	}
	if r.OwnerName != other.OwnerName {
		fields = append(fields, FieldOwnerName)
	}
	if r.ContentHash != other.ContentHash {
		fields = append(fields, FieldContentHash)
	}
	return fields
}
