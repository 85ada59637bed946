package models

// ChangeStatus tags a detected difference between two snapshots.
type ChangeStatus string

const (
	StatusAdded   ChangeStatus = "added"
	StatusChanged ChangeStatus = "changed"
	StatusDeleted ChangeStatus = "deleted"
)

// ChangeRecord is one detected difference between the baseline and the
// current snapshot. For added and changed entries Record carries the new
// state; for deleted entries it carries the last known state. Fields is
// populated only for changed entries and lists the attributes that differ.
type ChangeRecord struct {
	Path   string
	Status ChangeStatus
	Record FileRecord
	Fields []string
}
