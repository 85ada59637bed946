package models

import "time"

// Snapshot is the complete state of one tree scan: a mapping from canonical
// path to FileRecord, tagged with the identity of the scanned root.
type Snapshot struct {
	TreeID    string
	Root      string
	Timestamp time.Time
	Files     map[string]FileRecord
}

// NewSnapshot returns an empty snapshot for the given tree.
func NewSnapshot(treeID, root string) *Snapshot {
	return &Snapshot{
		TreeID:    treeID,
		Root:      root,
		Timestamp: time.Now(),
		Files:     make(map[string]FileRecord),
	}
}

// Len reports the number of tracked entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Files)
}
