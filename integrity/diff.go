package integrity

import (
	"sort"

	"github.com/meysamhadeli/driftcheck/integrity/models"
)

// Diff compares two snapshots and classifies every difference as added,
// changed, or deleted. Each path appears in at most one record. Changed
// records enumerate every differing field, the content digest included, so
// a touch-without-edit reports only timestamps while a content edit reports
// size and contentHash together.
//
// Records are returned sorted by path; correctness is defined on the set,
// the ordering is only for stable output.
func Diff(old, current *models.Snapshot) []models.ChangeRecord {
	remaining := make(map[string]models.FileRecord, old.Len())
	if old != nil {
		for path, record := range old.Files {
			remaining[path] = record
		}
	}

	var changes []models.ChangeRecord
	for path, record := range current.Files {
		prior, existed := remaining[path]
		if !existed {
			changes = append(changes, models.ChangeRecord{
				Path:   path,
				Status: models.StatusAdded,
				Record: record,
			})
			continue
		}
		delete(remaining, path)

		if fields := prior.DiffFields(record); len(fields) > 0 {
			changes = append(changes, models.ChangeRecord{
				Path:   path,
				Status: models.StatusChanged,
				Record: record,
				Fields: fields,
			})
		}
	}

	for path, record := range remaining {
		changes = append(changes, models.ChangeRecord{
			Path:   path,
			Status: models.StatusDeleted,
			Record: record,
		})
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}
