package integrity

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/meysamhadeli/driftcheck/integrity/models"
	"github.com/zeebo/xxh3"
)

// snapshotFormatVersion is bumped whenever the persisted schema changes.
const snapshotFormatVersion = 1

const (
	snapshotSuffix = ".snapshot"
	changesSuffix  = ".changes"
	gzipSuffix     = ".gz"
)

// ErrNoBaseline is returned by Load when no usable prior snapshot exists,
// whether the artifact is missing or corrupt. The wrapping error carries
// the underlying cause.
var ErrNoBaseline = errors.New("no baseline snapshot")

// TreeIdentity returns the deterministic digest of a canonicalized root
// path, used to key persisted artifacts.
func TreeIdentity(root string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(canonicalPath(root)))
}

// snapshotEnvelope is the versioned on-disk schema for a baseline.
type snapshotEnvelope struct {
	Version  int
	Snapshot models.Snapshot
}

// changesEnvelope is the versioned on-disk schema for a change artifact.
type changesEnvelope struct {
	Version   int
	TreeID    string
	Timestamp time.Time
	Changes   []models.ChangeRecord
}

// SnapshotStore persists baselines and change artifacts under a single
// directory. Baseline writes are atomic: the artifact is fully encoded in
// memory, written to a temp file, then renamed over the previous baseline.
type SnapshotStore struct {
	dir      string
	compress bool
}

// NewSnapshotStore fails fast when the directory is missing, not a
// directory, or not writable.
func NewSnapshotStore(dir string, compress bool) (*SnapshotStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot store directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("snapshot store path is not a directory: %s", dir)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return nil, fmt.Errorf("snapshot store directory not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return &SnapshotStore{dir: dir, compress: compress}, nil
}

// Load returns the baseline for treeID, or an error wrapping ErrNoBaseline
// when none can be established. Missing and corrupt artifacts are both
// non-fatal outcomes for the caller.
func (s *SnapshotStore) Load(treeID string) (*models.Snapshot, error) {
	path := s.baselinePath(treeID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for tree %s", ErrNoBaseline, treeID)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrNoBaseline, path, err)
	}

	var envelope snapshotEnvelope
	if err := s.decode(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: corrupt artifact %s: %v", ErrNoBaseline, path, err)
	}
	if envelope.Version != snapshotFormatVersion {
		return nil, fmt.Errorf("%w: artifact %s has format version %d, want %d",
			ErrNoBaseline, path, envelope.Version, snapshotFormatVersion)
	}

	snap := envelope.Snapshot
	return &snap, nil
}

// Save overwrites the baseline for the snapshot's tree. Failures are
// surfaced loudly since a broken baseline undermines every future run.
func (s *SnapshotStore) Save(snap *models.Snapshot) error {
	data, err := s.encode(snapshotEnvelope{
		Version:  snapshotFormatVersion,
		Snapshot: *snap,
	})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return s.writeAtomic(s.baselinePath(snap.TreeID), data)
}

// SaveChanges persists a non-empty change set as an audit artifact and
// returns its path. The nanosecond timestamp keeps repeated runs within
// the same second from colliding.
func (s *SnapshotStore) SaveChanges(treeID string, at time.Time, changes []models.ChangeRecord) (string, error) {
	data, err := s.encode(changesEnvelope{
		Version:   snapshotFormatVersion,
		TreeID:    treeID,
		Timestamp: at,
		Changes:   changes,
	})
	if err != nil {
		return "", fmt.Errorf("encoding changes: %w", err)
	}

	name := fmt.Sprintf("%s-%d%s", treeID, at.UTC().UnixNano(), changesSuffix)
	if s.compress {
		name += gzipSuffix
	}
	path := filepath.Join(s.dir, name)
	if err := s.writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// LoadChanges reads a previously persisted change artifact.
func (s *SnapshotStore) LoadChanges(path string) ([]models.ChangeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading change artifact: %w", err)
	}
	var envelope changesEnvelope
	if err := s.decode(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding change artifact %s: %w", path, err)
	}
	return envelope.Changes, nil
}

// StoreStats summarizes the persisted artifacts for one tree.
type StoreStats struct {
	BaselineExists bool
	BaselineTime   time.Time
	ChangeCount    int
	TotalSize      int64
}

// Stats reports artifact statistics for treeID.
func (s *SnapshotStore) Stats(treeID string) (StoreStats, error) {
	var stats StoreStats
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return stats, fmt.Errorf("reading store directory: %w", err)
	}

	baseline := filepath.Base(s.baselinePath(treeID))
	for _, entry := range entries {
		if entry.IsDir() || !matchesTree(entry.Name(), treeID) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.TotalSize += info.Size()
		if entry.Name() == baseline {
			stats.BaselineExists = true
			stats.BaselineTime = info.ModTime()
		} else {
			stats.ChangeCount++
		}
	}
	return stats, nil
}

// Reset removes every artifact for treeID and reports how many were
// deleted.
func (s *SnapshotStore) Reset(treeID string) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("reading store directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !matchesTree(entry.Name(), treeID) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("removing %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func matchesTree(name, treeID string) bool {
	return name == treeID+snapshotSuffix ||
		name == treeID+snapshotSuffix+gzipSuffix ||
		(len(name) > len(treeID) && name[:len(treeID)+1] == treeID+"-")
}

func (s *SnapshotStore) baselinePath(treeID string) string {
	name := treeID + snapshotSuffix
	if s.compress {
		name += gzipSuffix
	}
	return filepath.Join(s.dir, name)
}

func (s *SnapshotStore) encode(v interface{}) ([]byte, error) {
	var buffer bytes.Buffer
	if s.compress {
		gz := gzip.NewWriter(&buffer)
		if err := gob.NewEncoder(gz).Encode(v); err != nil {
			return nil, err
		}
		if err := gz.Close(); err != nil {
			return nil, err
		}
	} else {
		if err := gob.NewEncoder(&buffer).Encode(v); err != nil {
			return nil, err
		}
	}
	return buffer.Bytes(), nil
}

func (s *SnapshotStore) decode(data []byte, v interface{}) error {
	var reader io.Reader = bytes.NewReader(data)
	if s.compress {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}
	return gob.NewDecoder(reader).Decode(v)
}

func (s *SnapshotStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming artifact into place: %w", err)
	}
	return nil
}
