package integrity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/meysamhadeli/driftcheck/integrity/models"
)

// Config is the immutable configuration for one checker.
type Config struct {
	Root           string
	StoreDir       string
	Exclusions     []string
	MaxFileSize    int64
	UseCompression bool
	HashAlgorithm  string
	Workers        int
}

// Result is the outcome of one integrity run. Drift and BaselineErr are
// deliberately separate signals: "the tree changed" and "I could not
// establish what the tree looked like before" mean different things to an
// operator.
type Result struct {
	Drift          bool
	Changes        []models.ChangeRecord
	Snapshot       *models.Snapshot
	BaselineErr    error
	ScanErrs       []error
	ChangeArtifact string
}

// Err folds the non-fatal errors of a run into one value, or nil.
func (r *Result) Err() error {
	errs := make([]error, 0, len(r.ScanErrs)+1)
	if r.BaselineErr != nil {
		errs = append(errs, r.BaselineErr)
	}
	errs = append(errs, r.ScanErrs...)
	return errors.Join(errs...)
}

// Checker orchestrates a full integrity run: load the baseline (tolerating
// absence or corruption), walk the current tree, diff, persist the new
// snapshot unconditionally, and persist the change set when non-empty.
//
// The legacy surface (CheckIntegrity / GetChanges / GetError) runs the
// check once on first use and serves every accessor from that result.
type Checker struct {
	cfg    Config
	store  *SnapshotStore
	fp     *Fingerprinter
	treeID string

	mu      sync.Mutex
	last    *Result
	lastErr error
	ran     bool
}

// NewChecker validates the configuration and fails fast on a missing or
// unreadable root or an unusable store directory.
func NewChecker(cfg Config) (*Checker, error) {
	root := canonicalPath(cfg.Root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("check root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("check root is not a directory: %s", root)
	}
	dir, err := os.Open(root)
	if err != nil {
		return nil, fmt.Errorf("check root not readable: %w", err)
	}
	dir.Close()

	store, err := NewSnapshotStore(cfg.StoreDir, cfg.UseCompression)
	if err != nil {
		return nil, err
	}

	fp, err := NewFingerprinter(cfg.HashAlgorithm)
	if err != nil {
		return nil, err
	}

	cfg.Root = root
	return &Checker{
		cfg:    cfg,
		store:  store,
		fp:     fp,
		treeID: TreeIdentity(root),
	}, nil
}

// TreeID returns the identity digest of the configured root.
func (c *Checker) TreeID() string {
	return c.treeID
}

// Store exposes the underlying artifact store.
func (c *Checker) Store() *SnapshotStore {
	return c.store
}

// Run performs one integrity check. A load failure degrades to an empty
// baseline and is reported in the result; a persistence failure or a
// cancelled walk is fatal and leaves the previous baseline untouched.
func (c *Checker) Run(ctx context.Context) (*Result, error) {
	old, baselineErr := c.store.Load(c.treeID)
	if baselineErr != nil {
		old = models.NewSnapshot(c.treeID, c.cfg.Root)
	}

	walker := NewTreeWalker(NewPathMatcher(c.cfg.Exclusions), c.fp, c.cfg.MaxFileSize, c.cfg.Workers)
	snap, scanErrs, err := walker.Walk(ctx, c.cfg.Root)
	if err != nil {
		return nil, err
	}

	changes := Diff(old, snap)

	// The new baseline is written even when loading the old one failed, so
	// the next run starts from the most recent successful scan.
	if err := c.store.Save(snap); err != nil {
		return nil, err
	}

	result := &Result{
		Drift:       len(changes) > 0,
		Changes:     changes,
		Snapshot:    snap,
		BaselineErr: baselineErr,
		ScanErrs:    scanErrs,
	}

	if len(changes) > 0 {
		artifact, err := c.store.SaveChanges(c.treeID, snap.Timestamp, changes)
		if err != nil {
			return nil, err
		}
		result.ChangeArtifact = artifact
	}

	return result, nil
}

// Baseline re-scans the tree and overwrites the stored baseline without
// computing or reporting drift.
func (c *Checker) Baseline(ctx context.Context) (*models.Snapshot, error) {
	walker := NewTreeWalker(NewPathMatcher(c.cfg.Exclusions), c.fp, c.cfg.MaxFileSize, c.cfg.Workers)
	snap, _, err := walker.Walk(ctx, c.cfg.Root)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Checker) ensureRun() (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ran {
		c.last, c.lastErr = c.Run(context.Background())
		c.ran = true
	}
	return c.last, c.lastErr
}

// CheckIntegrity runs the check on first call and returns true only when
// no drift was detected and no error occurred.
func (c *Checker) CheckIntegrity() bool {
	result, err := c.ensureRun()
	if err != nil || result == nil {
		return false
	}
	return !result.Drift && result.Err() == nil
}

// GetChanges returns the change set of the run, triggering the run (and
// its persistence side effects) if it has not happened yet. When the
// baseline failed to load the comparison ran against an empty snapshot,
// so every tracked entry is reported as added.
func (c *Checker) GetChanges() []models.ChangeRecord {
	result, _ := c.ensureRun()
	if result == nil {
		return nil
	}
	return result.Changes
}

// GetError returns the recorded error of the run, fatal or non-fatal.
func (c *Checker) GetError() error {
	result, err := c.ensureRun()
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return result.Err()
}
