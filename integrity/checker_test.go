package integrity

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/meysamhadeli/driftcheck/integrity/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChecker(t *testing.T, root, storeDir string, opts ...func(*Config)) *Checker {
	t.Helper()
	cfg := Config{
		Root:          root,
		StoreDir:      storeDir,
		HashAlgorithm: HashXXH3,
		Workers:       2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	checker, err := NewChecker(cfg)
	require.NoError(t, err)
	return checker
}

func changesByStatus(changes []models.ChangeRecord, status models.ChangeStatus) []models.ChangeRecord {
	var out []models.ChangeRecord
	for _, change := range changes {
		if change.Status == status {
			out = append(out, change)
		}
	}
	return out
}

func TestChecker_MissingRootFailsFast(t *testing.T) {
	_, err := NewChecker(Config{
		Root:     filepath.Join(t.TempDir(), "absent"),
		StoreDir: t.TempDir(),
	})
	assert.Error(t, err)
}

func TestChecker_RootNotADirectoryFailsFast(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := NewChecker(Config{Root: file, StoreDir: t.TempDir()})
	assert.Error(t, err)
}

func TestChecker_EndToEndScenario(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	ctx := context.Background()

	aPath := filepath.Join(root, "a.txt")
	writeFile(t, aPath, "A")

	// Run 1 establishes the baseline: everything reported as added against
	// the empty baseline, BaselineErr recorded.
	run1, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, run1.BaselineErr, ErrNoBaseline)
	require.Len(t, run1.Changes, 1)
	assert.Equal(t, models.StatusAdded, run1.Changes[0].Status)

	// Run 1b: nothing moved, empty change set (idempotence).
	run1b, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)
	assert.NoError(t, run1b.BaselineErr)
	assert.False(t, run1b.Drift)
	assert.Empty(t, run1b.Changes)

	// Run 2: edit a.txt to "AA"; exactly one changed record whose fields
	// include size and contentHash, but never permissions.
	writeFile(t, aPath, "AA")
	run2, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)
	require.Len(t, run2.Changes, 1)
	assert.Equal(t, models.StatusChanged, run2.Changes[0].Status)
	assert.Contains(t, run2.Changes[0].Fields, models.FieldSize)
	assert.Contains(t, run2.Changes[0].Fields, models.FieldContentHash)
	assert.NotContains(t, run2.Changes[0].Fields, models.FieldPermissions)

	// Run 3: add b.txt; exactly one added record.
	bPath := filepath.Join(root, "b.txt")
	writeFile(t, bPath, "B")
	run3, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)
	require.Len(t, run3.Changes, 1)
	assert.Equal(t, models.StatusAdded, run3.Changes[0].Status)
	assert.Equal(t, canonicalPath(bPath), run3.Changes[0].Path)

	// Run 4: delete a.txt; one deleted record carrying the last known
	// attributes, and the new baseline tracks only b.txt.
	require.NoError(t, os.Remove(aPath))
	run4, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)
	require.Len(t, run4.Changes, 1)
	assert.Equal(t, models.StatusDeleted, run4.Changes[0].Status)
	assert.Equal(t, canonicalPath(aPath), run4.Changes[0].Path)
	assert.NotEmpty(t, run4.Changes[0].Record.ContentHash)
	require.Equal(t, 1, run4.Snapshot.Len())
	assert.Contains(t, run4.Snapshot.Files, canonicalPath(bPath))
}

func TestChecker_PermissionsOnlyChange(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	ctx := context.Background()

	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "A")

	_, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Chmod(path, 0600))
	result, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)

	require.Len(t, result.Changes, 1)
	assert.Contains(t, result.Changes[0].Fields, models.FieldPermissions)
	assert.NotContains(t, result.Changes[0].Fields, models.FieldSize)
	assert.NotContains(t, result.Changes[0].Fields, models.FieldContentHash)
}

func TestChecker_SetuidFlipIsAPermissionsChange(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	ctx := context.Background()

	path := filepath.Join(root, "tool")
	writeFile(t, path, "#!/bin/sh\n")
	require.NoError(t, os.Chmod(path, 0o755))

	_, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Chmod(path, 0o755|os.ModeSetuid))
	result, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)

	require.Len(t, result.Changes, 1)
	assert.Equal(t, models.StatusChanged, result.Changes[0].Status)
	assert.Contains(t, result.Changes[0].Fields, models.FieldPermissions)
	assert.NotContains(t, result.Changes[0].Fields, models.FieldSize)
	assert.NotContains(t, result.Changes[0].Fields, models.FieldContentHash)
	assert.Equal(t, "4755", result.Changes[0].Record.Permissions)
}

func TestChecker_ShrinkingPastLimitAppearsAsAdded(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	ctx := context.Background()

	path := filepath.Join(root, "grow.txt")
	writeFile(t, path, "0123456789")

	withLimit := func(cfg *Config) { cfg.MaxFileSize = 5 }

	// Oversized from the start: absent from the snapshot entirely.
	run1, err := newTestChecker(t, root, storeDir, withLimit).Run(ctx)
	require.NoError(t, err)
	assert.NotContains(t, run1.Snapshot.Files, canonicalPath(path))

	// Shrinks below the limit: appears as added, not changed.
	writeFile(t, path, "ok")
	run2, err := newTestChecker(t, root, storeDir, withLimit).Run(ctx)
	require.NoError(t, err)
	added := changesByStatus(run2.Changes, models.StatusAdded)
	require.Len(t, added, 1)
	assert.Equal(t, canonicalPath(path), added[0].Path)
}

func TestChecker_ExcludedFileNeverAppears(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	ctx := context.Background()

	writeFile(t, filepath.Join(root, "tracked.txt"), "T")
	writeFile(t, filepath.Join(root, "private", "nested", "deep.txt"), "D")

	exclude := func(cfg *Config) { cfg.Exclusions = []string{filepath.Join(root, "private")} }

	run1, err := newTestChecker(t, root, storeDir, exclude).Run(ctx)
	require.NoError(t, err)

	// Mutate inside the excluded subtree between runs.
	writeFile(t, filepath.Join(root, "private", "nested", "deep.txt"), "CHANGED")

	run2, err := newTestChecker(t, root, storeDir, exclude).Run(ctx)
	require.NoError(t, err)

	for _, result := range []*Result{run1, run2} {
		for path := range result.Snapshot.Files {
			assert.NotContains(t, path, "private")
		}
		for _, change := range result.Changes {
			assert.NotContains(t, change.Path, "private")
		}
	}
	assert.False(t, run2.Drift)
}

func TestChecker_CorruptBaselineIsNotDrift(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	ctx := context.Background()

	writeFile(t, filepath.Join(root, "a.txt"), "A")

	checker := newTestChecker(t, root, storeDir)
	_, err := checker.Run(ctx)
	require.NoError(t, err)

	// Clobber the baseline artifact.
	baseline := filepath.Join(storeDir, checker.TreeID()+snapshotSuffix)
	require.NoError(t, os.WriteFile(baseline, []byte("garbage"), 0644))

	result, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)

	// The load failure is reported separately from drift: comparison ran
	// against an empty baseline, so the tracked file shows up as added.
	assert.ErrorIs(t, result.BaselineErr, ErrNoBaseline)
	require.Len(t, changesByStatus(result.Changes, models.StatusAdded), 1)

	// Self-healing: the baseline was rewritten, the next run is clean.
	next, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)
	assert.NoError(t, next.BaselineErr)
	assert.False(t, next.Drift)
}

func TestChecker_ChangeArtifactOnlyWhenDrift(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	ctx := context.Background()

	writeFile(t, filepath.Join(root, "a.txt"), "A")

	run1, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, run1.ChangeArtifact)
	require.FileExists(t, run1.ChangeArtifact)

	store, err := NewSnapshotStore(storeDir, false)
	require.NoError(t, err)
	loaded, err := store.LoadChanges(run1.ChangeArtifact)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	run2, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, run2.ChangeArtifact)
}

func TestChecker_ChangeArtifactStampedWithSnapshotTime(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()

	writeFile(t, filepath.Join(root, "a.txt"), "A")

	checker := newTestChecker(t, root, storeDir)
	result, err := checker.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.ChangeArtifact)

	// Artifact name and baseline agree on when the run happened.
	expected := fmt.Sprintf("%s-%d%s", checker.TreeID(),
		result.Snapshot.Timestamp.UTC().UnixNano(), changesSuffix)
	assert.Equal(t, expected, filepath.Base(result.ChangeArtifact))
}

func TestChecker_LegacyFacade(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()

	writeFile(t, filepath.Join(root, "a.txt"), "A")

	// First checker: no baseline yet, so checkIntegrity reports false and
	// the load error is retrievable, while getChanges still returns the
	// computed change set.
	first := newTestChecker(t, root, storeDir)
	assert.False(t, first.CheckIntegrity())
	assert.ErrorIs(t, first.GetError(), ErrNoBaseline)
	assert.Len(t, first.GetChanges(), 1)

	// Second checker: clean tree, clean baseline.
	second := newTestChecker(t, root, storeDir)
	assert.True(t, second.CheckIntegrity())
	assert.NoError(t, second.GetError())
	assert.Empty(t, second.GetChanges())

	// Third checker: drift.
	writeFile(t, filepath.Join(root, "b.txt"), "B")
	third := newTestChecker(t, root, storeDir)
	assert.False(t, third.CheckIntegrity())
	assert.NoError(t, third.GetError())
	assert.Len(t, third.GetChanges(), 1)
}

func TestChecker_Baseline(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()
	ctx := context.Background()

	writeFile(t, filepath.Join(root, "a.txt"), "A")
	writeFile(t, filepath.Join(root, "b.txt"), "B")

	snap, err := newTestChecker(t, root, storeDir).Baseline(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())

	// A subsequent check starts from the accepted state.
	result, err := newTestChecker(t, root, storeDir).Run(ctx)
	require.NoError(t, err)
	assert.False(t, result.Drift)
	assert.NoError(t, result.BaselineErr)
}

func TestChecker_CancelledRunLeavesBaselineUntouched(t *testing.T) {
	root := t.TempDir()
	storeDir := t.TempDir()

	writeFile(t, filepath.Join(root, "a.txt"), "A")

	_, err := newTestChecker(t, root, storeDir).Run(context.Background())
	require.NoError(t, err)

	// Mutate and run with an already-cancelled context.
	writeFile(t, filepath.Join(root, "a.txt"), "AA")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newTestChecker(t, root, storeDir).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The old baseline still reflects the original content, so the next
	// run reports the edit.
	result, err := newTestChecker(t, root, storeDir).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Changes, 1)
	assert.Equal(t, models.StatusChanged, result.Changes[0].Status)
}
