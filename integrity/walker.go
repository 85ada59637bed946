package integrity

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/meysamhadeli/driftcheck/integrity/models"
)

// TreeWalker enumerates a directory tree and produces a snapshot via the
// fingerprinter. Entries matching an exclusion rule are skipped entirely,
// as are regular files at or above the size limit: oversized files are
// dropped from the snapshot, not tracked without a hash.
//
// Fingerprinting runs on a bounded worker pool; the resulting snapshot is
// keyed by path and independent of execution order. Unreadable entries do
// not abort the walk: their errors are accumulated and returned alongside
// the snapshot.
type TreeWalker struct {
	matcher *PathMatcher
	fp      *Fingerprinter
	maxSize int64
	workers int
}

// NewTreeWalker builds a walker. maxSize of zero means unlimited; workers
// of zero selects one worker per CPU.
func NewTreeWalker(matcher *PathMatcher, fp *Fingerprinter, maxSize int64, workers int) *TreeWalker {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &TreeWalker{matcher: matcher, fp: fp, maxSize: maxSize, workers: workers}
}

type walkJob struct {
	path string
	info os.FileInfo
}

// Walk scans root and returns the snapshot plus any per-entry errors.
// Cancellation is checked between visits; a cancelled walk returns the
// context error and no snapshot.
func (w *TreeWalker) Walk(ctx context.Context, root string) (*models.Snapshot, []error, error) {
	root = canonicalPath(root)
	snap := models.NewSnapshot(TreeIdentity(root), root)

	var (
		mu       sync.Mutex
		scanErrs []error
	)
	addErr := func(err error) {
		mu.Lock()
		scanErrs = append(scanErrs, err)
		mu.Unlock()
	}

	jobs := make(chan walkJob, w.workers*4)
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				record, err := w.fp.Fingerprint(job.path, job.info)
				if err != nil {
					addErr(err)
					continue
				}
				mu.Lock()
				snap.Files[record.Path] = record
				mu.Unlock()
			}
		}()
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entry: record and keep walking.
			addErr(fmt.Errorf("reading %s: %w", path, err))
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if path == root {
			return nil
		}

		if w.matcher.Excluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			addErr(fmt.Errorf("stat %s: %w", path, err))
			return nil
		}

		if w.maxSize > 0 && !d.IsDir() && info.Size() >= w.maxSize {
			return nil
		}

		jobs <- walkJob{path: path, info: info}
		return nil
	})

	close(jobs)
	wg.Wait()

	if walkErr != nil {
		return nil, nil, walkErr
	}
	return snap, scanErrs, nil
}
