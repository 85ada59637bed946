// Package integrity implements the snapshot-and-diff engine behind
// driftcheck: it walks a directory tree applying exclusion rules and an
// optional size cutoff, fingerprints every accepted entry (metadata plus a
// content digest for regular files), persists the result as the tree's
// baseline, and diffs successive snapshots into added / changed / deleted
// records.
//
// A Checker composes the pieces for one configured tree. Run performs a
// full check and returns a Result that reports drift and a failed baseline
// load as separate signals; the CheckIntegrity / GetChanges / GetError
// methods provide the boolean-style surface on top of it.
//
// Baselines are gob-encoded, optionally gzip-compressed, and written
// atomically (temp file, then rename), so a crash mid-write never leaves a
// partially written baseline behind. Concurrent invocations against the
// same tree are not locked against each other and can race on the final
// rename.
package integrity
