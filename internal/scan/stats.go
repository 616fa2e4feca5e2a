package scan

import "sync/atomic"

// Stats accumulates deletion counters across parallel workers.
// Relaxed ordering is fine: only the final sums matter, read after the
// pipeline drains. One instance is constructed per run and shared by
// pointer; there is no ambient global to reset.
type Stats struct {
	dirsDeleted  atomic.Int64
	filesDeleted atomic.Int64
	bytesFreed   atomic.Int64
	errors       atomic.Int64
}

// NewStats returns a zeroed counter set for a single run.
func NewStats() *Stats {
	return &Stats{}
}

// AddDir records one deleted directory.
func (s *Stats) AddDir() { s.dirsDeleted.Add(1) }

// AddFiles records n deleted files.
func (s *Stats) AddFiles(n int64) { s.filesDeleted.Add(n) }

// AddBytes records freed bytes.
func (s *Stats) AddBytes(n int64) { s.bytesFreed.Add(n) }

// AddError records one failed deletion.
func (s *Stats) AddError() { s.errors.Add(1) }

// Dirs returns the number of directories deleted.
func (s *Stats) Dirs() int64 { return s.dirsDeleted.Load() }

// Files returns the number of files deleted.
func (s *Stats) Files() int64 { return s.filesDeleted.Load() }

// Bytes returns the number of bytes freed.
func (s *Stats) Bytes() int64 { return s.bytesFreed.Load() }

// Errors returns the number of failed deletions.
func (s *Stats) Errors() int64 { return s.errors.Load() }
