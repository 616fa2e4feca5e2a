package tree

import "sync/atomic"

// Progress exposes live build counters to an external renderer. The
// renderer may read counters and request cancellation; nothing else.
type Progress struct {
	files  atomic.Int64
	dirs   atomic.Int64
	bytes  atomic.Int64
	phase  atomic.Int32
	done   atomic.Bool
	cancel atomic.Bool
}

// Build phases, for a coarse two-phase indicator.
const (
	PhaseCollect  = 0 // walking the filesystem
	PhaseAssemble = 1 // grouping and sorting collected entries
)

// NewProgress returns a fresh progress sink for one build.
func NewProgress() *Progress {
	return &Progress{}
}

// Files returns the number of files seen so far.
func (p *Progress) Files() int64 { return p.files.Load() }

// Dirs returns the number of directories seen so far.
func (p *Progress) Dirs() int64 { return p.dirs.Load() }

// Bytes returns the total file bytes seen so far.
func (p *Progress) Bytes() int64 { return p.bytes.Load() }

// Phase returns the current build phase.
func (p *Progress) Phase() int32 { return p.phase.Load() }

// Done reports whether the build has finished (or aborted).
func (p *Progress) Done() bool { return p.done.Load() }

// RequestCancel asks the build to stop. Cooperative: the flag is
// polled at traversal-step granularity, never enforced preemptively.
func (p *Progress) RequestCancel() { p.cancel.Store(true) }

// Canceled reports whether cancellation has been requested.
func (p *Progress) Canceled() bool { return p.cancel.Load() }
