// Package scan implements the parallel disposable-artifact scanner and
// the atomic statistics shared by its consumers.
package scan

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voidhaven/sweeper/internal/pattern"
)

// Result is one disposable entry discovered by the scanner. For
// directories Size is zero: the figure is resolved by the consumer at
// deletion time so the scan never pays for a second walk.
type Result struct {
	Path  string
	IsDir bool
	Size  int64
}

// Scanner walks a subtree in parallel, streaming pattern matches.
// Matched directories are pruned: their contents are never inspected.
type Scanner struct {
	root    string
	matcher *pattern.Matcher
	// days is the retention threshold; negative disables the filter.
	days    int
	exclude []string
	sem     chan struct{}
	logger  *slog.Logger
	scanned atomic.Int64
}

// NewScanner creates a scanner rooted at root. workers bounds
// concurrent directory reads; days < 0 disables the age filter.
func NewScanner(root string, workers int, matcher *pattern.Matcher, days int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		root:    filepath.Clean(root),
		matcher: matcher,
		days:    days,
		exclude: excludedPaths(),
		sem:     make(chan struct{}, workers),
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetLogger installs a debug logger. The default discards.
func (s *Scanner) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Scan traverses the subtree, sends every match on out, closes out
// when traversal exhausts, and returns the number of entries examined.
// Symlinks are never followed; hidden entries are included.
func (s *Scanner) Scan(out chan<- Result) int64 {
	s.scanned.Store(0)
	cutoff := time.Time{}
	if s.days >= 0 {
		cutoff = time.Now().Add(-time.Duration(s.days) * 24 * time.Hour)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go s.walkDir(s.root, cutoff, out, &wg)
	wg.Wait()
	close(out)

	return s.scanned.Load()
}

// Scanned returns the live count of entries examined so far.
func (s *Scanner) Scanned() int64 {
	return s.scanned.Load()
}

// walkDir reads one directory and recurses into subdirectories on
// fresh goroutines. The semaphore is held only across the ReadDir I/O
// so nested acquisition cannot deadlock.
func (s *Scanner) walkDir(dir string, cutoff time.Time, out chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()

	s.sem <- struct{}{}
	entries, err := os.ReadDir(dir)
	<-s.sem

	if err != nil {
		// Raced with a concurrent deletion or unreadable directory:
		// skip silently, the scan continues elsewhere.
		s.logger.Debug("skipping unreadable directory", "path", dir, "err", err)
		return
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		s.scanned.Add(1)

		if s.isExcluded(path) {
			s.logger.Debug("excluded from traversal", "path", path)
			continue
		}

		// A symlink is never followed; it can only match as a file.
		isDir := e.IsDir() && e.Type()&os.ModeSymlink == 0

		if isDir {
			if s.matcher.IsTempDir(e.Name()) && s.eligible(e, cutoff) {
				// Prune: report the directory once, never descend.
				out <- Result{Path: path, IsDir: true}
				continue
			}
			wg.Add(1)
			go s.walkDir(path, cutoff, out, wg)
			continue
		}

		if s.matcher.IsTempFile(e.Name()) {
			info, err := e.Info()
			if err != nil {
				s.logger.Debug("skipping unreadable entry", "path", path, "err", err)
				continue
			}
			out <- Result{Path: path, Size: info.Size()}
		}
	}
}

// eligible applies the retention threshold to a matched directory.
// Without a filter every match is eligible. Unreadable metadata means
// not eligible: when in doubt, keep.
func (s *Scanner) eligible(e os.DirEntry, cutoff time.Time) bool {
	if s.days < 0 {
		return true
	}
	info, err := e.Info()
	if err != nil {
		return false
	}
	return info.ModTime().Before(cutoff)
}

func (s *Scanner) isExcluded(path string) bool {
	for _, ex := range s.exclude {
		if path == ex {
			return true
		}
	}
	return false
}

// excludedPaths lists directories that must never be scanned or
// deleted. The macOS Docker container holds a sparse disk image whose
// reported sizes are unreliable.
func excludedPaths() []string {
	if runtime.GOOS != "darwin" {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	p := filepath.Join(home, "Library", "Containers", "com.docker.docker")
	if _, err := os.Stat(p); err != nil {
		return nil
	}
	return []string{p}
}
