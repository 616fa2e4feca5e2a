// Package tree builds and maintains the size-annotated directory index
// behind the interactive browser. One parallel pass over the filesystem
// produces a parent→children mapping with pre-aggregated directory
// sizes; after that, navigation never touches the disk and a single
// deletion is patched in O(depth).
package tree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/voidhaven/sweeper/internal/pattern"
)

// ErrCanceled is returned when a build is cooperatively aborted. The
// partial result is discarded; a canceled build yields no tree.
var ErrCanceled = errors.New("tree build canceled")

// ParentName is the synthetic entry linking a directory to its parent.
const ParentName = ".."

// Entry is one row in a directory listing. For directories Size is the
// sum of all descendant file sizes.
type Entry struct {
	Path   string
	Name   string
	Size   int64
	IsDir  bool
	IsTemp bool
}

// rawEntry is what the walkers emit: one filesystem object, no
// aggregation applied yet.
type rawEntry struct {
	path   string
	parent string
	name   string
	size   int64
	isDir  bool
}

// Tree is the parent→children index. It is owned by a single
// goroutine after Build returns; mutation happens only through
// DeleteEntry on that owner.
type Tree struct {
	root     string
	rootSize int64
	children map[string][]Entry
}

// Build scans the subtree under root in one parallel pass. File sizes
// are folded into every ancestor total while collection is still
// running, so no second aggregation walk is needed. progress receives
// live counters; its cancel flag is polled once per directory read.
// On cancellation the result is unusable and ErrCanceled is returned.
func Build(root string, matcher *pattern.Matcher, workers int, progress *Progress) (*Tree, error) {
	root = filepath.Clean(root)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if progress == nil {
		progress = NewProgress()
	}
	defer progress.done.Store(true)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	// Phase 0: parallel collection. Walkers feed a single aggregator
	// goroutine-free loop below; only the aggregator touches the maps,
	// so ancestor totals need no locking.
	raw := make(chan rawEntry, 1024)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	var walk func(dir string)
	walk = func(dir string) {
		defer wg.Done()
		if progress.Canceled() {
			return
		}

		sem <- struct{}{}
		entries, err := os.ReadDir(dir)
		<-sem
		if err != nil {
			// Unreadable or raced away: skip silently.
			return
		}

		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			isDir := e.IsDir() && e.Type()&os.ModeSymlink == 0

			var size int64
			if !isDir {
				if info, err := e.Info(); err == nil {
					size = info.Size()
				} else {
					continue
				}
			}

			raw <- rawEntry{path: path, parent: dir, name: e.Name(), size: size, isDir: isDir}

			if isDir {
				wg.Add(1)
				go walk(path)
			}
		}
	}

	wg.Add(1)
	go walk(root)
	go func() {
		wg.Wait()
		close(raw)
	}()

	var collected []rawEntry
	dirSizes := make(map[string]int64)
	for e := range raw {
		collected = append(collected, e)
		if e.isDir {
			progress.dirs.Add(1)
			continue
		}
		progress.files.Add(1)
		progress.bytes.Add(e.size)
		// Fold the file size into every ancestor, bounded at O(depth).
		for dir := e.parent; ; dir = filepath.Dir(dir) {
			dirSizes[dir] += e.size
			if dir == root {
				break
			}
		}
	}

	if progress.Canceled() {
		return nil, ErrCanceled
	}

	// Phase 1: group into the children mapping and apply the default
	// order: directories before files, size descending, ".." first.
	progress.phase.Store(PhaseAssemble)

	children := make(map[string][]Entry)
	children[root] = nil
	for _, e := range collected {
		size := e.size
		if e.isDir {
			size = dirSizes[e.path]
			if _, ok := children[e.path]; !ok {
				children[e.path] = nil
			}
		}
		isTemp := false
		if matcher != nil {
			if e.isDir {
				isTemp = matcher.IsTempDir(e.name)
			} else {
				isTemp = matcher.IsTempFile(e.name)
			}
		}
		children[e.parent] = append(children[e.parent], Entry{
			Path:   e.path,
			Name:   e.name,
			Size:   size,
			IsDir:  e.isDir,
			IsTemp: isTemp,
		})
	}

	for dir, list := range children {
		SortBySize(list)
		if dir != root {
			children[dir] = append([]Entry{{
				Path:  filepath.Dir(dir),
				Name:  ParentName,
				IsDir: true,
			}}, list...)
		}
	}

	return &Tree{root: root, rootSize: dirSizes[root], children: children}, nil
}

// Root returns the tree's root path.
func (t *Tree) Root() string { return t.root }

// TotalSize returns the aggregate size of the whole tree.
func (t *Tree) TotalSize() int64 { return t.rootSize }

// Children returns a copy of the ordered listing for path. O(1) map
// lookup; no filesystem access. Unknown paths yield an empty list.
func (t *Tree) Children(path string) []Entry {
	return append([]Entry(nil), t.children[filepath.Clean(path)]...)
}

// Contains reports whether path lies under the tree root.
func (t *Tree) Contains(path string) bool {
	path = filepath.Clean(path)
	return path == t.root || strings.HasPrefix(path, t.root+string(filepath.Separator))
}

// DeleteEntry removes one entry after its filesystem deletion
// succeeded, then walks the ancestor chain decrementing each recorded
// size (saturating at zero) up to the root. O(depth), never O(tree
// size); no rescan. Returns false if the entry is unknown, in which
// case the tree is unchanged.
func (t *Tree) DeleteEntry(path string, isDir bool) bool {
	path = filepath.Clean(path)
	if path == t.root || !t.Contains(path) {
		return false
	}
	parent := filepath.Dir(path)
	list, ok := t.children[parent]
	if !ok {
		return false
	}

	idx := -1
	for i, e := range list {
		if e.Name != ParentName && e.Path == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	removed := list[idx]
	t.children[parent] = append(list[:idx], list[idx+1:]...)
	if isDir {
		// Descendant mappings become unreachable; only the entry's own
		// mapping is discarded, keeping the patch O(depth).
		delete(t.children, path)
	}

	for cur := parent; cur != t.root; cur = filepath.Dir(cur) {
		t.decrement(filepath.Dir(cur), cur, removed.Size)
	}
	t.rootSize = saturate(t.rootSize - removed.Size)
	return true
}

// decrement lowers the recorded size of childPath inside parentPath's
// listing, saturating at zero.
func (t *Tree) decrement(parentPath, childPath string, by int64) {
	list := t.children[parentPath]
	for i := range list {
		if list[i].Name != ParentName && list[i].Path == childPath {
			list[i].Size = saturate(list[i].Size - by)
			return
		}
	}
}

func saturate(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// SortBySize orders entries directories-first, size descending, with
// the parent link pinned first. This is the browser's default order.
func SortBySize(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Name == ParentName || b.Name == ParentName {
			return a.Name == ParentName && b.Name != ParentName
		}
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Size > b.Size
	})
}

// SortByName orders entries directories-first, case-insensitive name
// ascending, with the parent link pinned first.
func SortByName(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Name == ParentName || b.Name == ParentName {
			return a.Name == ParentName && b.Name != ParentName
		}
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
