// Package pattern decides whether a file or directory name denotes a
// disposable build or cache artifact.
package pattern

import (
	"path/filepath"
	"strings"
)

// Matcher tests single path components against an ordered set of
// disposable-directory and disposable-file patterns. It is immutable
// for the duration of a run and safe for concurrent use.
type Matcher struct {
	directories []string
	files       []string
}

// NewMatcher builds a Matcher from ordered directory and file patterns.
// The slices are copied; later mutation of the arguments has no effect.
func NewMatcher(directories, files []string) *Matcher {
	return &Matcher{
		directories: append([]string(nil), directories...),
		files:       append([]string(nil), files...),
	}
}

// IsTempDir reports whether a directory name matches a disposable
// pattern: exact equality, or a leading-'*' pattern whose remainder
// suffix-matches the name ("*.egg-info" matches "pkg.egg-info").
func (m *Matcher) IsTempDir(name string) bool {
	for _, p := range m.directories {
		if name == p {
			return true
		}
		if strings.HasPrefix(p, "*") && strings.HasSuffix(name, p[1:]) {
			return true
		}
	}
	return false
}

// IsTempFile reports whether a file name matches a disposable pattern:
// exact equality, a '.'-prefixed extension suffix (".pyc" matches
// "mod.pyc"), or a plain suffix ("~" matches "backup~").
func (m *Matcher) IsTempFile(name string) bool {
	for _, p := range m.files {
		if name == p {
			return true
		}
		if strings.HasPrefix(p, ".") && strings.HasSuffix(name, p) {
			return true
		}
		if strings.HasSuffix(name, p) {
			return true
		}
	}
	return false
}

// Matches tests the final component of path. No separator awareness:
// only the base name is consulted.
func (m *Matcher) Matches(path string, isDir bool) bool {
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		return false
	}
	if isDir {
		return m.IsTempDir(name)
	}
	return m.IsTempFile(name)
}

// DirectoryPatterns returns the directory patterns, for display.
func (m *Matcher) DirectoryPatterns() []string {
	return append([]string(nil), m.directories...)
}

// FilePatterns returns the file patterns, for display.
func (m *Matcher) FilePatterns() []string {
	return append([]string(nil), m.files...)
}
