package browse

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidhaven/sweeper/internal/config"
	"github.com/voidhaven/sweeper/internal/tree"
)

func testConfig() *config.Config {
	return &config.Config{
		Patterns: config.PatternsConfig{
			Directories: []string{"node_modules", "target"},
			Files:       []string{".DS_Store"},
		},
		Days: config.DaysUnset,
	}
}

// newBrowser builds the shared fixture and a browser over it:
//
//	a/node_modules/pkg/file.js  (10 bytes)
//	a/src/main.rs               (5 bytes)
//	b/target/debug/bin          (20 bytes)
func newBrowser(t *testing.T) (Model, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "node_modules", "pkg"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b", "target", "debug"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "node_modules", "pkg", "file.js"), make([]byte, 10), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "src", "main.rs"), make([]byte, 5), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "target", "debug", "bin"), make([]byte, 20), 0o644))

	cfg := testConfig()
	tr, err := tree.Build(root, cfg.Matcher(), 4, tree.NewProgress())
	require.NoError(t, err)
	return NewWithTree(root, cfg, 4, tr), root
}

func press(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEscape}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func names(entries []tree.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestInitialListingSortedBySize(t *testing.T) {
	m, _ := newBrowser(t)

	// Root: no "..", directories by size descending (b=20, a=15).
	assert.Equal(t, []string{"b", "a"}, names(m.entries))
	assert.Equal(t, 0, m.cursor)
}

func TestMoveSelectionIsBounded(t *testing.T) {
	m, _ := newBrowser(t)

	m, _ = press(m, "k")
	assert.Equal(t, 0, m.cursor, "cannot move above the first row")

	m, _ = press(m, "j")
	assert.Equal(t, 1, m.cursor)
	m, _ = press(m, "j")
	assert.Equal(t, 1, m.cursor, "cannot move past the last row")
}

func TestEnterDescendsAndBackReselects(t *testing.T) {
	m, root := newBrowser(t)

	// Cursor on "b"; enter it.
	m, _ = press(m, "enter")
	assert.Equal(t, filepath.Join(root, "b"), m.current)
	assert.Equal(t, tree.ParentName, m.entries[0].Name)

	// Back re-selects the directory we just exited.
	m, _ = press(m, "left")
	assert.Equal(t, root, m.current)
	e, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "b", e.Name)
}

func TestEnterOnParentLinkGoesBack(t *testing.T) {
	m, root := newBrowser(t)

	m, _ = press(m, "enter") // into b
	require.Equal(t, filepath.Join(root, "b"), m.current)

	// Cursor lands on "..": entering it pops back up.
	require.Equal(t, 0, m.cursor)
	m, _ = press(m, "enter")
	assert.Equal(t, root, m.current)
}

func TestEnterOnFileIsNoop(t *testing.T) {
	m, root := newBrowser(t)

	m, _ = press(m, "j")     // onto "a"
	m, _ = press(m, "enter") // into a
	m, _ = press(m, "j")     // node_modules
	m, _ = press(m, "j")     // src
	m, _ = press(m, "enter") // into src
	m, _ = press(m, "j")     // main.rs
	before := m.current

	m, _ = press(m, "enter")
	assert.Equal(t, before, m.current)
	assert.Equal(t, filepath.Join(root, "a", "src"), m.current)
}

func TestToggleSortKeepsSelection(t *testing.T) {
	m, _ := newBrowser(t)

	m, _ = press(m, "j") // onto "a"
	m, _ = press(m, "s")

	// Name ascending now: a before b; cursor followed the selection.
	assert.Equal(t, []string{"a", "b"}, names(m.entries))
	e, _ := m.selected()
	assert.Equal(t, "a", e.Name)

	m, _ = press(m, "s")
	assert.Equal(t, []string{"b", "a"}, names(m.entries))
}

func TestDeleteFlowRemovesEntryAndPatchesSizes(t *testing.T) {
	m, root := newBrowser(t)
	treeBefore := m.tree

	// Navigate to a/src/main.rs.
	m, _ = press(m, "j")
	m, _ = press(m, "enter")
	m, _ = press(m, "j")
	m, _ = press(m, "j")
	m, _ = press(m, "enter")
	m, _ = press(m, "j")
	e, _ := m.selected()
	require.Equal(t, "main.rs", e.Name)

	// d arms the confirmation, y fires the background worker.
	m, _ = press(m, "d")
	assert.True(t, m.confirmDelete)
	m, cmd := press(m, "y")
	require.NotNil(t, cmd)
	assert.Equal(t, stateDeleting, m.state)

	// Run the worker and merge its result.
	updated, _ := m.Update(cmd())
	m = updated.(Model)

	assert.Equal(t, stateBrowsing, m.state)
	assert.NoFileExists(t, filepath.Join(root, "a", "src", "main.rs"))
	assert.Same(t, treeBefore, m.tree, "merge patches the existing tree, no rescan")
	assert.Equal(t, int64(30), m.tree.TotalSize())
	for _, e := range m.entries {
		assert.NotEqual(t, "main.rs", e.Name)
	}
}

func TestDeleteConfirmationCanBeDeclined(t *testing.T) {
	m, _ := newBrowser(t)

	m, _ = press(m, "d")
	require.True(t, m.confirmDelete)
	m, cmd := press(m, "n")
	assert.False(t, m.confirmDelete)
	assert.Nil(t, cmd)
	assert.Equal(t, stateBrowsing, m.state)
}

func TestDeleteOnParentLinkIsRejected(t *testing.T) {
	m, _ := newBrowser(t)

	m, _ = press(m, "enter") // into b; cursor on ".."
	m, _ = press(m, "d")
	assert.False(t, m.confirmDelete)
}

func TestDeleteFailureLeavesTreeUntouched(t *testing.T) {
	m, _ := newBrowser(t)
	sizeBefore := m.tree.TotalSize()

	updated, _ := m.Update(deleteDoneMsg{path: "whatever", err: errors.New("permission denied")})
	m = updated.(Model)

	assert.Equal(t, stateBrowsing, m.state)
	assert.Contains(t, m.status, "delete failed")
	assert.Equal(t, sizeBefore, m.tree.TotalSize())
}

func TestBusyRejectsNavigationAndMutation(t *testing.T) {
	m, _ := newBrowser(t)
	m.state = stateDeleting

	m2, _ := press(m, "j")
	assert.Equal(t, m.cursor, m2.cursor)

	m2, _ = press(m, "d")
	assert.False(t, m2.confirmDelete)

	m2, cmd := press(m, "r")
	assert.Equal(t, stateDeleting, m2.state)
	assert.Nil(t, cmd)
}

func TestCleanFlowTriggersRebuild(t *testing.T) {
	m, root := newBrowser(t)

	m, _ = press(m, "c")
	require.True(t, m.confirmClean)
	m, cmd := press(m, "y")
	require.NotNil(t, cmd)
	assert.Equal(t, stateCleaning, m.state)

	// Run the pipeline worker for real: the fixture junk disappears.
	msg := cmd()
	done, ok := msg.(cleanDoneMsg)
	require.True(t, ok)
	assert.Equal(t, int64(30), done.stats.Bytes())
	assert.NoDirExists(t, filepath.Join(root, "a", "node_modules"))
	assert.NoDirExists(t, filepath.Join(root, "b", "target"))

	// Merging the result always rebuilds: the pipeline bypassed the
	// tree's bookkeeping.
	updated, rebuild := m.Update(msg)
	m = updated.(Model)
	assert.Equal(t, stateScanning, m.state)
	assert.NotNil(t, rebuild)
	assert.Contains(t, m.status, "cleaned")
	assert.Contains(t, m.status, "entries scanned")
}

func TestQuitDuringScanQuitsEvenWhenBuildCompletes(t *testing.T) {
	m, _ := newBrowser(t)
	tr := m.tree

	// Back on the scanning screen, as after pressing r.
	m.state = stateScanning
	m.progress = tree.NewProgress()

	// q requests a cancel, but the build can win the race and deliver
	// a finished tree anyway.
	m, _ = press(m, "q")
	require.True(t, m.quitting)

	updated, cmd := m.Update(treeBuiltMsg{tree: tr})
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRefreshRebuildsTree(t *testing.T) {
	m, _ := newBrowser(t)

	m, cmd := press(m, "r")
	assert.Equal(t, stateScanning, m.state)
	require.NotNil(t, cmd)
}

func TestTreeBuiltResetsVanishedCurrentDir(t *testing.T) {
	m, root := newBrowser(t)
	m, _ = press(m, "enter") // into b

	// Rebuild delivered a tree where b no longer exists.
	require.NoError(t, os.RemoveAll(filepath.Join(root, "b")))
	tr, err := tree.Build(root, m.matcher, 2, tree.NewProgress())
	require.NoError(t, err)

	updated, _ := m.Update(treeBuiltMsg{tree: tr})
	m = updated.(Model)

	assert.Equal(t, root, m.current)
	assert.Empty(t, m.pathStack)
}

func TestViewSmoke(t *testing.T) {
	m, _ := newBrowser(t)
	assert.NotEmpty(t, m.View())

	m.state = stateDeleting
	assert.Contains(t, m.View(), "deleting")

	m.confirmDelete = false
	m.state = stateBrowsing
	m.confirmClean = true
	assert.Contains(t, m.View(), "clean all disposable entries")
}

func TestRenderEntryTruncatesOnRuneBoundary(t *testing.T) {
	m, _ := newBrowser(t)

	e := tree.Entry{Name: strings.Repeat("é", 40), Size: 1, IsDir: false}
	line := m.renderEntry(e, 20, false)

	assert.True(t, utf8.ValidString(line))
	assert.Contains(t, line, "…")
}

func TestStaticTreeOutput(t *testing.T) {
	m, _ := newBrowser(t)

	var buf testWriter
	PrintStaticTree(&buf, m.Tree(), 0)
	out := buf.String()

	assert.Contains(t, out, "node_modules/")
	assert.Contains(t, out, "[temp]")
	assert.Contains(t, out, "35 B")
	assert.NotContains(t, out, tree.ParentName+" ")
}

type testWriter struct{ b []byte }

func (w *testWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

func (w *testWriter) String() string { return string(w.b) }
