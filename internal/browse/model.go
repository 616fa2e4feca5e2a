// Package browse is the interactive size-ranked browser over the
// directory tree: instant navigation from the in-memory index, with
// deletions and subtree cleans running as polled background workers.
package browse

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shirou/gopsutil/v4/disk"

	"github.com/voidhaven/sweeper/internal/config"
	"github.com/voidhaven/sweeper/internal/pattern"
	"github.com/voidhaven/sweeper/internal/scan"
	"github.com/voidhaven/sweeper/internal/sweep"
	"github.com/voidhaven/sweeper/internal/tree"
	"github.com/voidhaven/sweeper/internal/ui"
)

// opState tracks the single-flight guard: exactly one of these holds
// at any time. While busy, navigation and new mutating requests are
// rejected but redraw continues.
type opState int

const (
	stateScanning opState = iota // tree build in flight
	stateBrowsing                // idle
	stateDeleting                // single-item delete in flight
	stateCleaning                // subtree clean in flight
)

type sortMode int

const (
	sortBySize sortMode = iota // default: directories first, size descending
	sortByName
)

// progressTickMsg drives the scanning screen refresh.
type progressTickMsg time.Time

// treeBuiltMsg delivers a finished (or failed) background build.
type treeBuiltMsg struct {
	tree *tree.Tree
	err  error
}

// deleteDoneMsg delivers a finished background single-item delete.
type deleteDoneMsg struct {
	path  string
	isDir bool
	size  int64
	err   error
}

// cleanDoneMsg delivers a finished background subtree clean.
type cleanDoneMsg struct {
	stats   *scan.Stats
	scanned int64
}

// Model is the bubbletea model for the browser. The tree is owned by
// the update loop alone; background workers act on filesystem paths
// and report back through messages, so the tree needs no locking.
type Model struct {
	root    string
	cfg     *config.Config
	matcher *pattern.Matcher
	workers int

	tree      *tree.Tree
	current   string
	pathStack []string
	entries   []tree.Entry
	cursor    int
	offset    int
	sort      sortMode

	state         opState
	confirmDelete bool
	confirmClean  bool
	status        string
	fatal         error
	quitting      bool

	progress *tree.Progress
	spin     spinner.Model
	diskFree int64

	width  int
	height int
}

// New creates a browser that builds its tree on startup.
func New(root string, cfg *config.Config, workers int) Model {
	m := newModel(root, cfg, workers)
	m.state = stateScanning
	m.progress = tree.NewProgress()
	return m
}

// NewWithTree creates a browser over an already-built tree. Used by
// tests and by callers that pre-scan before entering the TUI.
func NewWithTree(root string, cfg *config.Config, workers int, t *tree.Tree) Model {
	m := newModel(root, cfg, workers)
	m.tree = t
	m.state = stateBrowsing
	m.loadCurrent()
	return m
}

func newModel(root string, cfg *config.Config, workers int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.TitleStyle

	var free int64
	if usage, err := disk.Usage(root); err == nil {
		free = int64(usage.Free)
	}

	return Model{
		root:     filepath.Clean(root),
		cfg:      cfg,
		matcher:  cfg.Matcher(),
		workers:  workers,
		current:  filepath.Clean(root),
		spin:     sp,
		diskFree: free,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	if m.state == stateScanning {
		return tea.Batch(m.spin.Tick, m.buildTreeCmd(), tickCmd())
	}
	return m.spin.Tick
}

// ─── Commands (background workers) ───────────────────────────────────

func (m Model) buildTreeCmd() tea.Cmd {
	root, matcher, workers, progress := m.root, m.matcher, m.workers, m.progress
	return func() tea.Msg {
		t, err := tree.Build(root, matcher, workers, progress)
		return treeBuiltMsg{tree: t, err: err}
	}
}

func deleteCmd(e tree.Entry) tea.Cmd {
	return func() tea.Msg {
		var err error
		if e.IsDir {
			err = os.RemoveAll(e.Path)
		} else {
			err = os.Remove(e.Path)
		}
		return deleteDoneMsg{path: e.Path, isDir: e.IsDir, size: e.Size, err: err}
	}
}

// cleanCmd runs the scan-delete pipeline rooted at path against the
// live filesystem, bypassing the in-memory tree entirely. The caller
// must rebuild the tree afterwards.
func (m Model) cleanCmd(path string) tea.Cmd {
	matcher, days, workers := m.matcher, m.cfg.Days, m.workers
	return func() tea.Msg {
		stats := scan.NewStats()
		scanner := scan.NewScanner(path, workers, matcher, days)
		deleter := sweep.NewDeleter(stats, false, false)

		ch := make(chan scan.Result, 256)
		scanned := make(chan int64, 1)
		go func() { scanned <- scanner.Scan(ch) }()
		deleter.Process(ch)
		return cleanDoneMsg{stats: stats, scanned: <-scanned}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTickMsg(t)
	})
}

// ─── Update ──────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progressTickMsg:
		if m.state == stateScanning {
			return m, tickCmd()
		}
		return m, nil

	case treeBuiltMsg:
		return m.onTreeBuilt(msg)

	case deleteDoneMsg:
		return m.onDeleteDone(msg)

	case cleanDoneMsg:
		return m.onCleanDone(msg)

	case tea.KeyMsg:
		return m.onKey(msg)
	}

	return m, nil
}

func (m Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.state == stateScanning {
		if key == "q" || key == "esc" || key == "ctrl+c" {
			m.progress.RequestCancel()
			m.quitting = true
		}
		return m, nil
	}

	// Busy: the worker owns the filesystem, the loop only redraws.
	if m.state == stateDeleting || m.state == stateCleaning {
		if key == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	if m.confirmDelete {
		switch key {
		case "y", "Y":
			m.confirmDelete = false
			return m.fireDelete()
		default:
			m.confirmDelete = false
		}
		return m, nil
	}

	if m.confirmClean {
		switch key {
		case "y", "Y":
			m.confirmClean = false
			return m.fireClean()
		default:
			m.confirmClean = false
		}
		return m, nil
	}

	switch key {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.ensureVisible()
		}
		m.status = ""

	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
			m.ensureVisible()
		}
		m.status = ""

	case "g", "home":
		m.cursor = 0
		m.offset = 0

	case "G", "end":
		if len(m.entries) > 0 {
			m.cursor = len(m.entries) - 1
			m.ensureVisible()
		}

	case "enter", "right", "l":
		m.enter()

	case "left", "h", "backspace":
		m.goBack()

	case "s":
		m.toggleSort()

	case "r":
		return m.fireRebuild("")

	case "d":
		if e, ok := m.selected(); ok && e.Name != tree.ParentName {
			m.confirmDelete = true
		}

	case "c":
		m.confirmClean = true
	}

	return m, nil
}

// ─── Message handlers ────────────────────────────────────────────────

func (m Model) onTreeBuilt(msg treeBuiltMsg) (tea.Model, tea.Cmd) {
	// A quit may race the build: the cancel flag is polled, so a build
	// can still complete after q. Honor the quit either way.
	if m.quitting {
		return m, tea.Quit
	}
	if msg.err != nil {
		m.fatal = msg.err
		return m, tea.Quit
	}
	m.tree = msg.tree
	m.state = stateBrowsing

	// The current directory may have vanished across a rebuild.
	if m.current != m.root && len(m.tree.Children(m.current)) == 0 {
		m.current = m.root
		m.pathStack = nil
	}
	m.loadCurrent()
	return m, nil
}

func (m Model) onDeleteDone(msg deleteDoneMsg) (tea.Model, tea.Cmd) {
	m.state = stateBrowsing
	if msg.err != nil {
		// Tree untouched; the browser stays usable.
		m.status = ui.DangerStyle.Render("delete failed: " + msg.err.Error())
		return m, nil
	}

	m.tree.DeleteEntry(msg.path, msg.isDir)
	m.status = "deleted " + filepath.Base(msg.path) + " (" + ui.FormatSize(msg.size) + " freed)"

	// Reload and keep the cursor on the logical row.
	cursor := m.cursor
	m.loadCurrent()
	if cursor >= len(m.entries) {
		cursor = len(m.entries) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	m.cursor = cursor
	m.ensureVisible()
	return m, nil
}

func (m Model) onCleanDone(msg cleanDoneMsg) (tea.Model, tea.Cmd) {
	status := "cleaned: " + ui.FormatSize(msg.stats.Bytes()) + " freed, " +
		strconv.FormatInt(msg.scanned, 10) + " entries scanned"
	if errs := msg.stats.Errors(); errs > 0 {
		status += ui.DangerStyle.Render(" (" + strconv.FormatInt(errs, 10) + " errors)")
	}
	// The pipeline bypassed the tree's bookkeeping: rebuild wholesale.
	return m.fireRebuild(status)
}

// ─── State transitions ───────────────────────────────────────────────

func (m Model) fireDelete() (tea.Model, tea.Cmd) {
	e, ok := m.selected()
	if !ok || e.Name == tree.ParentName {
		return m, nil
	}
	m.state = stateDeleting
	m.status = ""
	return m, deleteCmd(e)
}

func (m Model) fireClean() (tea.Model, tea.Cmd) {
	m.state = stateCleaning
	m.status = ""
	return m, m.cleanCmd(m.current)
}

func (m Model) fireRebuild(status string) (tea.Model, tea.Cmd) {
	m.state = stateScanning
	m.status = status
	m.progress = tree.NewProgress()
	return m, tea.Batch(m.buildTreeCmd(), tickCmd())
}

// ─── Navigation ──────────────────────────────────────────────────────

func (m *Model) loadCurrent() {
	m.entries = m.tree.Children(m.current)
	m.applySort()
	m.cursor = 0
	m.offset = 0
	m.confirmDelete = false
	m.confirmClean = false
}

func (m *Model) applySort() {
	switch m.sort {
	case sortByName:
		tree.SortByName(m.entries)
	default:
		tree.SortBySize(m.entries)
	}
}

func (m *Model) enter() {
	e, ok := m.selected()
	if !ok || !e.IsDir {
		return
	}
	if e.Name == tree.ParentName {
		m.goBack()
		return
	}
	m.pathStack = append(m.pathStack, m.current)
	m.current = e.Path
	m.loadCurrent()
	m.status = ""
}

// goBack pops the navigation stack and re-selects the directory we
// just left, when it still exists in the parent listing.
func (m *Model) goBack() {
	if len(m.pathStack) == 0 {
		return
	}
	exited := m.current
	m.current = m.pathStack[len(m.pathStack)-1]
	m.pathStack = m.pathStack[:len(m.pathStack)-1]
	m.loadCurrent()
	for i, e := range m.entries {
		if e.Name != tree.ParentName && e.Path == exited {
			m.cursor = i
			break
		}
	}
	m.ensureVisible()
	m.status = ""
}

func (m *Model) toggleSort() {
	if m.sort == sortBySize {
		m.sort = sortByName
	} else {
		m.sort = sortBySize
	}
	selected := ""
	if e, ok := m.selected(); ok {
		selected = e.Path
	}
	m.applySort()
	m.cursor = 0
	for i, e := range m.entries {
		if e.Path == selected && e.Name != tree.ParentName {
			m.cursor = i
			break
		}
	}
	m.ensureVisible()
}

func (m Model) selected() (tree.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return tree.Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *Model) ensureVisible() {
	vh := m.viewportHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+vh {
		m.offset = m.cursor - vh + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) viewportHeight() int {
	h := m.height - 8 // header + footer + borders
	if h < 1 {
		h = 1
	}
	return h
}

// Err returns the fatal error that terminated the browser, if any.
func (m Model) Err() error { return m.fatal }

// Tree exposes the current tree, for the static fallback renderer.
func (m Model) Tree() *tree.Tree { return m.tree }
