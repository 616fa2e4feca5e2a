// Package sweep consumes the scan stream and removes matches from the
// filesystem, accumulating shared statistics.
package sweep

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/voidhaven/sweeper/internal/scan"
	"github.com/voidhaven/sweeper/internal/ui"
)

// batchSize trades dispatch overhead against parallel granularity.
// Batches carry no ordering or atomicity guarantee.
const batchSize = 64

// Deleter drains scan results in fixed-size batches and deletes each
// batch in parallel. Dry-run performs no mutation but produces the
// same statistics a live run would.
type Deleter struct {
	stats   *scan.Stats
	dryRun  bool
	verbose bool
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
}

// NewDeleter wires a deleter to the given per-run statistics.
func NewDeleter(stats *scan.Stats, dryRun, verbose bool) *Deleter {
	return &Deleter{
		stats:   stats,
		dryRun:  dryRun,
		verbose: verbose,
		out:     os.Stdout,
		errOut:  os.Stderr,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetOutput redirects verbose per-item lines and error reports.
func (d *Deleter) SetOutput(out, errOut io.Writer) {
	if out != nil {
		d.out = out
	}
	if errOut != nil {
		d.errOut = errOut
	}
}

// SetLogger installs a debug logger. The default discards.
func (d *Deleter) SetLogger(l *slog.Logger) {
	if l != nil {
		d.logger = l
	}
}

// Process consumes the stream until it closes. Deletion overlaps
// ongoing discovery: early batches run while the scanner is still
// finding later subtrees.
func (d *Deleter) Process(in <-chan scan.Result) {
	batch := make([]scan.Result, 0, batchSize)

	for item := range in {
		batch = append(batch, item)
		if len(batch) >= batchSize {
			d.processBatch(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		d.processBatch(batch)
	}
}

func (d *Deleter) processBatch(batch []scan.Result) {
	g := new(errgroup.Group)
	for _, item := range batch {
		g.Go(func() error {
			d.deleteItem(item)
			return nil
		})
	}
	// Workers never return errors; failures are counted per item.
	_ = g.Wait()
}

// deleteItem removes a single entry. Directory accounting is exact:
// a read-only walk counts contained files and bytes before removal,
// and the identical figures feed dry-run and live paths.
func (d *Deleter) deleteItem(item scan.Result) {
	files, size := int64(0), item.Size
	if item.IsDir {
		files, size = dirContents(item.Path)
	}

	if d.verbose {
		kind := "FILE"
		if item.IsDir {
			kind = "DIR "
		}
		fmt.Fprintf(d.out, "[%s] %s (%s)\n", kind, item.Path, ui.FormatSize(size))
	}

	if d.dryRun {
		d.account(item.IsDir, files, size)
		return
	}

	var err error
	if item.IsDir {
		err = os.RemoveAll(item.Path)
	} else {
		err = os.Remove(item.Path)
	}
	if err != nil {
		// Permission denied, busy, already gone: count it, report it,
		// keep going. No retries.
		d.stats.AddError()
		d.logger.Warn("delete failed", "path", item.Path, "err", err)
		fmt.Fprintf(d.errOut, "%s %s: %v\n", ui.DangerStyle.Render("error deleting"), item.Path, err)
		return
	}
	d.account(item.IsDir, files, size)
}

func (d *Deleter) account(isDir bool, files, size int64) {
	if isDir {
		d.stats.AddDir()
		d.stats.AddFiles(files)
	} else {
		d.stats.AddFiles(1)
	}
	d.stats.AddBytes(size)
}

// dirContents counts the files and bytes inside a directory without
// mutating anything. Unreadable entries are skipped.
func dirContents(path string) (files, bytes int64) {
	_ = filepath.WalkDir(path, func(_ string, e fs.DirEntry, err error) error {
		if err != nil {
			if e != nil && e.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if e.IsDir() {
			return nil
		}
		info, err := e.Info()
		if err != nil {
			return nil
		}
		files++
		bytes += info.Size()
		return nil
	})
	return files, bytes
}
