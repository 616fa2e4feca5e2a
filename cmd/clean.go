package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/mattn/go-isatty"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/spf13/cobra"

	"github.com/voidhaven/sweeper/internal/scan"
	"github.com/voidhaven/sweeper/internal/sweep"
	"github.com/voidhaven/sweeper/internal/ui"
)

var (
	dryRun  bool
	verbose bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Scan for disposable artifacts and delete them",
	Long: `Walks the target tree in parallel, matches disposable directories and
files against the configured pattern set, and removes them. Deletion
overlaps scanning: early matches are removed while later subtrees are
still being discovered.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report what would be deleted without deleting")
	cleanCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every matched path before acting")
}

func runClean(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	workers := threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := newLogger()
	matcher := cfg.Matcher()

	printCleanHeader(root, cfg.Days, workers, matcher.DirectoryPatterns(), matcher.FilePatterns())

	stats := scan.NewStats()
	scanner := scan.NewScanner(root, workers, matcher, cfg.Days)
	scanner.SetLogger(logger)
	deleter := sweep.NewDeleter(stats, dryRun, verbose)
	deleter.SetLogger(logger)

	start := time.Now()
	results := make(chan scan.Result, 1024)
	scanned := make(chan int64, 1)
	go func() { scanned <- scanner.Scan(results) }()

	stop := make(chan struct{})
	cleared := make(chan struct{})
	if isatty.IsTerminal(os.Stdout.Fd()) {
		go func() {
			defer close(cleared)
			showScanProgress(os.Stdout, scanner, stop)
		}()
	} else {
		close(cleared)
	}

	deleter.Process(results)
	total := <-scanned
	close(stop)
	<-cleared

	printCleanSummary(root, stats, total, time.Since(start))
	return nil
}

// showScanProgress repaints a single status line from the scanner's
// live counter until stopped, then clears the line.
func showScanProgress(w io.Writer, s *scan.Scanner, stop <-chan struct{}) {
	frames := spinner.Dot.Frames
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-stop:
			fmt.Fprint(w, "\r\033[K")
			return
		case <-ticker.C:
			fmt.Fprintf(w, "\r  %s scanning... %d entries",
				ui.TitleStyle.Render(frames[i%len(frames)]), s.Scanned())
		}
	}
}

func printCleanHeader(root string, days, workers int, dirPatterns, filePatterns []string) {
	fmt.Println()
	fmt.Println(ui.TitleStyle.Render("  " + ui.IconDiamond + " sweeper clean"))
	if dryRun {
		fmt.Println(ui.WarningStyle.Render("  mode: dry run (nothing will be deleted)"))
	} else {
		fmt.Println(ui.DangerStyle.Render("  mode: live (matches are permanently deleted)"))
	}
	fmt.Printf("  target:  %s\n", root)
	fmt.Printf("  workers: %d\n", workers)
	if days >= 0 {
		fmt.Printf("  keep:    anything modified within %d days\n", days)
	}
	fmt.Println(ui.DimStyle.Render("  dirs:    " + strings.Join(dirPatterns, ", ")))
	fmt.Println(ui.DimStyle.Render("  files:   " + strings.Join(filePatterns, ", ")))
	fmt.Println()
}

func printCleanSummary(root string, stats *scan.Stats, scanned int64, elapsed time.Duration) {
	verb := "deleted"
	style := ui.SuccessStyle
	if dryRun {
		verb = "would delete"
		style = ui.WarningStyle
	}

	fmt.Println()
	fmt.Println(style.Render(fmt.Sprintf("  %s %d directories, %d files", verb, stats.Dirs(), stats.Files())))
	fmt.Println(style.Render(fmt.Sprintf("  freed %s", ui.FormatSize(stats.Bytes()))))
	if stats.Errors() > 0 {
		fmt.Println(ui.DangerStyle.Render(fmt.Sprintf("  %d errors (permission denied or in use)", stats.Errors())))
	}
	fmt.Println(ui.DimStyle.Render(fmt.Sprintf("  scanned %d entries in %s", scanned, elapsed.Round(time.Millisecond))))
	if usage, err := disk.Usage(root); err == nil {
		fmt.Println(ui.DimStyle.Render(fmt.Sprintf("  disk free: %s of %s",
			ui.FormatSize(int64(usage.Free)), ui.FormatSize(int64(usage.Total)))))
	}
	fmt.Println()
}
