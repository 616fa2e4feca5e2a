package cmd

import (
	"fmt"
	"os"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/voidhaven/sweeper/internal/browse"
	"github.com/voidhaven/sweeper/internal/tree"
)

var staticDepth int

var browseCmd = &cobra.Command{
	Use:   "browse [path]",
	Short: "Explore disk usage interactively",
	Long: `Builds a size-annotated index of the target tree in one parallel pass,
then opens a browser ranking entries by aggregate size. Disposable
matches are highlighted; single entries or whole subtrees can be
deleted without leaving the browser.

When stdout is not a terminal, a plain-text tree is printed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().IntVar(&staticDepth, "depth", 0, "Maximum depth for the non-interactive tree (0 = unlimited)")
}

func runBrowse(cmd *cobra.Command, args []string) error {
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

	// No terminal: print the tree and get out of the way.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		t, err := tree.Build(root, cfg.Matcher(), workers, tree.NewProgress())
		if err != nil {
			return err
		}
		browse.PrintStaticTree(os.Stdout, t, staticDepth)
		return nil
	}

	m := browse.New(root, cfg, workers)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("browser error: %w", err)
	}
	if fm, ok := final.(browse.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}
