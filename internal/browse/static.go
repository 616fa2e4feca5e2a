package browse

import (
	"fmt"
	"io"

	"github.com/voidhaven/sweeper/internal/tree"
	"github.com/voidhaven/sweeper/internal/ui"
)

// maxStaticEntries caps entries printed per level so huge directories
// stay readable in the plain fallback.
const maxStaticEntries = 20

// PrintStaticTree renders the size-ranked tree as plain text. Used
// when stdout is not a terminal and the interactive browser cannot run.
func PrintStaticTree(w io.Writer, t *tree.Tree, maxDepth int) {
	if t == nil {
		fmt.Fprintln(w, "  no data to display")
		return
	}

	fmt.Fprintf(w, "  %s  %s\n\n", t.Root(), ui.FormatSize(t.TotalSize()))
	printStaticLevel(w, t, t.Root(), "", 1, maxDepth)
	fmt.Fprintf(w, "\n  total: %s\n", ui.FormatSize(t.TotalSize()))
}

func printStaticLevel(w io.Writer, t *tree.Tree, dir, prefix string, depth, maxDepth int) {
	if maxDepth > 0 && depth > maxDepth {
		return
	}

	entries := t.Children(dir)
	// Strip the navigation entry; it means nothing on paper.
	kids := entries[:0:0]
	for _, e := range entries {
		if e.Name != tree.ParentName {
			kids = append(kids, e)
		}
	}

	shown := kids
	if len(shown) > maxStaticEntries {
		shown = shown[:maxStaticEntries]
	}

	for i, e := range shown {
		connector, childPrefix := "+-- ", "|   "
		if i == len(shown)-1 && len(kids) <= maxStaticEntries {
			connector, childPrefix = "\\-- ", "    "
		}

		marker := ""
		if e.IsDir {
			marker = "/"
		}
		if e.IsTemp {
			marker += "  [temp]"
		}
		fmt.Fprintf(w, "  %s%s%s%s  %s\n", prefix, connector, e.Name, marker, ui.FormatSize(e.Size))

		if e.IsDir {
			printStaticLevel(w, t, e.Path, prefix+childPrefix, depth+1, maxDepth)
		}
	}

	if rest := len(kids) - maxStaticEntries; rest > 0 {
		fmt.Fprintf(w, "  %s\\-- ... and %d more entries\n", prefix, rest)
	}
}
