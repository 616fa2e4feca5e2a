package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voidhaven/sweeper/internal/config"
)

var (
	// Global flags
	debug    bool
	cfgFile  string
	threads  int
	daysFlag int

	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "sweeper",
	Short: "Find and remove disposable build artifacts",
	Long: `Sweeper - find and remove disposable build artifacts.

Scans directory trees in parallel for dependency directories, compiled
caches, coverage output, and editor temp files (node_modules, target,
__pycache__, .DS_Store, ...), deletes them in bulk, and offers an
interactive size-ranked browser for manual inspection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Show detailed operation logs")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().IntVarP(&threads, "threads", "j", 0, "Worker count (default: number of CPU cores)")
	rootCmd.PersistentFlags().IntVar(&daysFlag, "days", -1, "Only remove directories untouched for N days")

	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves patterns and retention, applying the --days flag
// on top of file and environment settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("days") && daysFlag >= 0 {
		cfg.Days = daysFlag
	}
	return cfg, nil
}

// newLogger returns the debug logger, or a discarding one by default.
func newLogger() *slog.Logger {
	if debug {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}

// resolveRoot validates the target directory. Fatal on a missing or
// non-directory path, checked once before any work starts.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("target does not exist: %s", root)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("target is not a directory: %s", root)
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs, nil
	}
	return filepath.Clean(root), nil
}
