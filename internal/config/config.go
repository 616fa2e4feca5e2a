// Package config resolves the disposable-pattern set and retention
// threshold handed to the scan pipeline. Resolution layers, lowest to
// highest priority: built-in defaults, a TOML config file, environment
// variables. The rest of the program treats the result as opaque.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/voidhaven/sweeper/internal/pattern"
)

// DefaultFileName is looked up in the working directory when no
// explicit config path is given.
const DefaultFileName = "sweeper.toml"

// DaysUnset disables the retention filter.
const DaysUnset = -1

// defaultDirectories are the directory names and suffix globs removed
// by default: dependency trees, compiled caches, coverage output.
var defaultDirectories = []string{
	".terraform",
	"target",
	"node_modules",
	"__pycache__",
	".pytest_cache",
	".mypy_cache",
	".tox",
	".ruff_cache",
	"venv",
	".venv",
	".eggs",
	"*.egg-info",
	"dist",
	"build",
	".next",
	".nuxt",
	".turbo",
	".gradle",
	"coverage",
	".coverage",
	"htmlcov",
	".cache",
	".parcel-cache",
}

// defaultFiles are the file names and suffixes removed by default:
// bytecode, OS metadata, editor droppings.
var defaultFiles = []string{
	".pyc",
	".pyo",
	".pyd",
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	".swp",
	".swo",
	"~",
}

// PatternsConfig holds the two ordered pattern lists.
type PatternsConfig struct {
	Directories []string `koanf:"directories"`
	Files       []string `koanf:"files"`
}

// Config is the resolved run configuration.
type Config struct {
	Patterns PatternsConfig `koanf:"patterns"`
	// Days is the retention threshold: disposable directories modified
	// within the last Days days are kept. DaysUnset disables the filter.
	Days int `koanf:"days"`
}

// Load resolves configuration. cfgFile, when non-empty, must exist;
// otherwise sweeper.toml in the working directory is used if present.
func Load(cfgFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"patterns.directories": defaultDirectories,
		"patterns.files":       defaultFiles,
		"days":                 DaysUnset,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	path := cfgFile
	explicit := path != ""
	if !explicit {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			if explicit {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		}
	}

	// SWEEPER_DIRS and SWEEPER_FILES carry comma-separated lists,
	// SWEEPER_DAYS the retention threshold. Highest priority.
	if err := k.Load(env.ProviderWithValue("SWEEPER_", ".", func(key, value string) (string, interface{}) {
		switch key {
		case "SWEEPER_DIRS":
			return "patterns.directories", splitList(value)
		case "SWEEPER_FILES":
			return "patterns.files", splitList(value)
		case "SWEEPER_DAYS":
			return "days", value
		}
		return "", nil
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Days < 0 {
		cfg.Days = DaysUnset
	}
	return &cfg, nil
}

// Matcher builds the pattern matcher for this configuration.
func (c *Config) Matcher() *pattern.Matcher {
	return pattern.NewMatcher(c.Patterns.Directories, c.Patterns.Files)
}

// HasRetention reports whether an age filter is configured.
func (c *Config) HasRetention() bool {
	return c.Days != DaysUnset
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if item := strings.TrimSpace(p); item != "" {
			items = append(items, item)
		}
	}
	return items
}
