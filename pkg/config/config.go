// Package config loads mediasort settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/quidome/mediasort/pkg/scan"
)

const defaultConfigPath = "~/.config/mediasort/config.toml"

// Paths holds the four roots of a sort run.
type Paths struct {
	Source         string `toml:"source"`
	PhotoDest      string `toml:"photo_dest"`
	VideoDest      string `toml:"video_dest"`
	DuplicatesRoot string `toml:"duplicates_root"`
}

// Extensions lists the file extensions treated as photos and videos.
type Extensions struct {
	Photo []string `toml:"photo"`
	Video []string `toml:"video"`
}

// Resolve tunes how the capture year is determined.
type Resolve struct {
	// FilenameDates enables year detection from names like IMG_20200101_120000.jpg
	// when embedded metadata is missing.
	FilenameDates bool `toml:"filename_dates"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Paths      Paths      `toml:"paths"`
	Extensions Extensions `toml:"extensions"`
	Resolve    Resolve    `toml:"resolve"`
	Logging    Logging    `toml:"logging"`
}

// Default returns a config with the built-in extension sets and console logging at info.
// Paths are left empty.
func Default() Config {
	exts := scan.DefaultOptions()
	return Config{
		Extensions: Extensions{
			Photo: exts.PhotoExtensions,
			Video: exts.VideoExtensions,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates and parses a configuration file. A missing file yields the defaults.
// The returned path is where the config was (or would have been) read from, and the
// bool reports whether it existed.
//
// Paths are expanded but not required; call Validate once command line overrides
// have been applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.validateLogging(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// OverridePaths replaces the configured roots with the given ones, expanding each.
func (c *Config) OverridePaths(source, photoDest, videoDest, duplicatesRoot string) error {
	c.Paths = Paths{
		Source:         source,
		PhotoDest:      photoDest,
		VideoDest:      videoDest,
		DuplicatesRoot: duplicatesRoot,
	}
	return c.normalizePaths()
}

// ScanOptions returns the extension sets in the form the scanner takes.
func (c *Config) ScanOptions() scan.Options {
	return scan.Options{
		PhotoExtensions: c.Extensions.Photo,
		VideoExtensions: c.Extensions.Video,
	}
}

// resolveConfigPath returns the explicit path when given, else the first of
// the per-user and working-directory files that exists, else the per-user path.
func resolveConfigPath(path string) (string, bool, error) {
	candidates := []string{defaultConfigPath, "mediasort.toml"}
	if path != "" {
		candidates = []string{path}
	}

	var fallback string
	for _, candidate := range candidates {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if fallback == "" {
			fallback = expanded
		}

		info, err := os.Stat(expanded)
		switch {
		case err == nil && (path != "" || !info.IsDir()):
			return expanded, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return fallback, false, nil
}

// expandPath resolves a leading ~ and makes the path absolute.
func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		pathValue = filepath.Join(home, strings.TrimPrefix(pathValue, "~"))
	}
	absolute, err := filepath.Abs(pathValue)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
