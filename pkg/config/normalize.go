package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtensions()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.Source, err = expandPath(c.Paths.Source); err != nil {
		return fmt.Errorf("paths.source: %w", err)
	}
	if c.Paths.PhotoDest, err = expandPath(c.Paths.PhotoDest); err != nil {
		return fmt.Errorf("paths.photo_dest: %w", err)
	}
	if c.Paths.VideoDest, err = expandPath(c.Paths.VideoDest); err != nil {
		return fmt.Errorf("paths.video_dest: %w", err)
	}
	if c.Paths.DuplicatesRoot, err = expandPath(c.Paths.DuplicatesRoot); err != nil {
		return fmt.Errorf("paths.duplicates_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtensions() {
	c.Extensions.Photo = normalizeExtList(c.Extensions.Photo)
	c.Extensions.Video = normalizeExtList(c.Extensions.Video)
}

func normalizeExtList(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		e := strings.ToLower(strings.TrimSpace(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
