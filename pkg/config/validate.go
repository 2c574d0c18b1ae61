package config

import (
	"errors"
	"fmt"

	"github.com/quidome/mediasort/pkg/plan"
)

// Validate ensures the configuration is usable for a sort run.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExtensions(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	named := []struct {
		key  string
		path string
	}{
		{"paths.source", c.Paths.Source},
		{"paths.photo_dest", c.Paths.PhotoDest},
		{"paths.video_dest", c.Paths.VideoDest},
		{"paths.duplicates_root", c.Paths.DuplicatesRoot},
	}
	for _, n := range named {
		if n.path == "" {
			return fmt.Errorf("%s must be set", n.key)
		}
	}

	seen := make(map[string]string, len(named))
	for _, n := range named {
		if other, ok := seen[n.path]; ok {
			return fmt.Errorf("%s and %s point to the same folder %s", other, n.key, n.path)
		}
		seen[n.path] = n.key
	}

	for _, n := range named[1:] {
		if plan.Within(c.Paths.Source, n.path) {
			return fmt.Errorf("%s (%s) must not be inside paths.source (%s)", n.key, n.path, c.Paths.Source)
		}
		if plan.Within(n.path, c.Paths.Source) {
			return fmt.Errorf("paths.source (%s) must not be inside %s (%s)", c.Paths.Source, n.key, n.path)
		}
	}
	return nil
}

func (c *Config) validateExtensions() error {
	if len(c.Extensions.Photo) == 0 && len(c.Extensions.Video) == 0 {
		return errors.New("extensions.photo and extensions.video cannot both be empty")
	}
	for _, p := range c.Extensions.Photo {
		for _, v := range c.Extensions.Video {
			if p == v {
				return fmt.Errorf("extension %s is listed as both photo and video", p)
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}
