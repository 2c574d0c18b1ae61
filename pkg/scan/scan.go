package scan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Kind is the media category of a file, derived from its extension.
type Kind int

const (
	Ignored Kind = iota
	Photo
	Video
)

// String returns the directory name used for the kind under the duplicates root.
func (k Kind) String() string {
	switch k {
	case Photo:
		return "Photo"
	case Video:
		return "Video"
	default:
		return "Ignored"
	}
}

type Options struct {
	PhotoExtensions []string
	VideoExtensions []string
}

func DefaultOptions() Options {
	return Options{
		PhotoExtensions: []string{
			".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".heic", ".webp",
		},
		VideoExtensions: []string{
			".mp4", ".mov", ".m4v", ".avi", ".mkv", ".wmv", ".flv", ".3gp", ".mts", ".webm",
		},
	}
}

// Classify maps a filename to its Kind by extension, case-insensitively.
// Names without a known extension are Ignored.
func (o Options) Classify(name string) Kind {
	return newClassifier(o).classify(name)
}

// Classify uses the default extension sets.
func Classify(name string) Kind {
	return DefaultOptions().Classify(name)
}

type Record struct {
	Path          string    `json:"path"`
	Name          string    `json:"name"`
	Kind          Kind      `json:"kind"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	ModTime       time.Time `json:"mod_time"`
}

// WalkFunc receives every file found by Walk. Returning an error stops the walk.
type WalkFunc func(rec Record) error

// Walk visits every non-directory entry below root in lexical order,
// Ignored files included. Paths handed to fn are joined onto root.
func Walk(fsys afero.Fs, root string, opts Options, fn WalkFunc) error {
	c := newClassifier(opts)

	return afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Entries removed by someone else while walking are skipped.
			if path != root && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}

		return fn(Record{
			Path:          path,
			Name:          info.Name(),
			Kind:          c.classify(info.Name()),
			FileSizeBytes: info.Size(),
			ModTime:       info.ModTime(),
		})
	})
}

// ScanRecords returns the media files below root, sorted by path.
// Ignored files are left out.
func ScanRecords(fsys afero.Fs, root string, opts Options) ([]Record, error) {
	var matches []Record

	err := Walk(fsys, root, opts, func(rec Record) error {
		if rec.Kind == Ignored {
			return nil
		}
		matches = append(matches, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Path < matches[j].Path
	})
	return matches, nil
}

type classifier struct {
	photo map[string]bool
	video map[string]bool
}

func newClassifier(opts Options) classifier {
	return classifier{
		photo: normalizeExts(opts.PhotoExtensions),
		video: normalizeExts(opts.VideoExtensions),
	}
}

func (c classifier) classify(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == "":
		return Ignored
	case c.photo[ext]:
		return Photo
	case c.video[ext]:
		return Video
	default:
		return Ignored
	}
}

func normalizeExts(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, ext := range exts {
		e := strings.TrimSpace(strings.ToLower(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = true
	}
	return m
}
