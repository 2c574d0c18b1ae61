// Package census counts files below the directories a sort run touches.
//
// Counts are taken before and after a run so the caller can verify that
// every file that left the source tree arrived in one of the destination trees.
package census

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// Count returns the number of non-directory entries below root, recursively.
// A root that does not exist counts as zero.
func Count(fsys afero.Fs, root string) (int, error) {
	if _, err := fsys.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat %s: %w", root, err)
	}

	total := 0
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", root, err)
	}
	return total, nil
}

// Roots names the four directories of a sort run.
type Roots struct {
	Source     string
	Photo      string
	Video      string
	Duplicates string
}

// Snapshot holds the file count of each root at one point in time.
type Snapshot struct {
	Source     int `json:"source"`
	Photo      int `json:"photo"`
	Video      int `json:"video"`
	Duplicates int `json:"duplicates"`
}

// Sorted is the number of files in the three destination trees.
func (s Snapshot) Sorted() int {
	return s.Photo + s.Video + s.Duplicates
}

// Take counts all four roots.
func Take(fsys afero.Fs, roots Roots) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Source, err = Count(fsys, roots.Source); err != nil {
		return Snapshot{}, err
	}
	if snap.Photo, err = Count(fsys, roots.Photo); err != nil {
		return Snapshot{}, err
	}
	if snap.Video, err = Count(fsys, roots.Video); err != nil {
		return Snapshot{}, err
	}
	if snap.Duplicates, err = Count(fsys, roots.Duplicates); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Delta returns after minus before for every root.
func Delta(before, after Snapshot) Snapshot {
	return Snapshot{
		Source:     after.Source - before.Source,
		Photo:      after.Photo - before.Photo,
		Video:      after.Video - before.Video,
		Duplicates: after.Duplicates - before.Duplicates,
	}
}
