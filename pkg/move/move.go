// Package move relocates media files into their destination tree without
// ever overwriting an existing file.
package move

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/quidome/mediasort/pkg/compare"
	"github.com/quidome/mediasort/pkg/plan"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	// ErrDestinationExists is returned when the copy fallback finds its target taken.
	ErrDestinationExists = errors.New("destination file already exists")
)

// Outcome describes how a proposed destination was resolved.
type Outcome string

const (
	// Clear: nothing was at the proposed destination.
	Clear Outcome = "clear"
	// ContentDuplicate: identical content was already there; the file went to the duplicates tree.
	ContentDuplicate Outcome = "duplicate"
	// NameCollisionDistinctContent: a different file had the name; a suffixed name was used.
	NameCollisionDistinctContent Outcome = "renamed"
	// Failed: the move itself failed and the file was left at its source.
	Failed Outcome = "failed"
)

// Result contains the outcome of one Relocate call.
type Result struct {
	Operation plan.Operation
	FinalPath string
	Outcome   Outcome
	Bytes     int64
	Error     error
}

// Moved reports whether the file left its source (or would have, in a dry run).
func (r Result) Moved() bool {
	return r.Outcome != Failed
}

// Options configures a Relocator.
type Options struct {
	// DryRun computes outcomes and final names without creating or moving anything.
	DryRun bool

	Logger *zap.Logger
}

// Relocator moves files to proposed destinations, routing duplicates and
// renaming on collisions. It is safe for concurrent use: collision resolution
// is serialized per destination directory.
type Relocator struct {
	fs     afero.Fs
	cmp    *compare.Comparator
	namer  *plan.Namer
	dirs   *dirLocks
	dryRun bool
	logger *zap.Logger
}

func New(fsys afero.Fs, cmp *compare.Comparator, opts Options) *Relocator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cmp == nil {
		cmp = compare.New(fsys, logger)
	}
	return &Relocator{
		fs:     fsys,
		cmp:    cmp,
		namer:  plan.NewNamer(fsys),
		dirs:   newDirLocks(),
		dryRun: opts.DryRun,
		logger: logger,
	}
}

// Relocate moves src to proposedDest, whose parent directory must already exist.
//
// If proposedDest is free the file goes there. If it holds identical content,
// src goes to duplicatesDir under its own name (suffixed when taken), creating
// duplicatesDir as needed. Otherwise src stays in the destination directory
// under the first free name_N.ext. A failed move leaves src where it is.
func (r *Relocator) Relocate(src, proposedDest, duplicatesDir string) Result {
	res := Result{Operation: plan.Operation{SourcePath: src, DestinationPath: proposedDest}}

	destDir := filepath.Dir(proposedDest)
	r.dirs.Lock(destDir)
	defer r.dirs.Unlock(destDir)

	occupant, taken, err := r.namer.Occupant(proposedDest)
	if err != nil {
		return r.fail(res, err)
	}

	switch {
	case !taken:
		r.namer.Claim(proposedDest, src)
		res.FinalPath = proposedDest
		res.Outcome = Clear

	case r.cmp.AreDuplicates(src, occupant):
		final, err := r.duplicatePath(src, destDir, duplicatesDir)
		if err != nil {
			return r.fail(res, err)
		}
		res.FinalPath = final
		res.Outcome = ContentDuplicate

	default:
		final, err := r.namer.Next(destDir, filepath.Base(proposedDest), src)
		if err != nil {
			return r.fail(res, err)
		}
		res.FinalPath = final
		res.Outcome = NameCollisionDistinctContent
	}

	n, err := r.move(src, res.FinalPath)
	if err != nil {
		r.namer.Release(res.FinalPath)
		return r.fail(res, err)
	}
	res.Bytes = n
	if !r.dryRun {
		// The content now lives at the final path; later comparisons read it there.
		r.namer.Claim(res.FinalPath, res.FinalPath)
	}

	r.logger.Debug("relocated",
		zap.String("source", src),
		zap.String("destination", res.FinalPath),
		zap.String("outcome", string(res.Outcome)),
		zap.Bool("dry_run", r.dryRun))
	return res
}

func (r *Relocator) duplicatePath(src, destDir, duplicatesDir string) (string, error) {
	if duplicatesDir != destDir {
		r.dirs.Lock(duplicatesDir)
		defer r.dirs.Unlock(duplicatesDir)
	}

	if !r.dryRun {
		if err := r.fs.MkdirAll(duplicatesDir, 0o755); err != nil {
			return "", fmt.Errorf("create duplicates directory: %w", err)
		}
	}
	return r.namer.Next(duplicatesDir, filepath.Base(src), src)
}

func (r *Relocator) fail(res Result, err error) Result {
	res.Outcome = Failed
	res.Error = err
	r.logger.Warn("move failed, file left in place",
		zap.String("source", res.Operation.SourcePath),
		zap.String("destination", res.Operation.DestinationPath),
		zap.Error(err))
	return res
}

// move renames src to dst and falls back to copy-and-remove across devices.
// It returns the number of bytes moved.
func (r *Relocator) move(src, dst string) (int64, error) {
	info, err := r.fs.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if r.dryRun {
		return info.Size(), nil
	}

	err = r.fs.Rename(src, dst)
	if err == nil {
		return info.Size(), nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return 0, fmt.Errorf("rename: %w", err)
	}

	if err := r.copyFile(src, dst, info); err != nil {
		return 0, fmt.Errorf("copy file: %w", err)
	}
	if err := r.fs.Remove(src); err != nil {
		// Both copies exist now; keep the source and drop the copy.
		_ = r.fs.Remove(dst)
		return 0, fmt.Errorf("remove source: %w", err)
	}
	return info.Size(), nil
}

// copyFile copies a single file from src to dst, refusing to overwrite dst,
// and carries over the modification time.
func (r *Relocator) copyFile(src, dst string, srcInfo os.FileInfo) error {
	srcFile, err := r.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := r.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		if os.IsExist(err) {
			return ErrDestinationExists
		}
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		_ = r.fs.Remove(dst)
		return fmt.Errorf("copy content: %w", err)
	}
	if err := dstFile.Sync(); err != nil {
		_ = dstFile.Close()
		_ = r.fs.Remove(dst)
		return fmt.Errorf("sync: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		_ = r.fs.Remove(dst)
		return fmt.Errorf("close destination: %w", err)
	}

	mtime := srcInfo.ModTime()
	if err := r.fs.Chtimes(dst, mtime, mtime); err != nil {
		r.logger.Debug("could not preserve modification time", zap.String("path", dst), zap.Error(err))
	}
	return nil
}
