// Package sorter runs the classify, resolve-year, relocate pipeline over a
// source tree and reports what happened.
package sorter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/quidome/mediasort/pkg/census"
	"github.com/quidome/mediasort/pkg/compare"
	"github.com/quidome/mediasort/pkg/createdat"
	"github.com/quidome/mediasort/pkg/move"
	"github.com/quidome/mediasort/pkg/plan"
	"github.com/quidome/mediasort/pkg/scan"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	// ErrSourceMissing is returned when the source root does not exist or is not a directory.
	ErrSourceMissing = errors.New("source folder does not exist")
	// ErrOverlappingFolders is returned when a destination root is the source root,
	// lies inside it, or contains it.
	ErrOverlappingFolders = errors.New("source and destination folders overlap")
)

// Config names the four roots of a run. The destination roots must lie
// outside the source tree, or sorted files would be walked again.
type Config struct {
	SourceFolder    string
	PhotoDestFolder string
	VideoDestFolder string
	DuplicatesRoot  string
}

func (c Config) checkOverlap() error {
	src := filepath.Clean(c.SourceFolder)
	for _, dest := range []string{c.PhotoDestFolder, c.VideoDestFolder, c.DuplicatesRoot} {
		dest = filepath.Clean(dest)
		if dest == src || plan.Within(src, dest) || plan.Within(dest, src) {
			return fmt.Errorf("%w: %s and %s", ErrOverlappingFolders, c.SourceFolder, dest)
		}
	}
	return nil
}

func (c Config) roots() census.Roots {
	return census.Roots{
		Source:     c.SourceFolder,
		Photo:      c.PhotoDestFolder,
		Video:      c.VideoDestFolder,
		Duplicates: c.DuplicatesRoot,
	}
}

// FileEvent is handed to Options.OnFile after each walked file.
type FileEvent struct {
	Record scan.Record
	Year   int
	Result move.Result
	Status Status
}

// Status is the fate of one walked file.
type Status string

const (
	StatusMoved      Status = "moved"
	StatusIgnored    Status = "ignored"
	StatusUnresolved Status = "unresolved"
	StatusFailed     Status = "failed"
)

// Options configures a Sorter.
type Options struct {
	Scan    scan.Options
	Resolve createdat.Options
	DryRun  bool
	Logger  *zap.Logger

	// OnFile, if set, is called synchronously after each file.
	OnFile func(FileEvent)
}

// Sorter processes one source tree, one file at a time.
type Sorter struct {
	fs       afero.Fs
	cfg      Config
	opts     Options
	resolver *createdat.Resolver
	logger   *zap.Logger
}

func New(fsys afero.Fs, cfg Config, opts Options) *Sorter {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resolveOpts := opts.Resolve
	if resolveOpts.Logger == nil {
		resolveOpts.Logger = logger
	}
	if len(opts.Scan.PhotoExtensions) == 0 && len(opts.Scan.VideoExtensions) == 0 {
		opts.Scan = scan.DefaultOptions()
	}
	return &Sorter{
		fs:       fsys,
		cfg:      cfg,
		opts:     opts,
		resolver: createdat.NewResolver(resolveOpts),
		logger:   logger,
	}
}

// Run walks the source tree and relocates every photo and video.
//
// It fails before touching anything when the source root is missing or
// overlaps a destination root.
// Per-file problems are counted in the report and never stop the walk.
// Cancelling ctx stops the walk between files; files already moved stay moved.
func (s *Sorter) Run(ctx context.Context) (Report, error) {
	info, err := s.fs.Stat(s.cfg.SourceFolder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Report{}, fmt.Errorf("%w: %s", ErrSourceMissing, s.cfg.SourceFolder)
		}
		return Report{}, fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return Report{}, fmt.Errorf("%w: %s is not a directory", ErrSourceMissing, s.cfg.SourceFolder)
	}
	if err := s.cfg.checkOverlap(); err != nil {
		return Report{}, err
	}

	rep := newReport(uuid.NewString(), s.opts.DryRun)
	logger := s.logger.With(zap.String("run_id", rep.RunID))

	if rep.Before, err = census.Take(s.fs, s.cfg.roots()); err != nil {
		return Report{}, fmt.Errorf("count before run: %w", err)
	}
	logger.Info("starting sort",
		zap.String("source", s.cfg.SourceFolder),
		zap.Int("source_files", rep.Before.Source),
		zap.Int("photo_files", rep.Before.Photo),
		zap.Int("video_files", rep.Before.Video),
		zap.Int("duplicate_files", rep.Before.Duplicates),
		zap.Bool("dry_run", s.opts.DryRun))

	relocator := move.New(s.fs, compare.New(s.fs, logger), move.Options{DryRun: s.opts.DryRun, Logger: logger})

	walkErr := scan.Walk(s.fs, s.cfg.SourceFolder, s.opts.Scan, func(rec scan.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rep.Walked++
		ev := s.process(logger, relocator, rec, &rep)
		if s.opts.OnFile != nil {
			s.opts.OnFile(ev)
		}
		return nil
	})
	switch {
	case walkErr == nil:
	case ctx.Err() != nil && errors.Is(walkErr, ctx.Err()):
		rep.Interrupted = true
		logger.Warn("sort interrupted, files already moved stay moved", zap.Int("walked", rep.Walked))
	default:
		// The walk itself broke (unreadable directory); what was walked is still reported.
		rep.WalkError = walkErr.Error()
		logger.Error("walk aborted", zap.Error(walkErr))
	}

	if rep.After, err = census.Take(s.fs, s.cfg.roots()); err != nil {
		return rep, fmt.Errorf("count after run: %w", err)
	}
	rep.Unprocessed = rep.Before.Source - rep.Walked
	if rep.Unprocessed < 0 {
		rep.Unprocessed = 0
	}

	logger.Info("sort finished",
		zap.Int("moved", rep.Moved),
		zap.Int("duplicates", rep.Duplicates),
		zap.Int("renamed", rep.Renamed),
		zap.Int("ignored", rep.Ignored),
		zap.Int("failed", rep.Failed),
		zap.Int("unresolved", rep.Unresolved))

	if err := rep.Check(); err != nil {
		logger.Warn("consistency check failed", zap.Error(err))
	}
	return rep, nil
}

func (s *Sorter) process(logger *zap.Logger, relocator *move.Relocator, rec scan.Record, rep *Report) FileEvent {
	ev := FileEvent{Record: rec}

	if rec.Kind == scan.Ignored {
		rep.Ignored++
		ev.Status = StatusIgnored
		return ev
	}

	res, err := s.resolver.Resolve(s.fs, rec.Path, rec.Kind)
	if err != nil {
		rep.Unresolved++
		ev.Status = StatusUnresolved
		logger.Warn("cannot determine year, file left in place", zap.String("path", rec.Path), zap.Error(err))
		return ev
	}
	ev.Year = res.Year

	root := s.cfg.PhotoDestFolder
	if rec.Kind == scan.Video {
		root = s.cfg.VideoDestFolder
	}
	yearDir := plan.YearDir(root, res.Year)
	if !s.opts.DryRun {
		if err := s.fs.MkdirAll(yearDir, 0o755); err != nil {
			rep.Failed++
			ev.Status = StatusFailed
			ev.Result = move.Result{
				Operation: plan.Operation{SourcePath: rec.Path, DestinationPath: plan.Destination(root, res.Year, rec.Name)},
				Outcome:   move.Failed,
				Error:     err,
			}
			logger.Warn("cannot create year folder, file left in place",
				zap.String("path", rec.Path), zap.String("folder", yearDir), zap.Error(err))
			return ev
		}
	}

	ev.Result = relocator.Relocate(
		rec.Path,
		plan.Destination(root, res.Year, rec.Name),
		plan.DuplicatesDir(s.cfg.DuplicatesRoot, rec.Kind, res.Year),
	)
	if !ev.Result.Moved() {
		rep.Failed++
		ev.Status = StatusFailed
		return ev
	}

	ev.Status = StatusMoved
	rep.record(rec.Kind, res.Year, res.Source, ev.Result)
	logger.Debug("moved",
		zap.String("source", rec.Path),
		zap.String("destination", ev.Result.FinalPath),
		zap.String("outcome", string(ev.Result.Outcome)),
		zap.Int("year", res.Year),
		zap.String("year_source", string(res.Source)))
	return ev
}
