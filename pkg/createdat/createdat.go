package createdat

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/quidome/mediasort/pkg/scan"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Source describes where a year was derived from.
type Source string

const (
	SourceMetadata Source = "metadata"
	SourceFilename Source = "filename"
	SourceMtime    Source = "mtime"
)

// Result is a resolved creation year and the timestamp it came from.
type Result struct {
	Year      int
	CreatedAt time.Time
	Source    Source
}

// Strategy is one step of a fallback chain. Attempt reports ok=false when it
// has nothing to offer; it never returns an error or panics.
type Strategy interface {
	Name() string
	Source() Source
	Attempt(fsys afero.Fs, path string) (t time.Time, ok bool)
}

// MetadataExtractor extracts an embedded creation timestamp from a media stream.
//
// Implementations should return (t, true, nil) when a timestamp is found.
// If no timestamp exists, return (time.Time{}, false, nil).
type MetadataExtractor interface {
	CreatedAt(path string, r io.ReadSeeker) (time.Time, bool, error)
}

// Options configures a Resolver.
type Options struct {
	// Location is used for timestamps without a timezone and for the
	// modification-time fallback. If nil, time.Local is used.
	Location *time.Location

	// PhotoMetadata and VideoMetadata override the default extractors.
	PhotoMetadata MetadataExtractor
	VideoMetadata MetadataExtractor

	// FilenameDates adds a filename pattern strategy after metadata.
	FilenameDates bool

	Logger *zap.Logger
}

// Resolver determines the creation year of photos and videos.
type Resolver struct {
	photo  []Strategy
	video  []Strategy
	loc    *time.Location
	logger *zap.Logger
}

// NewResolver builds the photo and video chains. Both end in the
// modification-time fallback, which is not part of the strategy lists.
func NewResolver(opts Options) *Resolver {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	photoMeta := opts.PhotoMetadata
	if photoMeta == nil {
		photoMeta = exifExtractor{loc: loc}
	}
	videoMeta := opts.VideoMetadata
	if videoMeta == nil {
		videoMeta = mp4Extractor{loc: loc}
	}

	r := &Resolver{
		photo:  []Strategy{metadataStrategy{name: "exif", extractor: photoMeta, logger: logger}},
		video:  []Strategy{metadataStrategy{name: "mp4", extractor: videoMeta, logger: logger}},
		loc:    loc,
		logger: logger,
	}
	if opts.FilenameDates {
		r.photo = append(r.photo, filenameStrategy{loc: loc})
		r.video = append(r.video, filenameStrategy{loc: loc})
	}
	return r
}

// ResolvePhotoYear runs the photo chain and falls back to the modification time.
func (r *Resolver) ResolvePhotoYear(fsys afero.Fs, path string) (Result, error) {
	return r.resolve(fsys, path, r.photo)
}

// ResolveVideoYear runs the video chain and falls back to the modification time.
func (r *Resolver) ResolveVideoYear(fsys afero.Fs, path string) (Result, error) {
	return r.resolve(fsys, path, r.video)
}

// Resolve dispatches on kind. Ignored files have no year.
func (r *Resolver) Resolve(fsys afero.Fs, path string, kind scan.Kind) (Result, error) {
	switch kind {
	case scan.Photo:
		return r.ResolvePhotoYear(fsys, path)
	case scan.Video:
		return r.ResolveVideoYear(fsys, path)
	default:
		return Result{}, fmt.Errorf("resolve %s: no year for kind %s", path, kind)
	}
}

// FallbackYear returns the year of the file's last modification.
// It fails only when the file cannot be stat'ed.
func (r *Resolver) FallbackYear(fsys afero.Fs, path string) (Result, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("resolve %s: is a directory", path)
	}
	mtime := info.ModTime().In(r.loc)
	return Result{Year: mtime.Year(), CreatedAt: mtime, Source: SourceMtime}, nil
}

func (r *Resolver) resolve(fsys afero.Fs, path string, chain []Strategy) (Result, error) {
	path = filepath.Clean(path)

	for _, s := range chain {
		t, ok := s.Attempt(fsys, path)
		if !ok || t.Year() <= 0 {
			continue
		}
		r.logger.Debug("year resolved",
			zap.String("path", path),
			zap.String("strategy", s.Name()),
			zap.Int("year", t.Year()))
		return Result{Year: t.Year(), CreatedAt: t, Source: s.Source()}, nil
	}

	return r.FallbackYear(fsys, path)
}

// metadataStrategy opens the file, hands it to an extractor, and releases the
// handle on every path out, including a panic inside the extractor.
type metadataStrategy struct {
	name      string
	extractor MetadataExtractor
	logger    *zap.Logger
}

func (s metadataStrategy) Name() string   { return s.name }
func (s metadataStrategy) Source() Source { return SourceMetadata }

func (s metadataStrategy) Attempt(fsys afero.Fs, path string) (t time.Time, ok bool) {
	f, err := fsys.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Debug("metadata extractor panicked",
				zap.String("path", path),
				zap.String("strategy", s.name),
				zap.Any("panic", rec))
			t, ok = time.Time{}, false
		}
	}()

	createdAt, found, err := s.extractor.CreatedAt(path, f)
	if err != nil {
		s.logger.Debug("metadata unreadable",
			zap.String("path", path),
			zap.String("strategy", s.name),
			zap.Error(err))
		return time.Time{}, false
	}
	if !found || createdAt.IsZero() {
		return time.Time{}, false
	}
	return createdAt, true
}

type filenameStrategy struct {
	loc *time.Location
}

func (filenameStrategy) Name() string   { return "filename" }
func (filenameStrategy) Source() Source { return SourceFilename }

func (s filenameStrategy) Attempt(_ afero.Fs, path string) (time.Time, bool) {
	return parseFromFilename(filepath.Base(path), s.loc)
}
