package createdat

import (
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

type exifExtractor struct {
	loc *time.Location
}

func (e exifExtractor) CreatedAt(path string, r io.ReadSeeker) (time.Time, bool, error) {
	x, err := exif.Decode(r)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		// Missing or damaged EXIF is common on recovered files; not an error.
		return time.Time{}, false, nil
	}

	// Prefer DateTimeOriginal, then DateTimeDigitized, then DateTime.
	for _, tag := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		if tm, ok := e.timeFromTag(x, tag); ok {
			return tm, true, nil
		}
	}

	return time.Time{}, false, nil
}

func (e exifExtractor) timeFromTag(x *exif.Exif, tag exif.FieldName) (time.Time, bool) {
	f, err := x.Get(tag)
	if err != nil {
		return time.Time{}, false
	}

	s, err := f.StringVal()
	if err != nil {
		return time.Time{}, false
	}

	loc := e.loc
	if loc == nil {
		loc = time.Local
	}

	// EXIF DateTime format: "2006:01:02 15:04:05", usually without a timezone.
	tm, err := time.ParseInLocation("2006:01:02 15:04:05", s, loc)
	if err != nil {
		return time.Time{}, false
	}

	return tm, true
}
