package createdat

import (
	"errors"
	"io"
	"time"

	"github.com/abema/go-mp4"
)

// The difference between January 1, 1904 (the epoch used by MP4 and
// QuickTime headers) and January 1, 1970 in seconds.
const mp4EpochToUnixSeconds uint64 = 2082844800

var errStopWalk = errors.New("movie creation time found")

// mp4Extractor reads the creation time from the movie header of ISO base
// media files (MP4, MOV, 3GP, M4V). Other containers fail to parse and
// report not found. Timestamps are returned in loc.
type mp4Extractor struct {
	loc *time.Location
}

func (e mp4Extractor) CreatedAt(path string, r io.ReadSeeker) (time.Time, bool, error) {
	var movie, track time.Time

	_, err := mp4.ReadBoxStructure(r, func(h *mp4.ReadHandle) (any, error) {
		if !h.BoxInfo.IsSupportedType() || h.BoxInfo.Type == mp4.BoxTypeMdat() {
			return nil, nil
		}

		box, _, err := h.ReadPayload()
		if err != nil {
			return nil, err
		}

		switch b := box.(type) {
		case *mp4.Mvhd:
			if ts := mp4Timestamp(b.GetCreationTime(), e.loc); !ts.IsZero() {
				movie = ts
				return nil, errStopWalk
			}
		case *mp4.Tkhd:
			// used only when the movie header carries no creation time
			if ts := mp4Timestamp(b.GetCreationTime(), e.loc); !ts.IsZero() && track.IsZero() {
				track = ts
			}
		}

		return h.Expand()
	})

	switch {
	case !movie.IsZero():
		return movie, true, nil
	case !track.IsZero():
		return track, true, nil
	case err != nil:
		return time.Time{}, false, err
	default:
		return time.Time{}, false, nil
	}
}

func mp4Timestamp(ts uint64, loc *time.Location) time.Time {
	if ts <= mp4EpochToUnixSeconds {
		return time.Time{}
	}
	t := time.Unix(int64(ts-mp4EpochToUnixSeconds), 0)
	if loc != nil {
		t = t.In(loc)
	}
	return t
}
