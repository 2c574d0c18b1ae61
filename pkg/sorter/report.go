package sorter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quidome/mediasort/pkg/census"
	"github.com/quidome/mediasort/pkg/createdat"
	"github.com/quidome/mediasort/pkg/move"
	"github.com/quidome/mediasort/pkg/scan"
)

// ErrInconsistent is returned by Report.Check when the counts do not add up.
var ErrInconsistent = errors.New("file counts are inconsistent")

// Report is the outcome of one run.
type Report struct {
	RunID       string `json:"run_id"`
	DryRun      bool   `json:"dry_run"`
	Interrupted bool   `json:"interrupted"`
	WalkError   string `json:"walk_error,omitempty"`

	Before census.Snapshot `json:"before"`
	After  census.Snapshot `json:"after"`

	// Every walked file lands in exactly one of Moved, Ignored, Unresolved, Failed.
	Walked     int `json:"walked"`
	Moved      int `json:"moved"`
	Ignored    int `json:"ignored"`
	Unresolved int `json:"unresolved"`
	Failed     int `json:"failed"`

	// Source files never reached because the walk stopped early.
	Unprocessed int `json:"unprocessed"`

	// Breakdown of Moved.
	Clear      int `json:"clear"`
	Duplicates int `json:"duplicates"`
	Renamed    int `json:"renamed"`

	BytesMoved int64 `json:"bytes_moved"`

	ByYear   map[string]map[int]int   `json:"by_year"`
	BySource map[createdat.Source]int `json:"by_source"`
}

func newReport(runID string, dryRun bool) Report {
	return Report{
		RunID:    runID,
		DryRun:   dryRun,
		ByYear:   make(map[string]map[int]int),
		BySource: make(map[createdat.Source]int),
	}
}

func (r *Report) record(kind scan.Kind, year int, source createdat.Source, res move.Result) {
	r.Moved++
	r.BytesMoved += res.Bytes
	switch res.Outcome {
	case move.Clear:
		r.Clear++
	case move.ContentDuplicate:
		r.Duplicates++
	case move.NameCollisionDistinctContent:
		r.Renamed++
	}

	years := r.ByYear[kind.String()]
	if years == nil {
		years = make(map[int]int)
		r.ByYear[kind.String()] = years
	}
	years[year]++
	r.BySource[source]++
}

// Years returns the years seen for kind in ascending order.
func (r Report) Years(kind scan.Kind) []int {
	years := make([]int, 0, len(r.ByYear[kind.String()]))
	for y := range r.ByYear[kind.String()] {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Delta is the change in file counts per root over the run.
func (r Report) Delta() census.Snapshot {
	return census.Delta(r.Before, r.After)
}

// Check verifies that every source file is accounted for. Outside a dry run
// it also checks the counts against the before and after census:
//
//	source_before == source_after + Δphoto + Δvideo + Δduplicates
//	moved         == Δphoto + Δvideo + Δduplicates
func (r Report) Check() error {
	var problems []string

	if left := r.Before.Source - r.Moved; left != r.Ignored+r.Failed+r.Unresolved+r.Unprocessed {
		problems = append(problems, fmt.Sprintf(
			"source %d - moved %d = %d, but ignored %d + failed %d + unresolved %d + unprocessed %d = %d",
			r.Before.Source, r.Moved, left,
			r.Ignored, r.Failed, r.Unresolved, r.Unprocessed,
			r.Ignored+r.Failed+r.Unresolved+r.Unprocessed))
	}

	if !r.DryRun {
		d := r.Delta()
		arrived := d.Photo + d.Video + d.Duplicates
		if r.Before.Source != r.After.Source+arrived {
			problems = append(problems, fmt.Sprintf(
				"source before %d != source after %d + arrived %d",
				r.Before.Source, r.After.Source, arrived))
		}
		if r.Moved != arrived {
			problems = append(problems, fmt.Sprintf("moved %d != arrived %d", r.Moved, arrived))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInconsistent, strings.Join(problems, "; "))
	}
	return nil
}
