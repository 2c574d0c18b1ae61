package plan

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/quidome/mediasort/pkg/scan"
	"github.com/spf13/afero"
)

// Operation represents a planned move from source to destination.
type Operation struct {
	SourcePath      string
	DestinationPath string
}

// YearDir returns <root>/<year>.
func YearDir(root string, year int) string {
	return filepath.Join(root, strconv.Itoa(year))
}

// Destination returns <root>/<year>/<filename>, the path a file is proposed to move to.
func Destination(root string, year int, filename string) string {
	return filepath.Join(YearDir(root, year), filename)
}

// DuplicatesDir returns <duplicatesRoot>/<Photo|Video>/<year>.
func DuplicatesDir(duplicatesRoot string, kind scan.Kind, year int) string {
	return filepath.Join(duplicatesRoot, kind.String(), strconv.Itoa(year))
}

// Within reports whether path lies strictly below root.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SuffixedName inserts _n before the extension: ("a.jpg", 2) is "a_2.jpg".
// n == 0 returns the name unchanged.
func SuffixedName(filename string, n int) string {
	if n == 0 {
		return filename
	}
	ext := filepath.Ext(filename)
	nameWithoutExt := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s_%d%s", nameWithoutExt, n, ext)
}

// Namer hands out collision-free destination paths for one run.
//
// A path is taken when it exists on the filesystem or was claimed earlier in
// the run, so a name is never handed out twice even if nothing was written to
// it yet (dry runs). Callers that resolve names concurrently must serialize
// per directory themselves; Namer only protects its own bookkeeping.
type Namer struct {
	fs afero.Fs

	mu      sync.Mutex
	claimed map[string]string // path -> source that claimed it
}

func NewNamer(fsys afero.Fs) *Namer {
	return &Namer{fs: fsys, claimed: make(map[string]string)}
}

// Occupant reports who holds path: the source that claimed it in this run,
// the path itself when a file already exists there, or ok=false when free.
func (n *Namer) Occupant(path string) (occupant string, ok bool, err error) {
	n.mu.Lock()
	src, claimed := n.claimed[path]
	n.mu.Unlock()
	if claimed {
		return src, true, nil
	}

	if _, err := n.fs.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat %s: %w", path, err)
	}
	return path, true, nil
}

// Claim records that source will be moved to path.
func (n *Namer) Claim(path, source string) {
	n.mu.Lock()
	n.claimed[path] = source
	n.mu.Unlock()
}

// Release forgets a claim, for a move that did not happen.
func (n *Namer) Release(path string) {
	n.mu.Lock()
	delete(n.claimed, path)
	n.mu.Unlock()
}

// Next returns the first free path in dir for filename, trying the name
// itself and then name_1.ext, name_2.ext, ... It claims the returned path
// for source.
func (n *Namer) Next(dir, filename, source string) (string, error) {
	for i := 0; ; i++ {
		candidate := filepath.Join(dir, SuffixedName(filename, i))
		_, taken, err := n.Occupant(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			n.Claim(candidate, source)
			return candidate, nil
		}
	}
}
