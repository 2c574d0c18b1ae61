// Package compare decides whether two files hold byte-identical content.
package compare

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// ChunkSize is the read size used while hashing.
const ChunkSize = 8 * 1024

// Comparator compares files on a filesystem. The zero value is not usable;
// construct with New.
type Comparator struct {
	fs     afero.Fs
	logger *zap.Logger
}

func New(fsys afero.Fs, logger *zap.Logger) *Comparator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Comparator{fs: fsys, logger: logger}
}

// AreDuplicates reports whether a and b have equal size and equal BLAKE3 digests.
// Files of different sizes are rejected without being opened. Any stat, open,
// or read error yields false, so an unreadable file is never treated as a duplicate.
func (c *Comparator) AreDuplicates(a, b string) bool {
	same, err := c.sameSize(a, b)
	if err != nil {
		c.logger.Warn("duplicate check failed", zap.String("a", a), zap.String("b", b), zap.Error(err))
		return false
	}
	if !same {
		return false
	}

	ha, err := c.Digest(a)
	if err != nil {
		c.logger.Warn("duplicate check failed", zap.String("a", a), zap.String("b", b), zap.Error(err))
		return false
	}
	hb, err := c.Digest(b)
	if err != nil {
		c.logger.Warn("duplicate check failed", zap.String("a", a), zap.String("b", b), zap.Error(err))
		return false
	}
	return bytes.Equal(ha, hb)
}

// Digest streams the file through BLAKE3 in ChunkSize reads.
func (c *Comparator) Digest(path string) ([]byte, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, onlyReader{f}, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

func (c *Comparator) sameSize(a, b string) (bool, error) {
	infoA, err := c.fs.Stat(a)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", a, err)
	}
	infoB, err := c.fs.Stat(b)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", b, err)
	}
	return infoA.Size() == infoB.Size(), nil
}

// onlyReader hides WriterTo so io.CopyBuffer honours the chunk size.
type onlyReader struct {
	r io.Reader
}

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }
