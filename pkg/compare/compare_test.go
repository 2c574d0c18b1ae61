package compare

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestAreDuplicates(t *testing.T) {
	big := make([]byte, 3*ChunkSize+17)
	for i := range big {
		big[i] = byte(i % 251)
	}
	bigOther := append([]byte(nil), big...)
	bigOther[len(bigOther)-1] ^= 0xff

	testCases := []struct {
		name string
		a, b []byte
		want bool
	}{
		{name: "identical", a: []byte("same"), b: []byte("same"), want: true},
		{name: "empty files", a: nil, b: nil, want: true},
		{name: "same size different content", a: []byte("abcd"), b: []byte("abce"), want: false},
		{name: "different size", a: []byte("abc"), b: []byte("abcd"), want: false},
		{name: "multi chunk identical", a: big, b: big, want: true},
		{name: "multi chunk differs in last byte", a: big, b: bigOther, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmp := t.TempDir()
			a := filepath.Join(tmp, "a.jpg")
			b := filepath.Join(tmp, "b.jpg")
			if err := os.WriteFile(a, tc.a, 0o644); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(b, tc.b, 0o644); err != nil {
				t.Fatal(err)
			}

			c := New(afero.NewOsFs(), nil)
			if got := c.AreDuplicates(a, b); got != tc.want {
				t.Fatalf("AreDuplicates = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAreDuplicates_SizeMismatchNeverReadsContent(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "a.jpg", []byte("short"))
	writeFile(t, base, "b.jpg", []byte("much longer content"))

	fsys := &unreadableFs{Fs: base}
	c := New(fsys, nil)

	if c.AreDuplicates("a.jpg", "b.jpg") {
		t.Fatalf("expected false for different sizes")
	}
	if fsys.opens != 0 {
		t.Fatalf("expected no opens, got %d", fsys.opens)
	}
}

func TestAreDuplicates_ReadErrorFailsOpen(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "a.jpg", []byte("same"))
	writeFile(t, base, "b.jpg", []byte("same"))

	fsys := &unreadableFs{Fs: base}
	c := New(fsys, nil)

	if c.AreDuplicates("a.jpg", "b.jpg") {
		t.Fatalf("expected false when content cannot be read")
	}
	if fsys.opens == 0 {
		t.Fatalf("expected content to be opened for equal sizes")
	}
}

func TestAreDuplicates_MissingFile(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "a.jpg", []byte("same"))

	if New(base, nil).AreDuplicates("a.jpg", "missing.jpg") {
		t.Fatalf("expected false for a missing file")
	}
}

func TestDigest_StableAcrossCalls(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "a.jpg", []byte("content"))

	c := New(base, nil)
	d1, err := c.Digest("a.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2, err := c.Digest("a.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d1) != 32 || string(d1) != string(d2) {
		t.Fatalf("expected stable 32 byte digest, got %x and %x", d1, d2)
	}
}

var errUnreadable = errors.New("unreadable")

// unreadableFs passes Stat through but refuses to open any file.
type unreadableFs struct {
	afero.Fs
	opens int
}

func (u *unreadableFs) Open(name string) (afero.File, error) {
	u.opens++
	return nil, errUnreadable
}

func (u *unreadableFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	u.opens++
	return nil, errUnreadable
}

func writeFile(t *testing.T, fsys afero.Fs, path string, data []byte) {
	t.Helper()

	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
