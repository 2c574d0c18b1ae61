package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quidome/mediasort/pkg/sorter"
)

var mtime2019 = time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

// isolate keeps a developer's own config files out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

type roots struct {
	src, photo, video, dup string
}

func newRoots(t *testing.T) roots {
	t.Helper()
	base := t.TempDir()
	return roots{
		src:   filepath.Join(base, "recovered"),
		photo: filepath.Join(base, "Sorted", "Photo"),
		video: filepath.Join(base, "Sorted", "Video"),
		dup:   filepath.Join(base, "Sorted", "Duplicates"),
	}
}

func (r roots) args() []string {
	return []string{r.src, r.photo, r.video, r.dup}
}

func TestRootCommand_PrintsVersion(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, version) {
		t.Fatalf("expected output to include version, got %q", out)
	}
}

func TestSortCommand_RequiresZeroOrFourArgs(t *testing.T) {
	isolate(t)

	if _, err := execute(t, "sort", "only-source", "photo"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestSortCommand_WithoutPathsFailsValidation(t *testing.T) {
	isolate(t)

	_, err := execute(t, "sort")
	if err == nil || !strings.Contains(err.Error(), "paths.source must be set") {
		t.Fatalf("expected missing path error, got %v", err)
	}
}

func TestSortCommand_MovesFiles(t *testing.T) {
	isolate(t)
	r := newRoots(t)

	writeFileWithMTime(t, r.src, "a.jpg", "same bytes", mtime2019)
	writeFileWithMTime(t, r.src, "sub/a.jpg", "same bytes", mtime2019)
	writeFileWithMTime(t, r.src, "clip.mp4", "not really a movie", time.Date(2020, 3, 3, 12, 0, 0, 0, time.UTC))
	writeFileWithMTime(t, r.src, "notes.txt", "keep me", mtime2019)

	out, err := execute(t, append([]string{"sort"}, r.args()...)...)
	if err != nil {
		t.Fatalf("expected no error, got %v\n%s", err, out)
	}

	for _, p := range []string{
		filepath.Join(r.photo, "2019", "a.jpg"),
		filepath.Join(r.dup, "Photo", "2019", "a.jpg"),
		filepath.Join(r.video, "2020", "clip.mp4"),
		filepath.Join(r.src, "notes.txt"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(r.src, "a.jpg")); !os.IsNotExist(err) {
		t.Errorf("expected a.jpg to have left the source, got %v", err)
	}

	if !strings.Contains(out, "Sort finished") {
		t.Errorf("expected report title in output, got %q", out)
	}
	if !strings.Contains(out, "to duplicates") {
		t.Errorf("expected report table in output, got %q", out)
	}
}

func TestSortCommand_DryRunMovesNothing(t *testing.T) {
	isolate(t)
	r := newRoots(t)

	writeFileWithMTime(t, r.src, "a.jpg", "photo", mtime2019)

	out, err := execute(t, append([]string{"sort", "--dry-run"}, r.args()...)...)
	if err != nil {
		t.Fatalf("expected no error, got %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(r.src, "a.jpg")); err != nil {
		t.Fatalf("expected source file untouched: %v", err)
	}
	if _, err := os.Stat(r.photo); !os.IsNotExist(err) {
		t.Fatalf("expected photo folder not to be created, got %v", err)
	}
	if !strings.Contains(out, "Dry run") {
		t.Fatalf("expected dry run title, got %q", out)
	}
}

func TestSortCommand_MissingSource(t *testing.T) {
	isolate(t)
	r := newRoots(t)

	_, err := execute(t, append([]string{"sort"}, r.args()...)...)
	if !errors.Is(err, sorter.ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
	if _, err := os.Stat(r.photo); !os.IsNotExist(err) {
		t.Fatalf("expected no destination to be created, got %v", err)
	}
}

func TestSortCommand_ReadsPathsFromConfig(t *testing.T) {
	isolate(t)
	r := newRoots(t)
	writeFileWithMTime(t, r.src, "b.png", "png", mtime2019)

	cfgPath := filepath.Join(t.TempDir(), "mediasort.toml")
	content := "[paths]\n" +
		"source = " + quote(r.src) + "\n" +
		"photo_dest = " + quote(r.photo) + "\n" +
		"video_dest = " + quote(r.video) + "\n" +
		"duplicates_root = " + quote(r.dup) + "\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "sort", "--config", cfgPath, "--log-format", "json")
	if err != nil {
		t.Fatalf("expected no error, got %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(r.photo, "2019", "b.png")); err != nil {
		t.Fatalf("expected b.png to be sorted: %v", err)
	}
	if !strings.Contains(out, `"msg":"sort finished"`) {
		t.Fatalf("expected JSON log lines, got %q", out)
	}
}

func TestSortCommand_RejectsDestinationInsideSource(t *testing.T) {
	isolate(t)
	r := newRoots(t)
	writeFileWithMTime(t, r.src, "a.jpg", "photo", mtime2019)

	_, err := execute(t, "sort", r.src, filepath.Join(r.src, "Photo"), r.video, r.dup)
	if err == nil || !strings.Contains(err.Error(), "must not be inside") {
		t.Fatalf("expected nesting error, got %v", err)
	}
}

func TestScanCommand_RequiresOneArg(t *testing.T) {
	isolate(t)

	if _, err := execute(t, "scan"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestScanCommand_JSONOutput(t *testing.T) {
	isolate(t)
	tmp := t.TempDir()

	writeFileWithMTime(t, tmp, "a.jpg", "a", mtime2019)
	writeFileWithMTime(t, tmp, "b.txt", "b", mtime2019)

	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"scan", tmp, "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var records []jsonRecord
	if err := json.Unmarshal(out.Bytes(), &records); err != nil {
		t.Fatalf("failed to parse JSON: %v\n%s", err, out.String())
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 media record, got %d", len(records))
	}
	if !strings.HasSuffix(records[0].SourcePath, "a.jpg") {
		t.Fatalf("expected source_path to end with a.jpg, got %s", records[0].SourcePath)
	}
	if records[0].Kind != "Photo" {
		t.Fatalf("expected kind Photo, got %s", records[0].Kind)
	}
	if records[0].Year != 2019 || records[0].YearSource != "mtime" {
		t.Fatalf("expected 2019 from mtime, got %d from %q", records[0].Year, records[0].YearSource)
	}
	if records[0].FileSizeBytes <= 0 {
		t.Fatalf("expected file_size_bytes > 0")
	}

	if _, err := os.Stat(filepath.Join(tmp, "a.jpg")); err != nil {
		t.Fatalf("expected scan to leave files in place: %v", err)
	}
}

func TestScanCommand_PrintsRelativePaths(t *testing.T) {
	isolate(t)
	tmp := t.TempDir()

	writeFileWithMTime(t, tmp, "sub/c.mp4", "c", mtime2019)
	writeFileWithMTime(t, tmp, "b.txt", "b", mtime2019)

	out, err := execute(t, "scan", tmp)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, filepath.Join("sub", "c.mp4")) || !strings.Contains(out, "Video") {
		t.Fatalf("expected sub/c.mp4 listed as Video, got %q", out)
	}
	if strings.Contains(out, "b.txt") {
		t.Fatalf("expected b.txt to be left out, got %q", out)
	}
}

func TestCensusCommand(t *testing.T) {
	isolate(t)
	tmp := t.TempDir()

	writeFileWithMTime(t, tmp, "x/1.jpg", "1", mtime2019)
	writeFileWithMTime(t, tmp, "x/sub/2.txt", "2", mtime2019)
	missing := filepath.Join(tmp, "nope")

	out, err := execute(t, "census", filepath.Join(tmp, "x"), missing)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "total") {
		t.Fatalf("expected total row, got %q", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, missing) && !strings.Contains(line, " 0 ") {
			t.Fatalf("expected missing dir to count 0, got %q", line)
		}
		if strings.Contains(line, "total") && !strings.Contains(line, " 2 ") {
			t.Fatalf("expected total 2, got %q", line)
		}
	}
}

func TestRenderReport_SignedChanges(t *testing.T) {
	if signed(3) != "+3" || signed(-2) != "-2" || signed(0) != "0" {
		t.Fatalf("unexpected signed output: %s %s %s", signed(3), signed(-2), signed(0))
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func writeFileWithMTime(t *testing.T, dir string, relPath string, content string, mtime time.Time) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
