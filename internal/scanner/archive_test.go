package scanner

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func buildZip(t *testing.T, path string, members map[string]int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, size := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(make([]byte, size)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func buildTarGz(t *testing.T, path string, members map[string]int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	mtime := time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := tw.WriteHeader(&tar.Header{Name: "dir/", Typeflag: tar.TypeDir, Mode: 0o755, ModTime: mtime}); err != nil {
		t.Fatal(err)
	}
	for name, size := range members {
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(size), ModTime: mtime}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(make([]byte, size)); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range []interface{ Close() error }{tw, gz, f} {
		if err := c.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestArchiveEnumerator_Zip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	buildZip(t, path, map[string]int{"top.txt": 10, "docs/deep/x.md": 20})

	rec := newRecorder()
	if err := (ArchiveEnumerator{}).Enumerate(context.Background(), path, rec); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := map[string]int64{
		filepath.Join(path, "top.txt"):              10,
		filepath.Join(path, "docs", "deep", "x.md"): 20,
	}
	for p, size := range want {
		e, ok := rec.entries[p]
		if !ok || e.Size != size {
			t.Errorf("entry %s = %+v, want size %d", p, e, size)
		}
	}
	if len(rec.files()) != len(want) {
		t.Errorf("files = %v", rec.files())
	}
	for _, d := range []string{path, filepath.Join(path, "docs"), filepath.Join(path, "docs", "deep")} {
		if e, ok := rec.entries[d]; !ok || !e.IsDir {
			t.Errorf("implied directory %s missing", d)
		}
	}
}

func TestArchiveEnumerator_TarGz(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.tgz")
	buildTarGz(t, path, map[string]int{"dir/a.log": 7, "b.log": 9})

	rec := newRecorder()
	if err := (ArchiveEnumerator{}).Enumerate(context.Background(), path, rec); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	e, ok := rec.entries[filepath.Join(path, "dir", "a.log")]
	if !ok || e.Size != 7 || !e.ModifiedKnown {
		t.Fatalf("dir/a.log = %+v", e)
	}
	if d, ok := rec.entries[filepath.Join(path, "dir")]; !ok || !d.IsDir {
		t.Fatal("expected dir/ entry")
	}
}

func TestArchiveEnumerator_RootErrors(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "notes.txt")
	writeFile(t, plain, 3)
	corrupt := filepath.Join(dir, "broken.zip")
	if err := os.WriteFile(corrupt, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.zip")},
		{"unsupported", plain},
		{"corrupt", corrupt},
		{"directory", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (ArchiveEnumerator{}).Enumerate(context.Background(), tt.path, newRecorder())
			var rootErr *RootError
			if !errors.As(err, &rootErr) {
				t.Fatalf("expected *RootError, got %v", err)
			}
		})
	}
	err := (ArchiveEnumerator{}).Enumerate(context.Background(), plain, newRecorder())
	if !errors.Is(err, ErrUnsupportedArchive) {
		t.Errorf("expected ErrUnsupportedArchive, got %v", err)
	}
}

func TestArchiveSink_MemberPathStaysInside(t *testing.T) {
	a := &archiveSink{root: filepath.FromSlash("/x/a.zip")}
	tests := map[string]string{
		"../../etc/passwd": "/x/a.zip/etc/passwd",
		"/abs/file":        "/x/a.zip/abs/file",
		"./dir/./f":        "/x/a.zip/dir/f",
	}
	for name, want := range tests {
		got, ok := a.memberPath(name)
		if !ok || got != filepath.FromSlash(want) {
			t.Errorf("memberPath(%q) = %q, %v; want %q", name, got, ok, want)
		}
	}
	if _, ok := a.memberPath("../"); ok {
		t.Error("memberPath(\"../\") should be rejected")
	}
}

func TestIsArchive(t *testing.T) {
	for name, want := range map[string]bool{
		"a.zip": true, "a.JAR": true, "a.tar": true, "a.tar.gz": true, "a.tgz": true,
		"a.gz": false, "a.txt": false, "zip": false,
	} {
		if got := IsArchive(name); got != want {
			t.Errorf("IsArchive(%q) = %v, want %v", name, got, want)
		}
	}
}
