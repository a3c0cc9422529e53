package scanner

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedArchive is wrapped by the RootError returned for files
// that are not a recognised archive.
var ErrUnsupportedArchive = errors.New("unsupported archive format")

type archiveKind int

const (
	kindUnknown archiveKind = iota
	kindZip
	kindTar
	kindTarGz
)

func archiveKindOf(name string) archiveKind {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".jar"):
		return kindZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return kindTarGz
	case strings.HasSuffix(lower, ".tar"):
		return kindTar
	default:
		return kindUnknown
	}
}

// IsArchive reports whether name has an extension ArchiveEnumerator reads.
func IsArchive(name string) bool { return archiveKindOf(name) != kindUnknown }

// ArchiveEnumerator lists the members of a zip, jar, tar, tar.gz or tgz
// file. Members appear under the archive path, so "a.zip" containing
// "docs/x.txt" yields "a.zip/docs/x.txt".
type ArchiveEnumerator struct{}

func (ArchiveEnumerator) Enumerate(ctx context.Context, root string, sink Sink) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return &RootError{Path: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return &RootError{Path: absRoot, Err: err}
	}
	if info.IsDir() {
		return &RootError{Path: absRoot, Err: errors.New("is a directory")}
	}

	a := &archiveSink{root: absRoot, sink: sink, dirs: make(map[string]bool)}
	a.dir(absRoot, info.ModTime())

	switch archiveKindOf(absRoot) {
	case kindZip:
		err = enumerateZip(ctx, absRoot, a)
	case kindTar:
		err = enumerateTar(ctx, absRoot, false, a)
	case kindTarGz:
		err = enumerateTar(ctx, absRoot, true, a)
	default:
		err = ErrUnsupportedArchive
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &RootError{Path: absRoot, Err: err}
	}
	return ctx.Err()
}

// archiveSink emits directories implied by member paths exactly once.
type archiveSink struct {
	root string
	sink Sink
	dirs map[string]bool
}

func (a *archiveSink) memberPath(name string) (string, bool) {
	// Rooting the name first keeps "../" members inside the archive.
	clean := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
	if clean == "" {
		return "", false
	}
	return filepath.Join(a.root, filepath.FromSlash(clean)), true
}

func (a *archiveSink) dir(p string, mtime time.Time) {
	if a.dirs[p] {
		return
	}
	if p != a.root {
		a.dir(filepath.Dir(p), time.Time{})
	}
	a.dirs[p] = true
	a.sink.Entry(Entry{Path: p, IsDir: true, Modified: mtime, ModifiedKnown: !mtime.IsZero()})
}

func (a *archiveSink) member(name string, isDir bool, size int64, mtime time.Time) {
	p, ok := a.memberPath(name)
	if !ok {
		return
	}
	if isDir {
		a.dir(p, mtime)
		return
	}
	a.dir(filepath.Dir(p), time.Time{})
	a.sink.Entry(Entry{Path: p, Size: size, Modified: mtime, ModifiedKnown: !mtime.IsZero()})
}

func enumerateZip(ctx context.Context, archivePath string, a *archiveSink) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		size := int64(f.UncompressedSize64)
		if size < 0 {
			a.sink.Skip(f.Name, fmt.Errorf("member size overflows: %d", f.UncompressedSize64))
			continue
		}
		a.member(f.Name, f.FileInfo().IsDir(), size, f.Modified)
	}
	return nil
}

func enumerateTar(ctx context.Context, archivePath string, gzipped bool, a *archiveSink) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	var r io.Reader = file
	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			a.member(hdr.Name, true, 0, hdr.ModTime)
		case tar.TypeReg:
			a.member(hdr.Name, false, hdr.Size, hdr.ModTime)
		case tar.TypeXGlobalHeader:
		default:
			// Links and devices carry no data of their own.
			a.member(hdr.Name, false, 0, hdr.ModTime)
		}
	}
}
