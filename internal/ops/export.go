package ops

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sadopc/birdseye/internal/model"
)

// Exports use the ncdu JSON layout, so they open in ncdu and friends:
// [1, 0, {"progname":"birdseye","progver":"1.0","timestamp":1234567890},
//   [{"name":"/path"},
//     {"name":"file1","asize":10,"mtime":1700000000},
//     [{"name":"subdir"},
//       {"name":"file2","asize":5}
//     ]
//   ]
// ]

type ncduHeader struct {
	Progname  string `json:"progname"`
	Progver   string `json:"progver"`
	Timestamp int64  `json:"timestamp"`
}

type ncduEntry struct {
	Name  string `json:"name"`
	Asize int64  `json:"asize,omitempty"`
	Dsize int64  `json:"dsize,omitempty"`
	Mtime int64  `json:"mtime,omitempty"`
	Err   bool   `json:"read_error,omitempty"`
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, avoiding verbose per-call checks.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) WriteString(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (ew *errWriter) writeJSON(v any) {
	if ew.err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		ew.err = err
		return
	}
	_, ew.err = ew.w.Write(data)
}

// ExportJSON writes snap in ncdu-compatible JSON. path "-" means stdout.
// File targets are written to a temp file and renamed on success, so a
// partial file is never left behind.
func ExportJSON(snap *model.Snapshot, path string, version string) (retErr error) {
	if path == "-" {
		return exportToWriter(snap, os.Stdout, version)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".birdseye-export-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create export file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if retErr != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := exportToWriter(snap, tmp, version); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// On Windows, Rename cannot replace an existing destination.
		if runtime.GOOS != "windows" {
			return err
		}
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("cannot replace export file %s: %w", path, err)
		}
		return os.Rename(tmpPath, path)
	}
	return nil
}

func exportToWriter(snap *model.Snapshot, out io.Writer, version string) error {
	bw := bufio.NewWriterSize(out, 64*1024)
	ew := &errWriter{w: bw}

	if version == "" {
		version = "dev"
	}
	ew.WriteString("[1, 0, ")
	ew.writeJSON(ncduHeader{Progname: "birdseye", Progver: version, Timestamp: time.Now().Unix()})
	ew.WriteString(",\n")

	if root, ok := snap.Directory(snap.Root()); ok {
		writeDir(ew, snap, root, root.Path)
	} else {
		ew.writeJSON([]ncduEntry{{Name: snap.Root(), Err: true}})
	}

	ew.WriteString("\n]\n")
	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

func writeDir(ew *errWriter, snap *model.Snapshot, dir *model.Directory, name string) {
	ew.WriteString("[")
	ew.writeJSON(ncduEntry{Name: name})

	for _, f := range dir.Files {
		ew.WriteString(",\n")
		entry := ncduEntry{Name: f.Name(), Asize: f.Size, Dsize: f.Size}
		if f.ModifiedKnown {
			entry.Mtime = f.Modified.Unix()
		}
		ew.writeJSON(entry)
	}
	for _, sub := range dir.Subdirectories {
		child, ok := snap.Directory(sub)
		if !ok {
			continue
		}
		ew.WriteString(",\n")
		writeDir(ew, snap, child, child.Name())
	}

	ew.WriteString("]")
}
