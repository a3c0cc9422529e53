package ops

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/birdseye/internal/model"
	"github.com/sadopc/birdseye/internal/scanner"
)

var fixedMtime = time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

func sampleSnapshot(root string, files map[string]int64) *model.Snapshot {
	b := model.NewBuilder(root, "test")
	for rel, size := range files {
		b.Add(model.Entry{
			Path:          filepath.Join(root, filepath.FromSlash(rel)),
			Size:          size,
			Modified:      fixedMtime,
			ModifiedKnown: true,
		})
	}
	return b.Snapshot(true)
}

// replay scans an export back into a snapshot.
func replay(t *testing.T, file string) *model.Snapshot {
	t.Helper()
	root, err := ImportRoot(file)
	if err != nil {
		t.Fatalf("ImportRoot: %v", err)
	}
	o := &scanner.Orchestrator{Enumerator: ImportEnumerator{File: file}}
	c := <-o.StartScan(context.Background(), root).Done()
	if c.Err != nil {
		t.Fatalf("import: %v", c.Err)
	}
	return c.Snapshot
}

func TestExportJSON_Stdout(t *testing.T) {
	snap := sampleSnapshot("/root", map[string]int64{"file.txt": 12})

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	os.Stdout = w

	exportErr := ExportJSON(snap, "-", "test-version")
	closeErr := w.Close()
	os.Stdout = oldStdout

	if exportErr != nil {
		t.Fatalf("ExportJSON returned error: %v", exportErr)
	}
	if closeErr != nil {
		t.Fatalf("closing pipe writer failed: %v", closeErr)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	out := strings.TrimSpace(string(data))
	for _, want := range []string{`"progver":"test-version"`, `"name":"file.txt"`, `"mtime":1706933106`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in export output, got:\n%s", want, out)
		}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		t.Fatalf("export output is not valid JSON: %v\n%s", err, out)
	}
	if len(raw) < 4 {
		t.Fatalf("expected ncdu format array with >=4 elements, got %d", len(raw))
	}
}

func TestExportJSON_RoundTrip(t *testing.T) {
	root := filepath.FromSlash("/data")
	snap := sampleSnapshot(root, map[string]int64{
		"a.txt":         1,
		"sub/b.bin":     20,
		"sub/deep/c.md": 300,
	})
	target := filepath.Join(t.TempDir(), "output.json")
	if err := ExportJSON(snap, target, "test"); err != nil {
		t.Fatalf("export: %v", err)
	}

	got := replay(t, target)
	if got.Root() != root {
		t.Fatalf("Root() = %s, want %s", got.Root(), root)
	}
	if got.CombinedSize() != 321 || got.Len() != 3 {
		t.Fatalf("size=%d len=%d, want 321/3", got.CombinedSize(), got.Len())
	}
	deep, ok := got.Directory(filepath.Join(root, "sub", "deep"))
	if !ok || deep.CombinedSize != 300 {
		t.Fatalf("deep = %+v", deep)
	}
	f := got.FilesBySize()[0]
	if !f.ModifiedKnown || !f.Modified.Equal(fixedMtime) {
		t.Fatalf("mtime not preserved: %+v", f)
	}
}

func TestExportJSON_AtomicNoPartialFile(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "missing-dir", "output.json")

	if err := ExportJSON(sampleSnapshot("/root", nil), target, "test"); err == nil {
		t.Fatal("expected export into a missing directory to fail")
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftovers, got %d entries", len(entries))
	}
}

func TestExportJSON_OverwriteExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")

	if err := ExportJSON(sampleSnapshot("/root", map[string]int64{"a.txt": 1}), path, "test"); err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	if err := ExportJSON(sampleSnapshot("/root", map[string]int64{"b.txt": 7}), path, "test"); err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	if got := replay(t, path).CombinedSize(); got != 7 {
		t.Fatalf("expected overwritten export size 7, got %d", got)
	}
}
