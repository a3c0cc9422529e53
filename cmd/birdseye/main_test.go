package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sadopc/birdseye/internal/ops"
	"github.com/sadopc/birdseye/internal/scanner"
)

const helperEnvKey = "GO_WANT_BIRDSEYE_HELPER_PROCESS"

type cliResult struct {
	stdout   string
	stderr   string
	exitCode int
}

func TestCLIHelperProcess(t *testing.T) {
	if os.Getenv(helperEnvKey) != "1" {
		return
	}

	sep := -1
	for i, arg := range os.Args {
		if arg == "--" {
			sep = i
			break
		}
	}
	if sep == -1 {
		fmt.Fprintln(os.Stderr, "missing -- argument separator for helper process")
		os.Exit(2)
	}

	os.Args = append([]string{os.Args[0]}, os.Args[sep+1:]...)
	main()
	os.Exit(0)
}

func TestE2E_ExportToStdoutWritesJSONOnly(t *testing.T) {
	scanRoot := createScanFixture(t)

	result := runCLI(t, "export", "-o", "-", "--config", missingConfig(t), scanRoot)
	if result.exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstdout:\n%s\nstderr:\n%s", result.exitCode, result.stdout, result.stderr)
	}
	if strings.Contains(result.stdout, "Scanning") || strings.Contains(result.stdout, "Exported to") {
		t.Fatalf("expected stdout to contain only JSON, got:\n%s", result.stdout)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.stdout)), &raw); err != nil {
		t.Fatalf("expected valid JSON in stdout, got error: %v\nstdout:\n%s", err, result.stdout)
	}
	if len(raw) < 4 {
		t.Fatalf("expected ncdu root array, got %d elements", len(raw))
	}
}

func TestE2E_MissingPathExitsNonZero(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	result := runCLI(t, "scan", "--config", missingConfig(t), missing)
	if result.exitCode != 1 {
		t.Fatalf("expected exit code 1, got %d\nstdout:\n%s\nstderr:\n%s", result.exitCode, result.stdout, result.stderr)
	}
	if !strings.HasPrefix(result.stderr, "Error: ") {
		t.Fatalf("expected error message on stderr, got:\n%s", result.stderr)
	}
}

func TestScan_PrintsReport(t *testing.T) {
	scanRoot := createScanFixture(t)

	stdout, _, err := runRoot(t, "scan", scanRoot)
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	for _, want := range []string{
		scanRoot,
		"Largest files",
		"Largest directories",
		"Largest types",
		filepath.Join("keep", "sub", "b.go"),
		".hidden.txt",
		".go",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Filtered") {
		t.Errorf("expected no filtered section without filters:\n%s", stdout)
	}
}

func TestScan_HonorsExcludeAndHidden(t *testing.T) {
	scanRoot := createScanFixture(t)

	stdout, _, err := runRoot(t, "scan", "--exclude", "skip-one,skip-two", "--hidden=false", scanRoot)
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if strings.Contains(stdout, "ignored.log") {
		t.Fatalf("expected excluded directories to be skipped:\n%s", stdout)
	}
	if strings.Contains(stdout, ".hidden.txt") {
		t.Fatalf("expected hidden file to be skipped:\n%s", stdout)
	}
	if !strings.Contains(stdout, filepath.Join("keep", "a.txt")) {
		t.Fatalf("expected keep/a.txt in report:\n%s", stdout)
	}
}

func TestScan_FilterSection(t *testing.T) {
	scanRoot := createScanFixture(t)

	stdout, _, err := runRoot(t, "scan", "--filter", "max-results=1", scanRoot)
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	rows := section(stdout, "Filtered (max-results=1)")
	if len(rows) != 1 {
		t.Fatalf("expected 1 filtered row, got %d:\n%s", len(rows), stdout)
	}
	// skip-two/ignored.log is the largest file in the fixture.
	if !strings.Contains(rows[0], filepath.Join("skip-two", "ignored.log")) {
		t.Fatalf("unexpected filtered row %q", rows[0])
	}
}

func TestScan_RejectsBadFilter(t *testing.T) {
	_, _, err := runRoot(t, "scan", "--filter", "bogus=1", t.TempDir())
	if err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestScan_RejectsPlainFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "notes.txt")
	mustWriteFile(t, file, "hello")

	_, _, err := runRoot(t, "scan", file)
	if err == nil || !strings.Contains(err.Error(), "supported archive") {
		t.Fatalf("expected unsupported file error, got %v", err)
	}
}

func TestScan_ConfigFileLimits(t *testing.T) {
	scanRoot := createScanFixture(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	mustWriteFile(t, cfgPath, "max_files: 2\nmax_types: 1\n")

	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"scan", "--config", cfgPath, scanRoot})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("scan returned error: %v", err)
	}

	if rows := section(stdout.String(), "Largest files"); len(rows) != 2 {
		t.Fatalf("expected 2 file rows, got %d:\n%s", len(rows), stdout.String())
	}
	if rows := section(stdout.String(), "Largest types"); len(rows) != 1 {
		t.Fatalf("expected 1 type row, got %d:\n%s", len(rows), stdout.String())
	}
}

func TestExport_ImportRoundTrip(t *testing.T) {
	scanRoot := createScanFixture(t)
	exportPath := filepath.Join(t.TempDir(), "scan.json")

	_, stderr, err := runRoot(t, "export", "-o", exportPath, scanRoot)
	if err != nil {
		t.Fatalf("export returned error: %v", err)
	}
	if !strings.Contains(stderr, "Exported to "+exportPath) {
		t.Fatalf("expected export confirmation, got:\n%s", stderr)
	}

	reExportPath := filepath.Join(t.TempDir(), "rescan.json")
	if _, _, err := runRoot(t, "export", "--import", exportPath, "-o", reExportPath); err != nil {
		t.Fatalf("re-export returned error: %v", err)
	}

	first := importedFiles(t, exportPath)
	if first[filepath.Join("keep", "sub", "b.go")] != int64(len("package main\n")) {
		t.Fatalf("expected keep/sub/b.go in export, got %v", first)
	}
	if got := importedFiles(t, reExportPath); !reflect.DeepEqual(got, first) {
		t.Fatalf("file set changed across import/export\ngot:  %v\nwant: %v", got, first)
	}
}

func TestImport_RejectsScanTargets(t *testing.T) {
	importPath := filepath.Join(t.TempDir(), "scan.json")

	_, _, err := runRoot(t, "scan", "--import", importPath, "alice@10.0.0.2")
	if err == nil || !strings.Contains(err.Error(), "--import cannot be used with scan targets") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestImport_MissingFile(t *testing.T) {
	missingImport := filepath.Join(t.TempDir(), "missing.json")
	exportPath := filepath.Join(t.TempDir(), "out.json")

	_, _, err := runRoot(t, "export", "--import", missingImport, "-o", exportPath)
	if err == nil || !strings.Contains(err.Error(), "importing:") {
		t.Fatalf("expected import error, got %v", err)
	}
	if _, err := os.Stat(exportPath); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runRoot(t, "version")
	if err != nil {
		t.Fatalf("version returned error: %v", err)
	}
	if strings.TrimSpace(stdout) != "birdseye "+version {
		t.Fatalf("unexpected version output %q", stdout)
	}
}

func TestConfigCommand_Init(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	run := func(args ...string) (string, error) {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs(append(args, "--config", cfgPath))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	out, err := run("config")
	if err != nil {
		t.Fatalf("config returned error: %v", err)
	}
	if !strings.Contains(out, "does not exist") {
		t.Fatalf("expected missing-file notice, got:\n%s", out)
	}

	if _, err := run("config", "--init"); err != nil {
		t.Fatalf("config --init returned error: %v", err)
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if !strings.Contains(string(data), "max_files: 40") {
		t.Fatalf("unexpected config contents:\n%s", data)
	}

	if _, err := run("config", "--init"); err == nil {
		t.Fatal("expected error when config file already exists")
	}
}

// runRoot executes the root command in-process with a config path that
// does not exist, so only built-in defaults and flags apply.
func runRoot(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--config", missingConfig(t)))
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()

	cmdArgs := append([]string{"-test.run=^TestCLIHelperProcess$", "--"}, args...)
	cmd := exec.Command(os.Args[0], cmdArgs...)
	cmd.Env = append(os.Environ(), helperEnvKey+"=1")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := cliResult{
		stdout: stdout.String(),
		stderr: stderr.String(),
	}
	if err == nil {
		return result
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("failed to execute helper process: %v", err)
	}
	result.exitCode = exitErr.ExitCode()
	return result
}

func missingConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

// section returns the indented rows printed under heading.
func section(report, heading string) []string {
	var rows []string
	in := false
	for _, line := range strings.Split(report, "\n") {
		switch {
		case line == heading:
			in = true
		case in && strings.HasPrefix(line, "  "):
			rows = append(rows, line)
		case in:
			return rows
		}
	}
	return rows
}

type collectSink struct {
	root  string
	files map[string]int64
}

func (c *collectSink) Entry(e scanner.Entry) {
	if e.IsDir {
		return
	}
	rel, err := filepath.Rel(c.root, e.Path)
	if err != nil {
		rel = e.Path
	}
	c.files[rel] = e.Size
}

func (c *collectSink) Skip(string, error) {}

// importedFiles replays an export and returns file sizes keyed by path
// relative to the exported root.
func importedFiles(t *testing.T, file string) map[string]int64 {
	t.Helper()

	root := filepath.Join(string(filepath.Separator), "replay")
	sink := &collectSink{root: root, files: make(map[string]int64)}
	if err := (ops.ImportEnumerator{File: file}).Enumerate(context.Background(), root, sink); err != nil {
		t.Fatalf("replaying %s: %v", file, err)
	}
	return sink.files
}

func createScanFixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	mustMkdirAll(t, filepath.Join(root, "keep", "sub"))
	mustMkdirAll(t, filepath.Join(root, "skip-one"))
	mustMkdirAll(t, filepath.Join(root, "skip-two"))

	mustWriteFile(t, filepath.Join(root, "keep", "a.txt"), "alpha")
	mustWriteFile(t, filepath.Join(root, "keep", "sub", "b.go"), "package main\n")
	mustWriteFile(t, filepath.Join(root, "skip-one", "ignored.log"), "ignore me")
	mustWriteFile(t, filepath.Join(root, "skip-two", "ignored.log"), "ignore me too, twice over")
	mustWriteFile(t, filepath.Join(root, ".hidden.txt"), "top secret")

	return root
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %q: %v", path, err)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}
