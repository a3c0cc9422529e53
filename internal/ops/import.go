package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/birdseye/internal/scanner"
)

// ImportEnumerator replays an ncdu-compatible JSON export as a scan. The
// exported root is mapped onto the root passed to Enumerate.
type ImportEnumerator struct {
	File string
}

// ImportRoot returns the root directory name recorded in an export.
func ImportRoot(file string) (string, error) {
	elements, err := readExport(file)
	if err != nil {
		return "", err
	}
	var dir []json.RawMessage
	if err := json.Unmarshal(elements[3], &dir); err != nil || len(dir) == 0 {
		return "", fmt.Errorf("invalid ncdu format: root is not a directory array")
	}
	var entry ncduEntry
	if err := json.Unmarshal(dir[0], &entry); err != nil {
		return "", fmt.Errorf("cannot parse root entry: %w", err)
	}
	return entry.Name, nil
}

func readExport(file string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open import file: %w", err)
	}
	// Top level: [major, minor, header, rootDir]
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("invalid ncdu format: expected at least 4 elements, got %d", len(raw))
	}
	return raw, nil
}

func (e ImportEnumerator) Enumerate(ctx context.Context, root string, sink scanner.Sink) error {
	raw, err := readExport(e.File)
	if err != nil {
		return &scanner.RootError{Path: e.File, Err: err}
	}
	p := &importParser{ctx: ctx, sink: sink}
	if err := p.dir(raw[3], root, true); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &scanner.RootError{Path: e.File, Err: fmt.Errorf("cannot parse root directory: %w", err)}
	}
	return nil
}

type importParser struct {
	ctx  context.Context
	sink scanner.Sink
}

// dir walks one directory array: [{dir_entry}, child1, child2, ...]
// where objects are files and arrays are subdirectories.
func (p *importParser) dir(data json.RawMessage, path string, isRoot bool) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return fmt.Errorf("directory is not an array: %w", err)
	}
	if len(elements) == 0 {
		return fmt.Errorf("empty directory array")
	}

	var entry ncduEntry
	if err := json.Unmarshal(elements[0], &entry); err != nil {
		return fmt.Errorf("cannot parse directory entry: %w", err)
	}
	if !isRoot {
		path = filepath.Join(path, entry.Name)
	}
	p.sink.Entry(scanner.Entry{Path: path, IsDir: true, Modified: unixTime(entry.Mtime), ModifiedKnown: entry.Mtime != 0})
	if entry.Err {
		p.sink.Skip(path, fmt.Errorf("read error recorded in export"))
	}

	for i := 1; i < len(elements); i++ {
		child := trimLeadingWhitespace(elements[i])
		if len(child) == 0 {
			continue
		}
		switch child[0] {
		case '[':
			if err := p.dir(child, path, false); err != nil {
				return err
			}
		case '{':
			var f ncduEntry
			if err := json.Unmarshal(child, &f); err != nil {
				return fmt.Errorf("cannot parse file entry: %w", err)
			}
			filePath := filepath.Join(path, f.Name)
			if f.Err {
				p.sink.Skip(filePath, fmt.Errorf("read error recorded in export"))
				continue
			}
			p.sink.Entry(scanner.Entry{Path: filePath, Size: f.Asize, Modified: unixTime(f.Mtime), ModifiedKnown: f.Mtime != 0})
		default:
			return fmt.Errorf("unexpected child element at index %d", i)
		}
	}
	return nil
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func trimLeadingWhitespace(data []byte) []byte {
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return data[i:]
		}
	}
	return nil
}
