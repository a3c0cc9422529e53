package model

import (
	"path/filepath"
	"slices"

	"github.com/google/uuid"
)

// Builder accumulates entries into a private arena and hands out
// independent snapshots of it. A Builder is used by one goroutine.
type Builder struct {
	root   string
	scanID string
	tree   map[string]*Directory
	order  []string
	files  []File
	seen   int
}

// NewBuilder returns a builder whose arena already holds root.
func NewBuilder(root, scanID string) *Builder {
	b := &Builder{
		root:   filepath.Clean(root),
		scanID: scanID,
		tree:   make(map[string]*Directory),
	}
	b.ensureDir(b.root)
	return b
}

// Root returns the cleaned root path.
func (b *Builder) Root() string { return b.root }

// Seen returns the number of entries added so far.
func (b *Builder) Seen() int { return b.seen }

// Add records one entry. Missing ancestors between the entry and the root
// are created so the arena is always a well-formed tree.
func (b *Builder) Add(e Entry) {
	b.seen++
	p := filepath.Clean(e.Path)
	if e.IsDir {
		b.ensureDir(p)
		return
	}
	parent := b.ensureDir(filepath.Dir(p))
	size := e.Size
	if size < 0 {
		size = 0
	}
	f := File{Path: p, Size: size, Modified: e.Modified, ModifiedKnown: e.ModifiedKnown}
	parent.Files = append(parent.Files, f)
	b.files = append(b.files, f)
}

func (b *Builder) ensureDir(p string) *Directory {
	if d, ok := b.tree[p]; ok {
		return d
	}
	var parent *Directory
	if p != b.root && isWithin(b.root, p) {
		parent = b.ensureDir(filepath.Dir(p))
	}
	d := &Directory{Path: p}
	b.tree[p] = d
	b.order = append(b.order, p)
	if parent != nil {
		parent.Subdirectories = append(parent.Subdirectories, p)
	}
	return d
}

// Snapshot returns a deep copy of the arena with all derived views
// computed. The builder keeps no reference to it.
func (b *Builder) Snapshot(complete bool) *Snapshot {
	s := &Snapshot{
		id:       uuid.NewString(),
		scanID:   b.scanID,
		root:     b.root,
		complete: complete,
		tree:     make(map[string]*Directory, len(b.tree)),
		order:    slices.Clone(b.order),
		files:    slices.Clone(b.files),
	}
	for p, d := range b.tree {
		s.tree[p] = d.clone()
	}
	s.Recompute()
	return s
}
