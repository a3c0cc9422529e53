package model

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Entry is one enumerated item: a file with its size and modification time,
// or a directory. Enumerators produce entries; the Builder consumes them.
type Entry struct {
	Path          string
	Size          int64
	Modified      time.Time
	ModifiedKnown bool
	IsDir         bool
}

// File is a single file in the catalog.
type File struct {
	Path          string
	Size          int64
	Modified      time.Time
	ModifiedKnown bool // false when the modification time could not be read
}

// Name returns the final path element.
func (f File) Name() string { return filepath.Base(f.Path) }

// Ext returns the grouping key of the file, see Extension.
func (f File) Ext() string { return Extension(filepath.Base(f.Path)) }

// Age returns how long before now the file was last modified. ok is false
// when the modification time is unknown or lies in the future.
func (f File) Age(now time.Time) (age time.Duration, ok bool) {
	if !f.ModifiedKnown {
		return 0, false
	}
	age = now.Sub(f.Modified)
	if age < 0 {
		return 0, false
	}
	return age, true
}

// Directory is one node of the directory arena. Subdirectories hold the
// paths of child directories, which are keys of the same arena.
type Directory struct {
	Path           string
	OwnSize        int64 // sum of files directly inside
	CombinedSize   int64 // OwnSize plus CombinedSize of every subdirectory
	Files          []File
	Subdirectories []string
}

// Name returns the final path element.
func (d *Directory) Name() string { return filepath.Base(d.Path) }

func (d *Directory) clone() *Directory {
	cp := *d
	cp.Files = slices.Clone(d.Files)
	cp.Subdirectories = slices.Clone(d.Subdirectories)
	return &cp
}

// ExtensionGroup aggregates all files sharing an extension.
type ExtensionGroup struct {
	Ext      string
	Size     int64
	Files    []File
	Category FileCategory
}

// Snapshot is a self-consistent catalog of a scan at one point in time.
// It is owned by a single goroutine; producers hand over freshly built
// snapshots and never touch them again. Views returned by accessors must
// be treated as read-only.
type Snapshot struct {
	id       string
	scanID   string
	root     string
	complete bool

	tree  map[string]*Directory
	order []string // directory paths in first-seen order
	files []File

	combinedSize int64
	filesBySize  []File
	dirsBySize   []*Directory
	typesBySize  []ExtensionGroup
}

// ID identifies this snapshot.
func (s *Snapshot) ID() string { return s.id }

// ScanID identifies the scan that produced this snapshot.
func (s *Snapshot) ScanID() string { return s.scanID }

// Root returns the scan root.
func (s *Snapshot) Root() string { return s.root }

// Complete reports whether this is the final snapshot of its scan.
func (s *Snapshot) Complete() bool { return s.complete }

// CombinedSize is the combined size of the root directory.
func (s *Snapshot) CombinedSize() int64 { return s.combinedSize }

// Files returns every file in discovery order.
func (s *Snapshot) Files() []File { return s.files }

// Len returns the number of files.
func (s *Snapshot) Len() int { return len(s.files) }

// DirCount returns the number of directories in the arena.
func (s *Snapshot) DirCount() int { return len(s.order) }

// FilesBySize returns all files, largest first.
func (s *Snapshot) FilesBySize() []File { return s.filesBySize }

// DirsBySize returns all directories, largest combined size first.
func (s *Snapshot) DirsBySize() []*Directory { return s.dirsBySize }

// TypesBySize returns extension groups, largest total first.
func (s *Snapshot) TypesBySize() []ExtensionGroup { return s.typesBySize }

// Directory looks up a directory by path.
func (s *Snapshot) Directory(path string) (*Directory, bool) {
	d, ok := s.tree[filepath.Clean(path)]
	return d, ok
}

// Directories returns directories in first-seen order.
func (s *Snapshot) Directories() []*Directory {
	out := make([]*Directory, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, s.tree[p])
	}
	return out
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *Snapshot) Clone() *Snapshot {
	cp := &Snapshot{
		id:       s.id,
		scanID:   s.scanID,
		root:     s.root,
		complete: s.complete,
		tree:     make(map[string]*Directory, len(s.tree)),
		order:    slices.Clone(s.order),
		files:    slices.Clone(s.files),
	}
	for p, d := range s.tree {
		cp.tree[p] = d.clone()
	}
	cp.Recompute()
	return cp
}

// Recompute rebuilds every directory size and all derived views from the
// arena and the file list. It is idempotent.
func (s *Snapshot) Recompute() {
	for _, p := range s.order {
		d := s.tree[p]
		var own int64
		for _, f := range d.Files {
			own = saturatingAddInt64(own, f.Size)
		}
		d.OwnSize = own
	}

	done := make(map[string]bool, len(s.order))
	var combine func(d *Directory) int64
	combine = func(d *Directory) int64 {
		if done[d.Path] {
			return d.CombinedSize
		}
		// Mark before descending so a malformed cycle cannot recurse forever.
		done[d.Path] = true
		total := d.OwnSize
		for _, sub := range d.Subdirectories {
			if child, ok := s.tree[sub]; ok {
				total = saturatingAddInt64(total, combine(child))
			}
		}
		d.CombinedSize = total
		return total
	}
	for _, p := range s.order {
		combine(s.tree[p])
	}

	s.combinedSize = 0
	if r, ok := s.tree[s.root]; ok {
		s.combinedSize = r.CombinedSize
	}

	s.filesBySize = slices.Clone(s.files)
	sort.SliceStable(s.filesBySize, func(i, j int) bool {
		return s.filesBySize[i].Size > s.filesBySize[j].Size
	})

	s.dirsBySize = s.Directories()
	sort.SliceStable(s.dirsBySize, func(i, j int) bool {
		return s.dirsBySize[i].CombinedSize > s.dirsBySize[j].CombinedSize
	})

	index := make(map[string]int)
	s.typesBySize = s.typesBySize[:0:0]
	for _, f := range s.files {
		ext := f.Ext()
		i, ok := index[ext]
		if !ok {
			i = len(s.typesBySize)
			index[ext] = i
			s.typesBySize = append(s.typesBySize, ExtensionGroup{Ext: ext, Category: ClassifyExt(ext)})
		}
		g := &s.typesBySize[i]
		g.Size = saturatingAddInt64(g.Size, f.Size)
		g.Files = append(g.Files, f)
	}
	sort.SliceStable(s.typesBySize, func(i, j int) bool {
		return s.typesBySize[i].Size > s.typesBySize[j].Size
	})
}

// Remove applies a completed deletion to the catalog. A directory path
// drops that node together with every descendant directory and file; a
// file path drops the file. It reports whether anything was removed and
// leaves the snapshot untouched when path is absent.
func (s *Snapshot) Remove(path string) bool {
	path = filepath.Clean(path)
	removed := false

	if _, ok := s.tree[path]; ok {
		for _, p := range s.order {
			if isWithin(path, p) {
				delete(s.tree, p)
			}
		}
		s.order = slices.DeleteFunc(s.order, func(p string) bool { return isWithin(path, p) })
		s.files = slices.DeleteFunc(s.files, func(f File) bool { return isWithin(path, f.Path) })
		if parent, ok := s.tree[filepath.Dir(path)]; ok {
			parent.Subdirectories = slices.DeleteFunc(parent.Subdirectories, func(p string) bool { return p == path })
		}
		removed = true
	}

	n := len(s.files)
	s.files = slices.DeleteFunc(s.files, func(f File) bool { return f.Path == path })
	if len(s.files) != n {
		if parent, ok := s.tree[filepath.Dir(path)]; ok {
			parent.Files = slices.DeleteFunc(parent.Files, func(f File) bool { return f.Path == path })
		}
		removed = true
	}

	if removed {
		s.Recompute()
	}
	return removed
}

// isWithin reports whether p is root or lies below it.
func isWithin(root, p string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

func saturatingAddInt64(a, b int64) int64 {
	if b > 0 && a > maxInt64-b {
		return maxInt64
	}
	return a + b
}
