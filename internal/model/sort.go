package model

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// SortField defines what to sort by.
type SortField int

const (
	SortBySize SortField = iota
	SortByName
	SortByMtime
)

// SortOrder defines ascending or descending.
type SortOrder int

const (
	SortDesc SortOrder = iota
	SortAsc
)

// SortConfig holds sort preferences for presented lists.
type SortConfig struct {
	Field SortField
	Order SortOrder
}

// DefaultSort returns size descending, the order ranked views use.
func DefaultSort() SortConfig {
	return SortConfig{Field: SortBySize, Order: SortDesc}
}

// Next cycles through the sort fields.
func (c SortConfig) Next() SortConfig {
	c.Field = (c.Field + 1) % 3
	c.Order = SortDesc
	if c.Field == SortByName {
		c.Order = SortAsc
	}
	return c
}

// String describes the config for status lines.
func (c SortConfig) String() string {
	var s string
	switch c.Field {
	case SortByName:
		s = "name"
	case SortByMtime:
		s = "mtime"
	default:
		s = "size"
	}
	if c.Order == SortAsc {
		return s + " ↑"
	}
	return s + " ↓"
}

// SortFiles sorts files in place. The sort is stable so equal keys keep
// their incoming order.
func SortFiles(files []File, cfg SortConfig) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		// Swapping for descending keeps strict weak ordering.
		if cfg.Order == SortDesc {
			a, b = b, a
		}
		switch cfg.Field {
		case SortByName:
			return natural.Less(strings.ToLower(filepath.Base(a.Path)), strings.ToLower(filepath.Base(b.Path)))
		case SortByMtime:
			if a.ModifiedKnown != b.ModifiedKnown {
				return !a.ModifiedKnown
			}
			return a.Modified.Before(b.Modified)
		default:
			return a.Size < b.Size
		}
	})
}

// SortDirectories sorts directories in place by combined size or name.
// SortByMtime falls back to size since directories carry no mtime.
func SortDirectories(dirs []*Directory, cfg SortConfig) {
	sort.SliceStable(dirs, func(i, j int) bool {
		a, b := dirs[i], dirs[j]
		if cfg.Order == SortDesc {
			a, b = b, a
		}
		if cfg.Field == SortByName {
			return natural.Less(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
		}
		return a.CombinedSize < b.CombinedSize
	})
}
