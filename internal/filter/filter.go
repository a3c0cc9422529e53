// Package filter narrows a ranked file list with a small, fixed set of
// predicates and a global result cap.
package filter

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/birdseye/internal/model"
)

const (
	bytesPerMB = 1024 * 1024
	day        = 24 * time.Hour

	// Parameters above these bounds cannot be turned into a byte count or
	// a time.Duration without overflowing.
	MaxDays    = int(math.MaxInt64 / int64(day))
	MaxMB      = math.MaxInt64 / bytesPerMB
	MaxResultN = math.MaxInt32
)

// Filter is one of MinAge, MaxAge, MinSize or MaxResults. The set is
// closed: only this package can add variants.
type Filter interface {
	fmt.Stringer
	// Label is a human-readable description for the UI.
	Label() string
	isFilter()
}

// MinAge hides files modified less than Days days ago.
type MinAge struct{ Days int }

// MaxAge hides files modified more than Days days ago.
type MaxAge struct{ Days int }

// MinSize hides files smaller than MB mebibytes.
type MinSize struct{ MB int64 }

// MaxResults stops evaluation once N files have been accepted.
type MaxResults struct{ N int }

func (MinAge) isFilter()     {}
func (MaxAge) isFilter()     {}
func (MinSize) isFilter()    {}
func (MaxResults) isFilter() {}

func (f MinAge) String() string     { return fmt.Sprintf("min-age=%d", f.Days) }
func (f MaxAge) String() string     { return fmt.Sprintf("max-age=%d", f.Days) }
func (f MinSize) String() string    { return fmt.Sprintf("min-size=%d", f.MB) }
func (f MaxResults) String() string { return fmt.Sprintf("max-results=%d", f.N) }

func (f MinAge) Label() string     { return fmt.Sprintf("Older than %d days", f.Days) }
func (f MaxAge) Label() string     { return fmt.Sprintf("Newer than %d days", f.Days) }
func (f MinSize) Label() string    { return fmt.Sprintf("Larger than %d MB", f.MB) }
func (f MaxResults) Label() string { return fmt.Sprintf("At most %d results", f.N) }

// Defaults are the starting values offered when a filter is added.
var Defaults = []Filter{MinSize{MB: 5}, MinAge{Days: 1}, MaxAge{Days: 30}, MaxResults{N: 50}}

// Chain is an ordered list of filters combined with AND semantics.
type Chain []Filter

// Evaluate returns the files that pass every per-file filter, in input
// order, stopping after the smallest MaxResults cap. The sequence is lazy
// and recomputed on each iteration.
func (c Chain) Evaluate(files []model.File, now time.Time) iter.Seq[model.File] {
	return func(yield func(model.File) bool) {
		limit, capped := c.limit()
		if capped && limit <= 0 {
			return
		}
		accepted := 0
		for _, f := range files {
			if !c.accepts(f, now) {
				continue
			}
			if !yield(f) {
				return
			}
			accepted++
			if capped && accepted >= limit {
				return
			}
		}
	}
}

func (c Chain) limit() (int, bool) {
	limit, capped := 0, false
	for _, f := range c {
		if m, ok := f.(MaxResults); ok && (!capped || m.N < limit) {
			limit, capped = m.N, true
		}
	}
	return limit, capped
}

func (c Chain) accepts(file model.File, now time.Time) bool {
	for _, f := range c {
		switch f := f.(type) {
		case MinSize:
			if f.MB > MaxMB || file.Size < f.MB*bytesPerMB {
				return false
			}
		case MinAge:
			if age, ok := file.Age(now); ok && (f.Days > MaxDays || age < days(f.Days)) {
				return false
			}
		case MaxAge:
			if age, ok := file.Age(now); ok && f.Days <= MaxDays && age > days(f.Days) {
				return false
			}
		case MaxResults:
		default:
			panic(fmt.Sprintf("filter: unhandled variant %T", f))
		}
	}
	return true
}

func days(n int) time.Duration { return time.Duration(n) * day }

// Strings formats the chain as specs accepted by ParseChain.
func (c Chain) Strings() []string {
	out := make([]string, len(c))
	for i, f := range c {
		out[i] = f.String()
	}
	return out
}

// Parse reads a single filter spec such as "min-size=5".
func Parse(spec string) (Filter, error) {
	name, value, ok := strings.Cut(strings.TrimSpace(spec), "=")
	if !ok {
		return nil, fmt.Errorf("filter %q: expected name=value", spec)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", spec, err)
	}
	if n < 0 {
		return nil, fmt.Errorf("filter %q: value must not be negative", spec)
	}
	var f Filter
	var bound int64
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "min-age":
		f, bound = MinAge{Days: int(min(n, int64(MaxDays)))}, int64(MaxDays)
	case "max-age":
		f, bound = MaxAge{Days: int(min(n, int64(MaxDays)))}, int64(MaxDays)
	case "min-size":
		f, bound = MinSize{MB: n}, MaxMB
	case "max-results":
		f, bound = MaxResults{N: int(min(n, MaxResultN))}, MaxResultN
	default:
		return nil, fmt.Errorf("filter %q: unknown filter %q", spec, name)
	}
	if n > bound {
		return nil, fmt.Errorf("filter %q: value must be at most %d", spec, bound)
	}
	return f, nil
}

// ParseChain parses specs in order.
func ParseChain(specs []string) (Chain, error) {
	c := make(Chain, 0, len(specs))
	for _, s := range specs {
		f, err := Parse(s)
		if err != nil {
			return nil, err
		}
		c = append(c, f)
	}
	return c, nil
}

// Step returns f with its parameter moved by delta, kept between zero and
// the bound Parse accepts.
func Step(f Filter, delta int) Filter {
	clamp := func(v, delta, hi int64) int64 {
		if delta > 0 && v > hi-delta {
			return hi
		}
		return min(max(v+delta, 0), hi)
	}
	d := int64(delta)
	switch f := f.(type) {
	case MinAge:
		return MinAge{Days: int(clamp(int64(f.Days), d, int64(MaxDays)))}
	case MaxAge:
		return MaxAge{Days: int(clamp(int64(f.Days), d, int64(MaxDays)))}
	case MinSize:
		return MinSize{MB: clamp(f.MB, d, MaxMB)}
	case MaxResults:
		return MaxResults{N: int(clamp(int64(f.N), d, MaxResultN))}
	default:
		panic(fmt.Sprintf("filter: unhandled variant %T", f))
	}
}
