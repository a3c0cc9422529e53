package util

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatSize returns a human-readable size in binary units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatCount returns a short count string such as 1.5K.
func FormatCount(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1_000_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	if n < 1_000_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
}

// FormatCountExact returns n with thousands separators.
func FormatCountExact(n int64) string {
	return humanize.Comma(n)
}

// FormatAge describes then relative to now, or "unknown" when the time
// could not be read.
func FormatAge(then time.Time, known bool, now time.Time) string {
	if !known {
		return "unknown"
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

// Percent returns the percentage of part relative to total.
func Percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// TruncateString truncates a string to maxLen runes, adding "..." if needed.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
