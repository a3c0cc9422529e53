package components

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/birdseye/internal/ui/style"
	"github.com/sadopc/birdseye/internal/util"
)

// MapItem is one tile of a treemap.
type MapItem struct {
	Label string
	Size  int64
	Color lipgloss.Color
}

type rect struct{ x, y, w, h int }

type tile struct {
	label string
	size  int64
	color lipgloss.Color
}

type cell struct {
	ch rune
	bg lipgloss.Color
}

// canvas is a width x height grid of cells; writes outside it are dropped.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int, bg lipgloss.Color) *canvas {
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i] = cell{ch: ' ', bg: bg}
	}
	return c
}

func (c *canvas) set(x, y int, ch rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.cells[y*c.w+x].ch = ch
	}
}

func (c *canvas) fill(r rect, bg lipgloss.Color) {
	for y := r.y; y < r.y+r.h; y++ {
		for x := r.x; x < r.x+r.w; x++ {
			if x < c.w && y < c.h {
				c.cells[y*c.w+x] = cell{ch: ' ', bg: bg}
			}
		}
	}
}

func (c *canvas) frame(r rect) {
	if r.w < 2 || r.h < 2 {
		return
	}
	right, bottom := r.x+r.w-1, r.y+r.h-1
	for x := r.x + 1; x < right; x++ {
		c.set(x, r.y, '─')
		c.set(x, bottom, '─')
	}
	for y := r.y + 1; y < bottom; y++ {
		c.set(r.x, y, '│')
		c.set(right, y, '│')
	}
	c.set(r.x, r.y, '┌')
	c.set(right, r.y, '┐')
	c.set(r.x, bottom, '└')
	c.set(right, bottom, '┘')
}

// label writes text on the first inner row of r.
func (c *canvas) label(r rect, text string) {
	inner := r.w - 2
	if inner <= 0 || r.h < 3 {
		return
	}
	for i, ch := range []rune(util.TruncateString(text, inner)) {
		c.set(r.x+1+i, r.y+1, ch)
	}
}

func (c *canvas) render(fg lipgloss.Color) string {
	glyph := lipgloss.NewStyle().Foreground(fg)
	lines := make([]string, c.h)
	for y := range c.h {
		var b strings.Builder
		for _, cl := range c.cells[y*c.w : (y+1)*c.w] {
			if cl.ch == ' ' {
				b.WriteString(lipgloss.NewStyle().Background(cl.bg).Render(" "))
			} else {
				b.WriteString(glyph.Render(string(cl.ch)))
			}
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// RenderTreemap renders items as a treemap whose tile areas follow item
// sizes. Items beyond what fits are folded into one "other" tile.
func RenderTreemap(theme style.Theme, items []MapItem, width, height int) string {
	if height <= 0 || width <= 0 {
		return ""
	}

	tiles := make([]tile, 0, len(items))
	for _, it := range items {
		if it.Size <= 0 {
			continue
		}
		color := it.Color
		if color == "" {
			color = theme.Accent
		}
		tiles = append(tiles, tile{label: fmt.Sprintf("%s %s", it.Label, util.FormatSize(it.Size)), size: it.Size, color: color})
	}
	if len(tiles) == 0 {
		return lipgloss.NewStyle().Foreground(theme.TextMuted).Render("  (no items with size)")
	}
	slices.SortStableFunc(tiles, func(a, b tile) int { return cmp.Compare(b.size, a.size) })

	if maxTiles := max(width*height/8, 5); len(tiles) > maxTiles {
		var rest int64
		for _, t := range tiles[maxTiles-1:] {
			rest += t.size
		}
		tiles = append(tiles[:maxTiles-1], tile{
			label: fmt.Sprintf("other (%s)", util.FormatSize(rest)),
			size:  rest,
			color: theme.Muted,
		})
	}

	c := newCanvas(width, height, theme.BgDark)
	rects := make([]rect, len(tiles))
	split(tiles, rects, rect{0, 0, width, height})
	for i, r := range rects {
		if r.w <= 0 || r.h <= 0 {
			continue
		}
		c.fill(r, tiles[i].color)
		c.frame(r)
		c.label(r, tiles[i].label)
	}
	return c.render(theme.TextPrimary)
}

// split lays tiles (sorted by size, descending) out in bounds. The tiles are
// cut into two runs at the point giving the squarest first run, and each
// run recurses into its share of the longer side.
func split(tiles []tile, out []rect, bounds rect) {
	if len(tiles) == 0 || bounds.w <= 0 || bounds.h <= 0 {
		return
	}
	if len(tiles) == 1 {
		out[0] = bounds
		return
	}

	var total int64
	for _, t := range tiles {
		total += t.size
	}
	if total <= 0 {
		return
	}

	across := bounds.w >= bounds.h
	long, short := float64(bounds.w), float64(bounds.h)
	if !across {
		long, short = short, long
	}

	cut, best := 1, -1.0
	var run int64
	for i := 0; i < len(tiles)-1; i++ {
		run += tiles[i].size
		side := float64(run) / float64(total) * long
		ratio := max(side/short, short/side)
		if best < 0 || ratio < best {
			cut, best = i+1, ratio
		}
	}

	var head int64
	for _, t := range tiles[:cut] {
		head += t.size
	}
	frac := float64(head) / float64(total)

	a, b := bounds, bounds
	if across {
		n := min(max(int(frac*float64(bounds.w)), 1), bounds.w-1)
		a.w = n
		b.x, b.w = bounds.x+n, bounds.w-n
	} else {
		n := min(max(int(frac*float64(bounds.h)), 1), bounds.h-1)
		a.h = n
		b.y, b.h = bounds.y+n, bounds.h-n
	}
	split(tiles[:cut], out[:cut], a)
	split(tiles[cut:], out[cut:], b)
}
