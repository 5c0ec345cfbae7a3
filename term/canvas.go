// Package term renders script output to a fixed-size cell grid and exposes
// the drawing surface to scripts as native functions.
package term

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type cell struct {
	r     rune
	style *lipgloss.Style
}

// Canvas is a w×h grid of styled runes. One canvas backs one run loop; the
// render hook draws into it and the host emits Render() as the frame.
// Styles are held by pointer so a whole run of cells drawn with the same
// style renders in one escape-sequence burst.
type Canvas struct {
	w, h  int
	cells [][]cell
	plain *lipgloss.Style
}

// NewCanvas allocates a cleared canvas of the given size.
func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	plain := lipgloss.NewStyle()
	c := &Canvas{w: w, h: h, plain: &plain}
	c.cells = make([][]cell, h)
	for y := range c.cells {
		c.cells[y] = make([]cell, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Width() int  { return c.w }
func (c *Canvas) Height() int { return c.h }

// Resize reallocates the grid for a new terminal size and clears it. The
// next render hook redraws the frame from scratch anyway.
func (c *Canvas) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c.w, c.h = w, h
	c.cells = make([][]cell, h)
	for y := range c.cells {
		c.cells[y] = make([]cell, w)
	}
	c.Clear()
}

// Clear resets every cell to an unstyled space.
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = cell{r: ' ', style: c.plain}
		}
	}
}

// SetCell writes one rune; out-of-bounds writes are clipped, not errors,
// so scripts can draw shapes that partially leave the screen.
func (c *Canvas) SetCell(x, y int, r rune, style *lipgloss.Style) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	if style == nil {
		style = c.plain
	}
	c.cells[y][x] = cell{r: r, style: style}
}

// Text draws a string left-to-right starting at (x, y).
func (c *Canvas) Text(x, y int, s string, style *lipgloss.Style) {
	for i, r := range []rune(s) {
		c.SetCell(x+i, y, r, style)
	}
}

// Box draws a single-line border rectangle.
func (c *Canvas) Box(x, y, w, h int, style *lipgloss.Style) {
	if w < 2 || h < 2 {
		return
	}
	for i := 1; i < w-1; i++ {
		c.SetCell(x+i, y, '─', style)
		c.SetCell(x+i, y+h-1, '─', style)
	}
	for j := 1; j < h-1; j++ {
		c.SetCell(x, y+j, '│', style)
		c.SetCell(x+w-1, y+j, '│', style)
	}
	c.SetCell(x, y, '┌', style)
	c.SetCell(x+w-1, y, '┐', style)
	c.SetCell(x, y+h-1, '└', style)
	c.SetCell(x+w-1, y+h-1, '┘', style)
}

// Fill paints a solid rectangle with one rune.
func (c *Canvas) Fill(x, y, w, h int, r rune, style *lipgloss.Style) {
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			c.SetCell(x+i, y+j, r, style)
		}
	}
}

// Render emits the frame as h newline-separated lines, grouping runs of
// cells that share a style into a single styled segment.
func (c *Canvas) Render() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		x := 0
		for x < c.w {
			st := c.cells[y][x].style
			var run strings.Builder
			for x < c.w && c.cells[y][x].style == st {
				run.WriteRune(c.cells[y][x].r)
				x++
			}
			b.WriteString(st.Render(run.String()))
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
