package demo

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/graphview"
	"github.com/knowgraph/knowgraph/internal/mastery"
	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// cell is one canvas position; style names an entry of canvas.styles and
// is empty for blank cells.
type cell struct {
	r     rune
	style string
}

type canvas struct {
	w, h   int
	cells  []cell
	styles map[string]lipgloss.Style
}

func newCanvas(w, h int) *canvas {
	return &canvas{w: w, h: h, cells: make([]cell, w*h), styles: make(map[string]lipgloss.Style)}
}

func (c *canvas) put(x, y int, r rune, style string) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{r: r, style: style}
}

func (c *canvas) text(x, y int, s string, style string) {
	for i, r := range []rune(s) {
		c.put(x+i, y, r, style)
	}
}

// line draws a straight segment with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int, r rune, style string) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.put(x0, y0, r, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// String renders row by row, styling each run of same-style cells once.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		row := c.cells[y*c.w : (y+1)*c.w]
		for x := 0; x < len(row); {
			end := x
			var run strings.Builder
			for end < len(row) && row[end].style == row[x].style {
				if row[end].style == "" {
					run.WriteByte(' ')
				} else {
					run.WriteRune(row[end].r)
				}
				end++
			}
			if row[x].style == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(c.styles[row[x].style].Render(run.String()))
			}
			x = end
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

var edgeGlyph = map[graphview.Emphasis]rune{
	graphview.EmphasisStrong:  '━',
	graphview.EmphasisWarning: '╍',
	graphview.EmphasisActive:  '─',
	graphview.EmphasisDormant: '·',
}

// renderGraph plots the view on a width x height character canvas. Node
// positions are percentages of the canvas; edges are drawn first so node
// labels stay readable.
func renderGraph(v graphview.View, width, height int) string {
	if width < 10 || height < 3 {
		return ""
	}
	c := newCanvas(width, height)
	pos := make(map[string][2]int, len(v.Nodes))
	for _, n := range v.Nodes {
		x := int(n.X / 100 * float64(width-1))
		y := int(n.Y / 100 * float64(height-1))
		pos[n.ID] = [2]int{x, y}
	}

	for _, e := range v.Edges {
		from, ok1 := pos[e.From]
		to, ok2 := pos[e.To]
		if !ok1 || !ok2 {
			continue
		}
		key := "edge:" + string(e.Emphasis)
		c.styles[key] = theme.Edge(e.Emphasis)
		c.line(from[0], from[1], to[0], to[1], edgeGlyph[e.Emphasis], key)
	}

	for _, n := range v.Nodes {
		label := nodeIcon(n.State) + " " + n.Label
		if n.Current {
			label = "[" + label + "]"
		}
		p := pos[n.ID]
		x := min(max(p[0]-lipgloss.Width(label)/2, 0), max(width-lipgloss.Width(label), 0))
		key := "node:" + n.ID
		style := lipgloss.NewStyle().Foreground(theme.StateColor(n.State))
		if n.Current {
			style = style.Bold(true)
		}
		c.styles[key] = style
		c.text(x, p[1], label, key)
	}
	return c.String()
}

// nodeIcon returns a single-cell marker; the lock emoji is two cells wide
// and would shift the canvas row.
func nodeIcon(st mastery.MasteryState) string {
	if st == mastery.StateLocked {
		return "○"
	}
	return st.Icon()
}

// renderEdgeList is the compact fallback: one line per edge.
func renderEdgeList(v graphview.View) string {
	labels := make(map[string]string, len(v.Nodes))
	for _, n := range v.Nodes {
		labels[n.ID] = n.Label
	}
	var b strings.Builder
	for _, e := range v.Edges {
		style := theme.Edge(e.Emphasis)
		b.WriteString(style.Render(labels[e.From] + " → " + labels[e.To]))
		b.WriteString(theme.Hint.Render("  " + string(e.Emphasis)))
		b.WriteString("\n")
	}
	return b.String()
}
