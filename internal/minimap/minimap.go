// Package minimap projects the whole graph and the visible viewport into a
// small overview panel.
package minimap

import (
	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/viewport"
)

// DefaultPadding is the inset, in minimap pixels, kept around the content.
const DefaultPadding = 5

// Projection maps graph coordinates into minimap-local coordinates.
type Projection struct {
	Scale  float64    `json:"scale"`
	Offset geom.Point `json:"offset"`
	// Bounds is the graph-space area shown: every node plus the visible viewport.
	Bounds geom.Rect `json:"bounds"`
	// VisibleRect is the on-screen part of the graph, in minimap coordinates.
	VisibleRect geom.Rect `json:"visibleRect"`
	// Nodes are the node rects in minimap coordinates, in input order.
	Nodes []geom.Rect `json:"nodes"`
}

// Project fits nodes and the current viewport into a minimap of size mini.
// The visible area is part of the bounds so the overlay never leaves the panel.
func Project(nodes []geom.Rect, vp viewport.Viewport, screen, mini geom.Size, padding float64) Projection {
	visible := viewport.VisibleRect(vp, screen)
	bounds := geom.Bounds(nodes).Union(visible)

	p := Projection{Bounds: bounds, Nodes: make([]geom.Rect, len(nodes))}

	innerW := mini.Width - 2*padding
	innerH := mini.Height - 2*padding
	if bounds.IsEmpty() || innerW <= 0 || innerH <= 0 {
		p.Scale = 1
		p.Offset = geom.Pt(mini.Width/2-bounds.Center().X, mini.Height/2-bounds.Center().Y)
	} else {
		p.Scale = min(innerW/bounds.Width, innerH/bounds.Height)
		p.Offset = geom.Pt(
			padding+(innerW-bounds.Width*p.Scale)/2-bounds.X*p.Scale,
			padding+(innerH-bounds.Height*p.Scale)/2-bounds.Y*p.Scale,
		)
	}

	m := p.Matrix()
	p.VisibleRect = m.ApplyRect(visible)
	for i, r := range nodes {
		p.Nodes[i] = m.ApplyRect(r)
	}
	return p
}

// Matrix returns the graph-to-minimap transform.
func (p Projection) Matrix() geom.Matrix2D {
	return geom.Translate(p.Offset.X, p.Offset.Y).Multiply(geom.Scale(p.Scale, p.Scale))
}

// ToMinimap converts a graph point into minimap coordinates.
func (p Projection) ToMinimap(g geom.Point) geom.Point {
	return g.Scale(p.Scale).Add(p.Offset)
}

// ToGraph converts a minimap point back into graph coordinates.
func (p Projection) ToGraph(m geom.Point) geom.Point {
	return m.Sub(p.Offset).Scale(1 / p.Scale)
}

// CenterOn returns vp panned so the graph point under the minimap point m is
// in the middle of a screen of the given size. Zoom is kept.
func (p Projection) CenterOn(m geom.Point, vp viewport.Viewport, screen geom.Size) viewport.Viewport {
	g := p.ToGraph(m)
	return viewport.Viewport{
		PanX: screen.Width/(2*vp.Zoom) - g.X,
		PanY: screen.Height/(2*vp.Zoom) - g.Y,
		Zoom: vp.Zoom,
	}
}
