// Package export writes a canvas out as a standalone file.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strconv"

	"github.com/hyyve/flowcanvas/internal/engine"
	"github.com/hyyve/flowcanvas/internal/geom"
)

// Padding is the margin around the graph in exported images, in graph units.
const Padding = 40

// SVG draws the graph in graph coordinates: edges first, then nodes with
// their labels and handles. An empty graph gives an empty 1x1 image.
func SVG(e *engine.Engine) []byte {
	nodes, edges := e.Layout()

	box := e.ContentBounds()
	if box.IsEmpty() {
		box = geom.Rect{Width: 1, Height: 1}
	} else {
		box = box.Expand(Padding)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%s" height="%s">`+"\n",
		num(box.X), num(box.Y), num(box.Width), num(box.Height), num(box.Width), num(box.Height))

	for _, ev := range edges {
		fmt.Fprintf(&b, `  <path id=%q d="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
			ev.Edge.ID, ev.Path.SVG(), ev.Color)
		if ev.Label != "" {
			m := ev.Path.Midpoint
			fmt.Fprintf(&b, `  <text x="%s" y="%s" text-anchor="middle" font-size="12">%s</text>`+"\n",
				num(m.X), num(m.Y), html.EscapeString(ev.Label))
		}
	}

	for _, nv := range nodes {
		r := nv.Bounds
		dash := ""
		if !nv.Known {
			dash = ` stroke-dasharray="6 4"`
		}
		stroke := "#e2e8f0"
		if nv.Descriptor.Accent != "" {
			stroke = nv.Descriptor.Accent
		}
		radius := 8.0
		if nv.Descriptor.Render == "pill" {
			radius = r.Height / 2
		}
		fmt.Fprintf(&b, `  <g id=%q data-type=%q>`+"\n", nv.Node.ID, nv.Node.Type)
		fmt.Fprintf(&b, `    <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="#ffffff" stroke="%s"%s/>`+"\n",
			num(r.X), num(r.Y), num(r.Width), num(r.Height), num(radius), stroke, dash)
		c := r.Center()
		fmt.Fprintf(&b, `    <text x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-size="14">%s</text>`+"\n",
			num(c.X), num(c.Y), html.EscapeString(nodeLabel(nv)))
		for _, h := range nv.Descriptor.Handles {
			a := nv.HandleAnchor(h.ID)
			fmt.Fprintf(&b, `    <circle cx="%s" cy="%s" r="5" fill="%s"/>`+"\n", num(a.Point.X), num(a.Point.Y), stroke)
		}
		b.WriteString("  </g>\n")
	}

	b.WriteString("</svg>\n")
	return b.Bytes()
}

// nodeLabel prefers the "label" field of the node data, then the type's label.
func nodeLabel(nv engine.NodeView) string {
	var data struct {
		Label string `json:"label"`
	}
	if len(nv.Node.Data) > 0 && json.Unmarshal(nv.Node.Data, &data) == nil && data.Label != "" {
		return data.Label
	}
	if nv.Descriptor.Label != "" {
		return nv.Descriptor.Label
	}
	return nv.Node.Type
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
