// Package edgepath computes the cubic Bezier curves used to draw edges,
// place their labels and hit-test them.
package edgepath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/nodetype"
)

// Curvature scales the control offset when the target lies behind the source.
const Curvature = 0.25

// hitSamples is the number of segments used to flatten a curve.
const hitSamples = 32

// Anchor is a handle position and the side of the node it leaves from.
type Anchor struct {
	Point geom.Point
	Side  nodetype.Side
}

// Op is a path command verb.
type Op string

const (
	MoveTo  Op = "M"
	LineTo  Op = "L"
	CurveTo Op = "C"
)

// Command is one drawing instruction. CurveTo carries two control points and an end point.
type Command struct {
	Op     Op           `json:"op"`
	Points []geom.Point `json:"points"`
}

// Path is a computed edge curve.
type Path struct {
	Commands []Command  `json:"commands"`
	Midpoint geom.Point `json:"midpoint"`

	Source   geom.Point `json:"-"`
	Target   geom.Point `json:"-"`
	Control1 geom.Point `json:"-"`
	Control2 geom.Point `json:"-"`
	Straight bool       `json:"straight,omitempty"`
}

// Compute returns the curve from source to target. Coincident anchors yield a
// straight zero-length segment instead of a degenerate curve.
func Compute(source, target Anchor) Path {
	s, t := source.Point, target.Point
	p := Path{Source: s, Target: t}

	if s.Near(t) || !s.IsFinite() || !t.IsFinite() {
		p.Straight = true
		p.Control1, p.Control2 = s, t
		p.Midpoint = geom.Pt((s.X+t.X)/2, (s.Y+t.Y)/2)
		p.Commands = []Command{
			{Op: MoveTo, Points: []geom.Point{s}},
			{Op: LineTo, Points: []geom.Point{t}},
		}
		return p
	}

	p.Control1 = control(sideOr(source.Side, nodetype.SideRight), s, t)
	p.Control2 = control(sideOr(target.Side, nodetype.SideLeft), t, s)
	p.Midpoint = p.Point(0.5)
	p.Commands = []Command{
		{Op: MoveTo, Points: []geom.Point{s}},
		{Op: CurveTo, Points: []geom.Point{p.Control1, p.Control2, t}},
	}
	return p
}

func sideOr(s, fallback nodetype.Side) nodetype.Side {
	if s == "" {
		return fallback
	}
	return s
}

// offset is half the forward distance, or a curvature-scaled square root when
// the other end lies behind the handle so loops stay visible.
func offset(distance float64) float64 {
	if distance >= 0 {
		return 0.5 * distance
	}
	return Curvature * 25 * math.Sqrt(-distance)
}

func control(side nodetype.Side, from, to geom.Point) geom.Point {
	switch side {
	case nodetype.SideLeft:
		return geom.Pt(from.X-offset(from.X-to.X), from.Y)
	case nodetype.SideTop:
		return geom.Pt(from.X, from.Y-offset(from.Y-to.Y))
	case nodetype.SideBottom:
		return geom.Pt(from.X, from.Y+offset(to.Y-from.Y))
	default:
		return geom.Pt(from.X+offset(to.X-from.X), from.Y)
	}
}

// Point evaluates the curve at t in [0,1].
func (p Path) Point(t float64) geom.Point {
	if p.Straight {
		return geom.Pt(p.Source.X+(p.Target.X-p.Source.X)*t, p.Source.Y+(p.Target.Y-p.Source.Y)*t)
	}
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return geom.Pt(
		a*p.Source.X+b*p.Control1.X+c*p.Control2.X+d*p.Target.X,
		a*p.Source.Y+b*p.Control1.Y+c*p.Control2.Y+d*p.Target.Y,
	)
}

// Distance returns the approximate shortest distance from q to the curve.
func (p Path) Distance(q geom.Point) float64 {
	best := math.Inf(1)
	prev := p.Point(0)
	for i := 1; i <= hitSamples; i++ {
		next := p.Point(float64(i) / hitSamples)
		best = min(best, segmentDistance(q, prev, next))
		prev = next
	}
	return best
}

// Bounds returns the rect enclosing the flattened curve.
func (p Path) Bounds() geom.Rect {
	minP, maxP := p.Source, p.Source
	for i := 1; i <= hitSamples; i++ {
		q := p.Point(float64(i) / hitSamples)
		minP = geom.Pt(min(minP.X, q.X), min(minP.Y, q.Y))
		maxP = geom.Pt(max(maxP.X, q.X), max(maxP.Y, q.Y))
	}
	return geom.RectFromPoints(minP, maxP)
}

// Transform maps every point of the path through m.
func (p Path) Transform(m geom.Matrix2D) Path {
	out := p
	out.Source, out.Target = m.Apply(p.Source), m.Apply(p.Target)
	out.Control1, out.Control2 = m.Apply(p.Control1), m.Apply(p.Control2)
	out.Midpoint = m.Apply(p.Midpoint)
	out.Commands = make([]Command, len(p.Commands))
	for i, c := range p.Commands {
		pts := make([]geom.Point, len(c.Points))
		for j, pt := range c.Points {
			pts[j] = m.Apply(pt)
		}
		out.Commands[i] = Command{Op: c.Op, Points: pts}
	}
	return out
}

// SVG renders the commands as an SVG path "d" attribute.
func (p Path) SVG() string {
	var b strings.Builder
	for i, c := range p.Commands {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(c.Op))
		for j, pt := range c.Points {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s,%s", num(pt.X), num(pt.Y))
		}
	}
	return b.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func segmentDistance(q, a, b geom.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return q.Distance(a)
	}
	t := ((q.X-a.X)*ab.X + (q.Y-a.Y)*ab.Y) / l2
	t = max(0, min(1, t))
	return q.Distance(a.Add(ab.Scale(t)))
}
