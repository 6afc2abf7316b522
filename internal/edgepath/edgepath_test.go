package edgepath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/nodetype"
)

func anchor(x, y float64, side nodetype.Side) Anchor {
	return Anchor{Point: geom.Pt(x, y), Side: side}
}

func TestComputeForward(t *testing.T) {
	p := Compute(anchor(0, 0, nodetype.SideRight), anchor(100, 100, nodetype.SideLeft))

	assert.False(t, p.Straight)
	assert.Equal(t, geom.Pt(50, 0), p.Control1)
	assert.Equal(t, geom.Pt(50, 100), p.Control2)
	assert.Equal(t, geom.Pt(50, 50), p.Midpoint)
	assert.Equal(t, "M0,0 C50,0 50,100 100,100", p.SVG())
}

func TestComputeBackwardKeepsLoopVisible(t *testing.T) {
	p := Compute(anchor(100, 0, nodetype.SideRight), anchor(0, 0, nodetype.SideLeft))

	assert.InDelta(t, 162.5, p.Control1.X, 1e-9)
	assert.InDelta(t, -62.5, p.Control2.X, 1e-9)
}

func TestComputeVerticalSides(t *testing.T) {
	p := Compute(anchor(0, 0, nodetype.SideBottom), anchor(0, 200, nodetype.SideTop))
	assert.Equal(t, geom.Pt(0, 100), p.Control1)
	assert.Equal(t, geom.Pt(0, 100), p.Control2)
	assert.Equal(t, geom.Pt(0, 100), p.Midpoint)
}

func TestComputeDefaultsSides(t *testing.T) {
	withSides := Compute(anchor(0, 0, nodetype.SideRight), anchor(300, 40, nodetype.SideLeft))
	bare := Compute(Anchor{Point: geom.Pt(0, 0)}, Anchor{Point: geom.Pt(300, 40)})
	assert.Equal(t, withSides, bare)
}

func TestComputeZeroLength(t *testing.T) {
	p := Compute(anchor(10, 20, nodetype.SideRight), anchor(10, 20, nodetype.SideLeft))

	require.True(t, p.Straight)
	assert.Equal(t, geom.Pt(10, 20), p.Midpoint)
	for _, c := range p.Commands {
		for _, pt := range c.Points {
			assert.False(t, math.IsNaN(pt.X) || math.IsNaN(pt.Y))
		}
	}
	assert.Equal(t, "M10,20 L10,20", p.SVG())
	assert.InDelta(t, 5, p.Distance(geom.Pt(13, 24)), 1e-9)
}

func TestEndpoints(t *testing.T) {
	p := Compute(anchor(-40, 15, nodetype.SideRight), anchor(220, -80, nodetype.SideLeft))
	assert.True(t, p.Point(0).Near(p.Source))
	assert.True(t, p.Point(1).Near(p.Target))
}

func TestDistance(t *testing.T) {
	p := Compute(anchor(0, 0, nodetype.SideRight), anchor(100, 100, nodetype.SideLeft))

	assert.InDelta(t, 0, p.Distance(p.Midpoint), 1e-6)
	assert.InDelta(t, 0, p.Distance(geom.Pt(100, 100)), 1e-6)
	assert.Greater(t, p.Distance(geom.Pt(100, 0)), 20.0)
}

func TestBounds(t *testing.T) {
	p := Compute(anchor(0, 0, nodetype.SideRight), anchor(100, 100, nodetype.SideLeft))
	b := p.Bounds()
	assert.InDelta(t, 0, b.X, 1e-9)
	assert.InDelta(t, 0, b.Y, 1e-9)
	assert.InDelta(t, 100, b.Width, 1e-9)
	assert.InDelta(t, 100, b.Height, 1e-9)
}

func TestTransform(t *testing.T) {
	p := Compute(anchor(0, 0, nodetype.SideRight), anchor(100, 100, nodetype.SideLeft))
	m := geom.Scale(2, 2).Multiply(geom.Translate(10, 0))

	got := p.Transform(m)
	assert.Equal(t, geom.Pt(20, 0), got.Source)
	assert.Equal(t, geom.Pt(120, 100), got.Midpoint)
	assert.Equal(t, "M20,0 C120,0 120,200 220,200", got.SVG())
	assert.Equal(t, "M0,0 C50,0 50,100 100,100", p.SVG(), "original untouched")
}
