// Package viewport converts between screen pixels and graph coordinates.
//
// A Viewport stores its pan offset in graph units, so the mapping is
//
//	screen = (graph + pan) * zoom
//	graph  = screen / zoom - pan
//
// Every function here is pure: it takes a Viewport value and returns a new one.
// Callers recompute from the previous viewport on every frame, so high frequency
// wheel input does not accumulate drift.
package viewport

import (
	"math"

	"github.com/hyyve/flowcanvas/internal/geom"
)

const (
	DefaultZoomMin = 0.1
	DefaultZoomMax = 2.0

	// ZoomStep is the factor applied by the zoom in/out controls.
	ZoomStep = 1.2

	// DefaultFitPadding is the fraction of the content size left around it by FitView.
	DefaultFitPadding = 0.2
)

// Viewport is the pan/zoom transform of one canvas.
type Viewport struct {
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
	Zoom float64 `json:"zoom"`
}

// Identity returns a viewport with no pan and zoom 1.
func Identity() Viewport {
	return Viewport{Zoom: 1}
}

// Limits bounds the zoom factor.
type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultLimits returns the 0.1–2.0 zoom range.
func DefaultLimits() Limits {
	return Limits{Min: DefaultZoomMin, Max: DefaultZoomMax}
}

// Clamp forces zoom into [Min, Max]. Out-of-range zoom is corrected, never rejected.
func (l Limits) Clamp(zoom float64) float64 {
	if math.IsNaN(zoom) {
		return l.Min
	}
	return math.Min(math.Max(zoom, l.Min), l.Max)
}

// Valid reports whether the limits describe a usable range.
func (l Limits) Valid() bool {
	return l.Min > 0 && l.Max >= l.Min && !math.IsInf(l.Max, 0)
}

// Matrix returns the graph-to-screen affine transform.
func (v Viewport) Matrix() geom.Matrix2D {
	return geom.Scale(v.Zoom, v.Zoom).Multiply(geom.Translate(v.PanX, v.PanY))
}

// ScreenToGraph converts a screen point into graph coordinates.
func ScreenToGraph(p geom.Point, v Viewport) geom.Point {
	return geom.Point{
		X: p.X/v.Zoom - v.PanX,
		Y: p.Y/v.Zoom - v.PanY,
	}
}

// GraphToScreen converts a graph point into screen coordinates.
func GraphToScreen(p geom.Point, v Viewport) geom.Point {
	return geom.Point{
		X: (p.X + v.PanX) * v.Zoom,
		Y: (p.Y + v.PanY) * v.Zoom,
	}
}

// ZoomAt multiplies the zoom by factor while keeping the graph point under focal
// (a screen point) fixed on screen. The result is clamped to limits.
// A non-positive or non-finite factor leaves the viewport unchanged.
func ZoomAt(v Viewport, focal geom.Point, factor float64, limits Limits) Viewport {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return v
	}
	return ZoomTo(v, focal, v.Zoom*factor, limits)
}

// ZoomTo sets an absolute zoom level around a focal screen point.
func ZoomTo(v Viewport, focal geom.Point, zoom float64, limits Limits) Viewport {
	anchor := ScreenToGraph(focal, v)
	z := limits.Clamp(zoom)
	return Viewport{
		PanX: focal.X/z - anchor.X,
		PanY: focal.Y/z - anchor.Y,
		Zoom: z,
	}
}

// PanBy moves the viewport by a screen-space delta. The pan offset is in graph
// units, so the delta is divided by the current zoom.
func PanBy(v Viewport, delta geom.Point) Viewport {
	return Viewport{
		PanX: v.PanX + delta.X/v.Zoom,
		PanY: v.PanY + delta.Y/v.Zoom,
		Zoom: v.Zoom,
	}
}

// ZoomIn zooms by ZoomStep around the centre of a viewport of the given size.
func ZoomIn(v Viewport, size geom.Size, limits Limits) Viewport {
	return ZoomAt(v, geom.Pt(size.Width/2, size.Height/2), ZoomStep, limits)
}

// ZoomOut zooms by 1/ZoomStep around the centre of a viewport of the given size.
func ZoomOut(v Viewport, size geom.Size, limits Limits) Viewport {
	return ZoomAt(v, geom.Pt(size.Width/2, size.Height/2), 1/ZoomStep, limits)
}

// VisibleRect returns the part of the graph currently on screen, in graph coordinates.
func VisibleRect(v Viewport, size geom.Size) geom.Rect {
	return geom.RectFromPoints(
		ScreenToGraph(geom.Pt(0, 0), v),
		ScreenToGraph(geom.Pt(size.Width, size.Height), v),
	)
}

// FitView returns a viewport that centres bounds on screen with padding
// (a fraction of the content size) around it. Empty bounds only recentre.
func FitView(bounds geom.Rect, size geom.Size, padding float64, limits Limits) Viewport {
	if size.IsEmpty() {
		return Identity()
	}

	zoom := 1.0
	if !bounds.IsEmpty() {
		zx := size.Width / (bounds.Width * (1 + padding))
		zy := size.Height / (bounds.Height * (1 + padding))
		zoom = math.Min(zx, zy)
	}
	zoom = limits.Clamp(zoom)

	c := bounds.Center()
	return Viewport{
		PanX: size.Width/(2*zoom) - c.X,
		PanY: size.Height/(2*zoom) - c.Y,
		Zoom: zoom,
	}
}

// WheelMode mirrors DOM WheelEvent.deltaMode.
type WheelMode int

const (
	WheelPixel WheelMode = 0
	WheelLine  WheelMode = 1
	WheelPage  WheelMode = 2
)

// WheelFactor converts a wheel delta into a multiplicative zoom factor.
// Scrolling down (positive deltaY) zooms out.
func WheelFactor(deltaY float64, mode WheelMode) float64 {
	k := 0.002
	switch mode {
	case WheelLine:
		k = 0.05
	case WheelPage:
		k = 1
	}
	return math.Pow(2, -deltaY*k)
}
