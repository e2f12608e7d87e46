package censor

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Region is an axis-aligned box. Width and Height are never negative.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewRegion(x, y, width, height float64) Region {
	return Region{
		X:      x,
		Y:      y,
		Width:  maxFloat64(0, width),
		Height: maxFloat64(0, height),
	}
}

func NewRegionFrom(rect image.Rectangle) Region {
	return Region{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// TopLeft returns region's top-left corner
func (r Region) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

// BottomRight returns region's bottom-right corner
func (r Region) BottomRight() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Centre returns region's center
func (r Region) Centre() Point {
	return Point{X: r.X + r.Width/2.0, Y: r.Y + r.Height/2.0}
}

// Radius returns half-extents of the region
func (r Region) Radius() Point {
	return Point{X: r.Width / 2.0, Y: r.Height / 2.0}
}

// Contains reports whether point lies inside the region (edges included)
func (r Region) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Union returns the smallest region covering both r and other
func (r Region) Union(other Region) Region {
	x0 := minFloat64(r.X, other.X)
	y0 := minFloat64(r.Y, other.Y)
	x1 := maxFloat64(r.X+r.Width, other.X+other.Width)
	y1 := maxFloat64(r.Y+r.Height, other.Y+other.Height)
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// WithMargin grows (or shrinks for negative values) the region about its
// center. Margins are fractions of the current width and height: 0.2 adds 20%.
func (r Region) WithMargin(marginWidth, marginHeight float64) (Region, error) {
	if marginWidth < -1.0 || marginHeight < -1.0 {
		return Region{}, errors.Wrapf(ErrInvalidMargin, "margin (%f, %f)", marginWidth, marginHeight)
	}
	centre := r.Centre()
	width := r.Width * (1.0 + marginWidth)
	height := r.Height * (1.0 + marginHeight)
	return Region{
		X:      centre.X - width/2.0,
		Y:      centre.Y - height/2.0,
		Width:  width,
		Height: height,
	}, nil
}

// Bounds returns the integer rectangle covering the region
func (r Region) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)),
		int(math.Ceil(r.Y+r.Height)),
	)
}

// ApproximateRegion is a tolerance envelope around a region. It bounds how
// far each corner of another region may drift to still be considered the
// same region.
type ApproximateRegion struct {
	source      Region
	topLeft     Region
	bottomRight Region
}

// NewApproximateRegion builds envelope of size p×(width, height) around both corners of the region
func NewApproximateRegion(r Region, p float64) (ApproximateRegion, error) {
	if p <= 0 {
		return ApproximateRegion{}, errors.Wrapf(ErrInvalidTolerance, "got %f", p)
	}
	width := r.Width * p
	height := r.Height * p
	tl := r.TopLeft()
	br := r.BottomRight()
	return ApproximateRegion{
		source:      r,
		topLeft:     Region{X: tl.X - width/2.0, Y: tl.Y - height/2.0, Width: width, Height: height},
		bottomRight: Region{X: br.X - width/2.0, Y: br.Y - height/2.0, Width: width, Height: height},
	}, nil
}

// Within reports whether candidate's top-left corner lies in the top-left envelope
// and its bottom-right corner lies in the bottom-right envelope
func (a ApproximateRegion) Within(candidate Region) bool {
	return a.topLeft.Contains(candidate.TopLeft()) && a.bottomRight.Contains(candidate.BottomRight())
}

// Source returns region the envelope was built from
func (a ApproximateRegion) Source() Region {
	return a.source
}

type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}
