package censor

import (
	"image"
	"image/color"
)

const (
	uncovered uint8 = 0x00
	covered   uint8 = 0xff
)

// Mask is a binary raster of covered pixels. It has the dimensions of the frame
// it was built for and implements image.Image (alpha model) so it can be used
// directly as a draw mask.
//
// Masks are mutated in place and are not safe for concurrent use.
type Mask struct {
	rect image.Rectangle
	pix  []uint8
}

// NewMask creates an empty mask covering bounds
func NewMask(bounds image.Rectangle) *Mask {
	bounds = bounds.Canon()
	return &Mask{
		rect: bounds,
		pix:  make([]uint8, bounds.Dx()*bounds.Dy()),
	}
}

func (m *Mask) ColorModel() color.Model {
	return color.AlphaModel
}

func (m *Mask) Bounds() image.Rectangle {
	return m.rect
}

func (m *Mask) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.rect)) {
		return color.Alpha{A: uncovered}
	}
	return color.Alpha{A: m.pix[m.offset(x, y)]}
}

func (m *Mask) offset(x, y int) int {
	return (y-m.rect.Min.Y)*m.rect.Dx() + (x - m.rect.Min.X)
}

// Covered reports whether pixel is covered. Pixels outside of mask are never covered.
func (m *Mask) Covered(x, y int) bool {
	if !(image.Point{X: x, Y: y}.In(m.rect)) {
		return false
	}
	return m.pix[m.offset(x, y)] == covered
}

// Set marks pixel as covered or not. Pixels outside of mask are ignored.
func (m *Mask) Set(x, y int, value bool) {
	if !(image.Point{X: x, Y: y}.In(m.rect)) {
		return
	}
	if value {
		m.pix[m.offset(x, y)] = covered
	} else {
		m.pix[m.offset(x, y)] = uncovered
	}
}

// Fill covers every pixel of the region clipped to mask bounds
func (m *Mask) Fill(r Region) {
	area := r.Bounds().Intersect(m.rect)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := m.offset(area.Min.X, y)
		for i := 0; i < area.Dx(); i++ {
			m.pix[row+i] = covered
		}
	}
}

// Add unions other mask into this one
func (m *Mask) Add(other *Mask) {
	if other == nil {
		return
	}
	area := m.rect.Intersect(other.rect)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if other.pix[other.offset(x, y)] == covered {
				m.pix[m.offset(x, y)] = covered
			}
		}
	}
}

// Subtract uncovers every pixel covered by other mask
func (m *Mask) Subtract(other *Mask) {
	if other == nil {
		return
	}
	area := m.rect.Intersect(other.rect)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if other.pix[other.offset(x, y)] == covered {
				m.pix[m.offset(x, y)] = uncovered
			}
		}
	}
}

// Clone returns deep copy of the mask
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.pix))
	copy(pix, m.pix)
	return &Mask{rect: m.rect, pix: pix}
}

// Count returns number of covered pixels
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.pix {
		if v == covered {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no pixel is covered
func (m *Mask) IsEmpty() bool {
	for _, v := range m.pix {
		if v == covered {
			return false
		}
	}
	return true
}

// Equal reports whether both masks have the same bounds and cover the same pixels
func (m *Mask) Equal(other *Mask) bool {
	if other == nil || m.rect != other.rect {
		return false
	}
	for i := range m.pix {
		if m.pix[i] != other.pix[i] {
			return false
		}
	}
	return true
}

// CoveredBounds returns the smallest rectangle holding every covered pixel.
// Returns empty rectangle for an empty mask.
func (m *Mask) CoveredBounds() image.Rectangle {
	minX, minY := m.rect.Max.X, m.rect.Max.Y
	maxX, maxY := m.rect.Min.X, m.rect.Min.Y
	found := false
	for y := m.rect.Min.Y; y < m.rect.Max.Y; y++ {
		for x := m.rect.Min.X; x < m.rect.Max.X; x++ {
			if m.pix[m.offset(x, y)] != covered {
				continue
			}
			found = true
			minX = minInt(minX, x)
			minY = minInt(minY, y)
			maxX = maxInt(maxX, x+1)
			maxY = maxInt(maxY, y+1)
		}
	}
	if !found {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX, maxY)
}
