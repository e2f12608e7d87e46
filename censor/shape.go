package censor

import (
	"image"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MediaContext holds per-file state shared by the frames of one image or video.
// It must not be shared between files.
type MediaContext struct {
	ID   uuid.UUID
	Path string
	// Bar orientation per label (true = horizontal)
	barOrientation map[string]bool
}

// NewMediaContext creates context for a file
func NewMediaContext(path string) *MediaContext {
	return &MediaContext{
		ID:             uuid.New(),
		Path:           path,
		barOrientation: make(map[string]bool),
	}
}

// ShapeGenerator turns a region into a raster mask of the frame
type ShapeGenerator interface {
	Generate(mc *MediaContext, label string, r Region, frame image.Rectangle) *Mask
}

// ShapeFunc adapts a function to ShapeGenerator
type ShapeFunc func(mc *MediaContext, label string, r Region, frame image.Rectangle) *Mask

func (f ShapeFunc) Generate(mc *MediaContext, label string, r Region, frame image.Rectangle) *Mask {
	return f(mc, label, r, frame)
}

// ShapeRegistry maps shape names to generators
type ShapeRegistry map[string]ShapeGenerator

// DefaultShapes returns registry with built-in shapes: rectangle, ellipse and bar
func DefaultShapes() ShapeRegistry {
	return ShapeRegistry{
		"rectangle": ShapeFunc(rectangleShape),
		"ellipse":   ShapeFunc(ellipseShape),
		"bar":       ShapeFunc(barShape),
	}
}

// Lookup returns generator registered under the name
func (reg ShapeRegistry) Lookup(name string) (ShapeGenerator, error) {
	gen, ok := reg[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownShape, "%q", name)
	}
	return gen, nil
}

// Names returns registered shape names in alphabetical order
func (reg ShapeRegistry) Names() []string {
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func rectangleShape(_ *MediaContext, _ string, r Region, frame image.Rectangle) *Mask {
	mask := NewMask(frame)
	mask.Fill(r)
	return mask
}

func ellipseShape(_ *MediaContext, _ string, r Region, frame image.Rectangle) *Mask {
	mask := NewMask(frame)
	radius := r.Radius()
	if radius.X <= 0 || radius.Y <= 0 {
		return mask
	}
	centre := r.Centre()
	area := r.Bounds().Intersect(frame)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		dy := (float64(y) + 0.5 - centre.Y) / radius.Y
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := (float64(x) + 0.5 - centre.X) / radius.X
			if dx*dx+dy*dy <= 1.0 {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}

const (
	// Thickness of the bar relative to the region's minor side
	barThickness = 1.0 / 3.0
	// How much longer the other side must become before a memorised orientation flips
	barFlipRatio = 1.25
)

// barShape draws band along the region's major axis. Orientation is remembered
// per label within the media context, so near-square regions don't make the
// bar flip between frames.
func barShape(mc *MediaContext, label string, r Region, frame image.Rectangle) *Mask {
	horizontal := r.Width >= r.Height
	if mc != nil {
		if prev, ok := mc.barOrientation[label]; ok {
			horizontal = prev
			if prev && r.Height > r.Width*barFlipRatio {
				horizontal = false
			} else if !prev && r.Width > r.Height*barFlipRatio {
				horizontal = true
			}
		}
		mc.barOrientation[label] = horizontal
	}
	centre := r.Centre()
	var band Region
	if horizontal {
		thickness := math.Max(1, r.Height*barThickness)
		band = NewRegion(r.X, centre.Y-thickness/2.0, r.Width, thickness)
	} else {
		thickness := math.Max(1, r.Width*barThickness)
		band = NewRegion(centre.X-thickness/2.0, r.Y, thickness, r.Height)
	}
	mask := NewMask(frame)
	mask.Fill(band)
	return mask
}
