package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/LdDl/censor-go/censor"
)

// ErrUnknownEffect is returned when censor names no known effect
var ErrUnknownEffect = errors.New("unknown effect")

const (
	defaultBlurSigma    = 8.0
	defaultBoxRadius    = 6.0
	defaultPixelSize    = 10.0
	defaultOutlineWidth = 2
	defaultColor        = "#000000"
)

// Effect censors a patch of the frame. Patch and coverage share bounds
// starting at (0, 0); the returned image must have the same bounds.
type Effect interface {
	Apply(patch *image.NRGBA, coverage *image.Alpha) *image.NRGBA
}

// Compile resolves censor description into an effect
func Compile(c censor.Censor) (Effect, error) {
	switch strings.ToLower(c.Effect) {
	case "blur":
		return gaussianBlur{sigma: orDefault(c.Strength, defaultBlurSigma)}, nil
	case "box_blur":
		return boxBlur{radius: orDefault(c.Strength, defaultBoxRadius)}, nil
	case "pixelate":
		return pixelate{size: int(math.Max(1, orDefault(c.Strength, defaultPixelSize)))}, nil
	case "overlay":
		fill, err := parseColor(c.Color)
		if err != nil {
			return nil, err
		}
		opacity := c.Opacity
		if opacity <= 0 || opacity > 1 {
			opacity = 1
		}
		return overlay{fill: fill, opacity: opacity}, nil
	case "outline":
		stroke, err := parseColor(c.Color)
		if err != nil {
			return nil, err
		}
		width := c.Width
		if width <= 0 {
			width = defaultOutlineWidth
		}
		return outline{stroke: stroke, width: width}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownEffect, "%q", c.Effect)
	}
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func parseColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		hex = defaultColor
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, errors.Wrapf(err, "bad color %q", hex)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

type gaussianBlur struct {
	sigma float64
}

func (e gaussianBlur) Apply(patch *image.NRGBA, _ *image.Alpha) *image.NRGBA {
	return imaging.Blur(patch, e.sigma)
}

type boxBlur struct {
	radius float64
}

func (e boxBlur) Apply(patch *image.NRGBA, _ *image.Alpha) *image.NRGBA {
	return imaging.Clone(blur.Box(patch, e.radius))
}

type pixelate struct {
	size int
}

func (e pixelate) Apply(patch *image.NRGBA, _ *image.Alpha) *image.NRGBA {
	b := patch.Bounds()
	w := (b.Dx() + e.size - 1) / e.size
	h := (b.Dy() + e.size - 1) / e.size
	small := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), patch, b, draw.Src, nil)
	out := image.NewNRGBA(b)
	draw.NearestNeighbor.Scale(out, b, small, small.Bounds(), draw.Src, nil)
	return out
}

type overlay struct {
	fill    color.NRGBA
	opacity float64
}

func (e overlay) Apply(patch *image.NRGBA, _ *image.Alpha) *image.NRGBA {
	out := imaging.Clone(patch)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		out.Pix[i+0] = lerp(out.Pix[i+0], e.fill.R, e.opacity)
		out.Pix[i+1] = lerp(out.Pix[i+1], e.fill.G, e.opacity)
		out.Pix[i+2] = lerp(out.Pix[i+2], e.fill.B, e.opacity)
		out.Pix[i+3] = 0xff
	}
	return out
}

type outline struct {
	stroke color.NRGBA
	width  int
}

// Apply paints covered pixels lying within width of an uncovered pixel or patch border
func (e outline) Apply(patch *image.NRGBA, coverage *image.Alpha) *image.NRGBA {
	out := imaging.Clone(patch)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if coverage.AlphaAt(x, y).A == 0 {
				continue
			}
			if !e.nearEdge(coverage, x, y) {
				continue
			}
			out.SetNRGBA(x, y, e.stroke)
		}
	}
	return out
}

func (e outline) nearEdge(coverage *image.Alpha, x, y int) bool {
	b := coverage.Bounds()
	for dy := -e.width; dy <= e.width; dy++ {
		for dx := -e.width; dx <= e.width; dx++ {
			p := image.Pt(x+dx, y+dy)
			if !p.In(b) || coverage.AlphaAt(p.X, p.Y).A == 0 {
				return true
			}
		}
	}
	return false
}

func lerp(from, to uint8, t float64) uint8 {
	return uint8(math.Round(float64(from)*(1-t) + float64(to)*t))
}
