package render

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/LdDl/censor-go/censor"
)

// Renderer paints censor effects of parts through their masks
type Renderer struct {
	effects map[censor.Censor]Effect
}

// NewRenderer compiles every censor referenced by the policies
func NewRenderer(policies *censor.PolicySet) (*Renderer, error) {
	r := &Renderer{effects: make(map[censor.Censor]Effect)}
	for _, label := range policies.Labels() {
		pol, err := policies.Get(label)
		if err != nil {
			return nil, err
		}
		for _, c := range pol.Censors {
			if _, err := r.effect(c); err != nil {
				return nil, errors.Wrapf(err, "label %q", label)
			}
		}
	}
	return r, nil
}

func (r *Renderer) effect(c censor.Censor) (Effect, error) {
	if eff, ok := r.effects[c]; ok {
		return eff, nil
	}
	eff, err := Compile(c)
	if err != nil {
		return nil, err
	}
	r.effects[c] = eff
	return eff, nil
}

// Render returns copy of img with parts painted in the given order.
// Pixels outside every part's mask are left untouched.
func (r *Renderer) Render(img image.Image, parts []*censor.Part) (*image.NRGBA, error) {
	canvas := imaging.Clone(img)
	for _, part := range parts {
		if len(part.CensorList) == 0 {
			continue
		}
		bounds := part.Mask().CoveredBounds().Intersect(canvas.Bounds())
		if bounds.Empty() {
			continue
		}
		coverage := coverageOf(part.Mask(), bounds)
		if part.FadePercent > 0 {
			coverage = feather(coverage, part.FadePercent)
		}
		patch := imaging.Crop(canvas, bounds)
		for _, c := range part.CensorList {
			eff, err := r.effect(c)
			if err != nil {
				return nil, errors.Wrapf(err, "part %q", part.Label)
			}
			patch = eff.Apply(patch, coverage)
		}
		composite(canvas, patch, coverage, bounds.Min)
	}
	return canvas, nil
}

// coverageOf copies mask pixels within bounds into an alpha image starting at (0, 0)
func coverageOf(mask *censor.Mask, bounds image.Rectangle) *image.Alpha {
	coverage := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if mask.Covered(x, y) {
				coverage.Pix[coverage.PixOffset(x-bounds.Min.X, y-bounds.Min.Y)] = 0xff
			}
		}
	}
	return coverage
}

// feather softens coverage edges. fadePercent is relative to the smaller side of coverage
func feather(coverage *image.Alpha, fadePercent float64) *image.Alpha {
	b := coverage.Bounds()
	sigma := fadePercent / 100.0 * float64(minInt(b.Dx(), b.Dy())) / 2.0
	if sigma <= 0 {
		return coverage
	}
	// Blur sees zeros around the patch, otherwise edges keep full alpha.
	// Only alpha channel of the blurred image matters
	pad := int(math.Ceil(sigma))
	src := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2*pad, b.Dy()+2*pad))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			src.Pix[src.PixOffset(x+pad, y+pad)+3] = coverage.Pix[coverage.PixOffset(x, y)]
		}
	}
	blurred := imaging.Blur(src, sigma)
	out := image.NewAlpha(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := coverage.PixOffset(x, y)
			// Never spill outside the original mask
			if coverage.Pix[i] == 0 {
				continue
			}
			out.Pix[i] = blurred.Pix[blurred.PixOffset(x+pad, y+pad)+3]
		}
	}
	return out
}

func composite(canvas, patch *image.NRGBA, coverage *image.Alpha, at image.Point) {
	b := coverage.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := coverage.Pix[coverage.PixOffset(x, y)]
			if a == 0 {
				continue
			}
			t := float64(a) / 255.0
			src := patch.PixOffset(x, y)
			dst := canvas.PixOffset(x+at.X, y+at.Y)
			for c := 0; c < 4; c++ {
				canvas.Pix[dst+c] = lerp(canvas.Pix[dst+c], patch.Pix[src+c], t)
			}
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
