package censor

import (
	"image"

	"github.com/pkg/errors"
)

// Arbiter turns raw detections of one frame into resolved parts ready for rendering.
type Arbiter struct {
	policies *PolicySet
	shapes   ShapeRegistry
	resolver *Resolver
}

// NewArbiter creates new instance of Arbiter. Every shape referenced by the
// policies must be present in the registry.
func NewArbiter(policies *PolicySet, shapes ShapeRegistry, resolver *Resolver) (*Arbiter, error) {
	if policies == nil {
		return nil, errors.New("nil policy set")
	}
	if shapes == nil {
		shapes = DefaultShapes()
	}
	if resolver == nil {
		resolver = NewResolver()
	}
	for _, label := range policies.Labels() {
		pol, _ := policies.Lookup(label)
		for _, name := range []string{pol.Shape, pol.ProtectedShape} {
			if name == "" {
				continue
			}
			if _, err := shapes.Lookup(name); err != nil {
				return nil, errors.Wrapf(err, "label %q", label)
			}
		}
	}
	return &Arbiter{
		policies: policies,
		shapes:   shapes,
		resolver: resolver,
	}, nil
}

// Resolver returns conflict resolver used by the arbiter
func (arb *Arbiter) Resolver() *Resolver {
	return arb.resolver
}

// BuildParts creates a part for every detection whose label is enabled, in detection order
func (arb *Arbiter) BuildParts(mc *MediaContext, frame image.Rectangle, detections []Detection) ([]*Part, error) {
	parts := make([]*Part, 0, len(detections))
	for _, det := range detections {
		pol, ok := arb.policies.Lookup(det.Label)
		if !ok {
			continue
		}
		region, err := det.Region().WithMargin(pol.MarginWidth, pol.MarginHeight)
		if err != nil {
			return nil, errors.Wrapf(err, "label %q", det.Label)
		}
		gen, err := arb.shapes.Lookup(pol.ShapeName())
		if err != nil {
			return nil, errors.Wrapf(err, "can't generate mask for label %q", det.Label)
		}
		part, err := NewPart(det, pol, gen.Generate(mc, det.Label, region, frame))
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// Arbitrate builds, merges and resolves parts of one frame. Result is sorted
// by (state, label) ascending.
func (arb *Arbiter) Arbitrate(mc *MediaContext, frame image.Rectangle, detections []Detection) ([]*Part, error) {
	parts, err := arb.BuildParts(mc, frame, detections)
	if err != nil {
		return nil, err
	}
	parts = MergeParts(parts)
	parts = arb.resolver.Resolve(parts)
	SortForRender(parts)
	return parts, nil
}
