package censor

import "sort"

// Resolver arbitrates overlapping parts so every pixel ends up with exactly one treatment.
type Resolver struct {
	// Returns parts unresolved when set
	disabled bool
	// When set, the lower-score unprotected part loses the overlap to the higher-score one
	scoreDominance bool
	// Number of pair comparisons done during last Resolve call
	comparisons int
}

// ResolverOption configures Resolver
type ResolverOption func(*Resolver)

// WithResolutionDisabled makes Resolve return parts as is
func WithResolutionDisabled() ResolverOption {
	return func(r *Resolver) {
		r.disabled = true
	}
}

// WithScoreDominance lets the higher-confidence part win the overlap of two
// unprotected parts rendered differently. Without it such pairs are left alone.
func WithScoreDominance() ResolverOption {
	return func(r *Resolver) {
		r.scoreDominance = true
	}
}

// NewResolver creates new instance of Resolver
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Comparisons returns number of pairs compared during the last Resolve call
func (r *Resolver) Comparisons() int {
	return r.comparisons
}

// Resolve merges or carves masks of overlapping parts and returns surviving parts.
// Input slice is reordered in place.
//
// Parts are visited in ascending state order (alphabetically later labels first
// among equal states), so in every pair primary.State <= secondary.State.
func (r *Resolver) Resolve(parts []*Part) []*Part {
	r.comparisons = 0
	if r.disabled {
		return parts
	}
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].State != parts[j].State {
			return parts[i].State < parts[j].State
		}
		return parts[i].Label > parts[j].Label
	})

	removed := make([]bool, len(parts))
	for i := 0; i < len(parts); i++ {
		if removed[i] {
			continue
		}
		primary := parts[i]
		for j := i + 1; j < len(parts); j++ {
			if removed[j] {
				continue
			}
			r.comparisons++
			if r.resolvePair(primary, parts[j]) {
				removed[j] = true
			}
		}
	}

	survivors := make([]*Part, 0, len(parts))
	for i, part := range parts {
		if !removed[i] {
			survivors = append(survivors, part)
		}
	}
	return survivors
}

// resolvePair applies the first matching rule and reports whether secondary must be removed
func (r *Resolver) resolvePair(primary, secondary *Part) bool {
	sameCensor := primary.SameCensor(secondary)
	switch {
	case sameCensor && primary.State == secondary.State:
		primary.Add(secondary)
		return true
	case primary.State == StateProtected || secondary.State == StateProtected:
		if sameCensor {
			primary.Add(secondary)
			return true
		}
		if primary.State == secondary.State || primary.State == StateProtected {
			secondary.Subtract(primary)
		} else {
			primary.Subtract(secondary)
		}
		return false
	case primary.State == StateRevealed:
		// secondary can't rank below primary here, so revealed primary always yields
		primary.Subtract(secondary)
		return false
	case primary.State == StateUnprotected:
		if r.scoreDominance && secondary.State == StateUnprotected {
			if primary.Score >= secondary.Score {
				secondary.Subtract(primary)
			} else {
				primary.Subtract(secondary)
			}
		}
		return false
	}
	return false
}
