package censor

import (
	"sort"

	"github.com/pkg/errors"
)

// Detection is a raw region proposal of the detector
type Detection struct {
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// Region returns detected box
func (d Detection) Region() Region {
	return NewRegion(float64(d.X), float64(d.Y), float64(d.Width), float64(d.Height))
}

// Part is a detected (or merged) region together with its resolved policy and coverage mask.
type Part struct {
	Label              string
	Score              float64
	Region             Region
	State              State
	CensorList         []Censor
	MergeGroup         []string
	MergeGroupID       string
	PersistenceGroupID string
	FadePercent        float64
	IsMerged           bool

	mask      *Mask
	baseMasks []*Mask
}

// NewPart creates part from detection, its policy and shape mask.
// Margin of the policy is applied to the detected box once, here.
func NewPart(det Detection, pol Policy, shape *Mask) (*Part, error) {
	region, err := det.Region().WithMargin(pol.MarginWidth, pol.MarginHeight)
	if err != nil {
		return nil, errors.Wrapf(err, "can't build part %q", det.Label)
	}
	if shape == nil {
		return nil, errors.Errorf("can't build part %q: nil shape mask", det.Label)
	}
	return &Part{
		Label:              det.Label,
		Score:              det.Score,
		Region:             region,
		State:              pol.State,
		CensorList:         append([]Censor(nil), pol.Censors...),
		MergeGroup:         append([]string(nil), pol.MergeGroup...),
		MergeGroupID:       pol.MergeGroupID,
		PersistenceGroupID: pol.PersistenceGroupID,
		FadePercent:        pol.FadePercent,
		mask:               shape,
		baseMasks:          []*Mask{shape.Clone()},
	}, nil
}

// Mask returns part's current coverage. Be careful: this is not copy of mask, but reference to it
func (part *Part) Mask() *Mask {
	return part.mask
}

// Add unions other part's mask into this part
func (part *Part) Add(other *Part) {
	part.mask.Add(other.mask)
}

// Subtract removes other part's covered pixels from this part
func (part *Part) Subtract(other *Part) {
	part.mask.Subtract(other.mask)
}

// SameCensor reports whether both parts are rendered with identical censor lists
func (part *Part) SameCensor(other *Part) bool {
	if len(part.CensorList) != len(other.CensorList) {
		return false
	}
	for i := range part.CensorList {
		if part.CensorList[i] != other.CensorList[i] {
			return false
		}
	}
	return true
}

// InMergeGroup reports whether label can be merged into this part
func (part *Part) InMergeGroup(label string) bool {
	return containsString(part.MergeGroup, label)
}

// SortForRender orders parts by (state, label) ascending, the order renderer paints them in
func SortForRender(parts []*Part) {
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].State != parts[j].State {
			return parts[i].State < parts[j].State
		}
		return parts[i].Label < parts[j].Label
	})
}
