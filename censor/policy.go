package censor

import (
	"sort"

	"github.com/pkg/errors"
)

// Censor describes one rendering effect applied to a part's mask.
// The arbitration layer never interprets it, it only compares lists of them.
type Censor struct {
	Effect   string  `yaml:"effect" json:"effect"`
	Strength float64 `yaml:"strength,omitempty" json:"strength,omitempty"`
	Color    string  `yaml:"color,omitempty" json:"color,omitempty"`
	Opacity  float64 `yaml:"opacity,omitempty" json:"opacity,omitempty"`
	Width    int     `yaml:"width,omitempty" json:"width,omitempty"`
}

// Policy is fully resolved per-label configuration used to build parts
type Policy struct {
	State              State
	Censors            []Censor
	MarginWidth        float64
	MarginHeight       float64
	MergeGroup         []string
	MergeGroupID       string
	PersistenceGroupID string
	Shape              string
	ProtectedShape     string
	FadePercent        float64
}

// DefaultPolicy returns policy every label starts from
func DefaultPolicy() Policy {
	return Policy{
		State:          StateUnprotected,
		Censors:        []Censor{{Effect: "pixelate", Strength: 10}},
		Shape:          "ellipse",
		ProtectedShape: "rectangle",
	}
}

// PolicyPatch is a sparse override. Nil fields keep value of the base policy.
type PolicyPatch struct {
	State          *State
	Censors        []Censor
	MarginWidth    *float64
	MarginHeight   *float64
	Shape          *string
	ProtectedShape *string
	FadePercent    *float64
}

// Apply returns copy of the policy with patch applied
func (p Policy) Apply(patch PolicyPatch) Policy {
	out := p
	out.Censors = append([]Censor(nil), p.Censors...)
	out.MergeGroup = append([]string(nil), p.MergeGroup...)
	if patch.State != nil {
		out.State = *patch.State
	}
	if patch.Censors != nil {
		out.Censors = append([]Censor(nil), patch.Censors...)
	}
	if patch.MarginWidth != nil {
		out.MarginWidth = *patch.MarginWidth
	}
	if patch.MarginHeight != nil {
		out.MarginHeight = *patch.MarginHeight
	}
	if patch.Shape != nil {
		out.Shape = *patch.Shape
	}
	if patch.ProtectedShape != nil {
		out.ProtectedShape = *patch.ProtectedShape
	}
	if patch.FadePercent != nil {
		out.FadePercent = *patch.FadePercent
	}
	return out
}

// ShapeName returns shape selector to use for the policy's state
func (p Policy) ShapeName() string {
	if p.State == StateProtected && p.ProtectedShape != "" {
		return p.ProtectedShape
	}
	return p.Shape
}

// Validate checks the policy for configuration errors
func (p Policy) Validate() error {
	if p.State < StateUnprotected || p.State > StateProtected {
		return errors.Wrapf(ErrUnknownState, "value %d", p.State)
	}
	if p.MarginWidth < -1.0 || p.MarginHeight < -1.0 {
		return errors.Wrapf(ErrInvalidMargin, "margin (%f, %f)", p.MarginWidth, p.MarginHeight)
	}
	if p.FadePercent < 0 || p.FadePercent > 100 {
		return errors.Errorf("fade percent must be within [0, 100], got %f", p.FadePercent)
	}
	return nil
}

// PolicySet holds policies of enabled labels
type PolicySet struct {
	policies map[string]Policy
}

// NewPolicySet builds set from default policy and sparse per-label patches.
// Only labels listed in enabled get a policy. Merge and persistence groups map
// group id to its labels.
func NewPolicySet(defaults Policy, patches map[string]PolicyPatch, enabled []string, mergeGroups, persistenceGroups map[string][]string) (*PolicySet, error) {
	set := &PolicySet{policies: make(map[string]Policy, len(enabled))}
	for _, label := range enabled {
		pol := defaults
		if patch, ok := patches[label]; ok {
			pol = pol.Apply(patch)
		} else {
			pol = pol.Apply(PolicyPatch{})
		}
		for _, groupID := range sortedKeys(mergeGroups) {
			if containsString(mergeGroups[groupID], label) {
				pol.MergeGroupID = groupID
				pol.MergeGroup = append([]string(nil), mergeGroups[groupID]...)
				break
			}
		}
		for _, groupID := range sortedKeys(persistenceGroups) {
			if containsString(persistenceGroups[groupID], label) {
				pol.PersistenceGroupID = groupID
				break
			}
		}
		if err := pol.Validate(); err != nil {
			return nil, errors.Wrapf(err, "policy for label %q", label)
		}
		set.policies[label] = pol
	}
	return set, nil
}

// Lookup returns policy of the label
func (s *PolicySet) Lookup(label string) (Policy, bool) {
	pol, ok := s.policies[label]
	return pol, ok
}

// Labels returns enabled labels in alphabetical order
func (s *PolicySet) Labels() []string {
	labels := make([]string, 0, len(s.policies))
	for label := range s.policies {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns policy of the label or ErrNoPolicy when the label is not enabled
func (s *PolicySet) Get(label string) (Policy, error) {
	pol, ok := s.policies[label]
	if !ok {
		return Policy{}, errors.Wrapf(ErrNoPolicy, "%q", label)
	}
	return pol, nil
}
