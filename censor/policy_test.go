package censor

import (
	"testing"

	"github.com/pkg/errors"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"unprotected", StateUnprotected},
		{"REVEALED", StateRevealed},
		{" Protected ", StateProtected},
	}
	for _, tt := range tests {
		state, err := ParseState(tt.name)
		if err != nil {
			t.Errorf("ParseState(%q) failed: %v", tt.name, err)
			continue
		}
		if state != tt.state {
			t.Errorf("Expected %s, got %s", tt.state, state)
		}
	}
	if _, err := ParseState("hidden"); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Expected ErrUnknownState, got %v", err)
	}
	if !(StateUnprotected < StateRevealed && StateRevealed < StateProtected) {
		t.Error("States must be ordered unprotected < revealed < protected")
	}
}

func TestPolicyApply(t *testing.T) {
	base := DefaultPolicy()
	protected := StateProtected
	margin := 0.3
	shape := "rectangle"
	patched := base.Apply(PolicyPatch{
		State:       &protected,
		MarginWidth: &margin,
		Shape:       &shape,
		Censors:     []Censor{{Effect: "overlay", Color: "#000000"}},
	})
	if patched.State != StateProtected || patched.MarginWidth != 0.3 || patched.Shape != "rectangle" {
		t.Errorf("Patch not applied: %+v", patched)
	}
	if patched.MarginHeight != base.MarginHeight || patched.ProtectedShape != base.ProtectedShape {
		t.Error("Fields missing from patch must keep defaults")
	}
	patched.Censors[0].Effect = "blur"
	if base.Censors[0].Effect != "pixelate" {
		t.Error("Patched policy must not share censor list with base")
	}
}

func TestPolicyShapeName(t *testing.T) {
	pol := DefaultPolicy()
	if pol.ShapeName() != "ellipse" {
		t.Errorf("Expected ellipse, got %s", pol.ShapeName())
	}
	pol.State = StateProtected
	if pol.ShapeName() != "rectangle" {
		t.Errorf("Expected protected shape rectangle, got %s", pol.ShapeName())
	}
}

func TestNewPolicySet(t *testing.T) {
	revealed := StateRevealed
	set, err := NewPolicySet(
		DefaultPolicy(),
		map[string]PolicyPatch{"feet": {State: &revealed}},
		[]string{"face", "feet", "left", "right"},
		map[string][]string{"pair": {"left", "right"}},
		map[string][]string{"limbs": {"left", "right", "feet"}},
	)
	if err != nil {
		t.Fatalf("NewPolicySet failed: %v", err)
	}
	if _, ok := set.Lookup("hand"); ok {
		t.Error("Disabled label must have no policy")
	}
	feet, _ := set.Lookup("feet")
	if feet.State != StateRevealed || feet.PersistenceGroupID != "limbs" || feet.MergeGroupID != "" {
		t.Errorf("Unexpected feet policy: %+v", feet)
	}
	left, _ := set.Lookup("left")
	if left.MergeGroupID != "pair" || len(left.MergeGroup) != 2 {
		t.Errorf("Unexpected left policy: %+v", left)
	}
	if labels := set.Labels(); len(labels) != 4 || labels[0] != "face" {
		t.Errorf("Unexpected labels %v", labels)
	}
}

func TestNewPolicySetInvalidMargin(t *testing.T) {
	margin := -1.5
	_, err := NewPolicySet(DefaultPolicy(), map[string]PolicyPatch{"face": {MarginHeight: &margin}}, []string{"face"}, nil, nil)
	if !errors.Is(err, ErrInvalidMargin) {
		t.Errorf("Expected ErrInvalidMargin, got %v", err)
	}
}

func TestPolicySetGet(t *testing.T) {
	set, err := NewPolicySet(DefaultPolicy(), nil, []string{"face"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := set.Get("face"); err != nil {
		t.Errorf("Expected policy for face, got %v", err)
	}
	if _, err := set.Get("hand"); !errors.Is(err, ErrNoPolicy) {
		t.Errorf("Expected ErrNoPolicy, got %v", err)
	}
}
