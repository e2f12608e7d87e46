package censor

import (
	"image"
	"testing"

	"github.com/pkg/errors"
)

func testPolicySet(t *testing.T) *PolicySet {
	t.Helper()
	protected := StateProtected
	rect := "rectangle"
	defaults := DefaultPolicy()
	defaults.Shape = "rectangle"
	set, err := NewPolicySet(
		defaults,
		map[string]PolicyPatch{
			"face": {State: &protected, Censors: []Censor{{Effect: "blur", Strength: 5}}, ProtectedShape: &rect},
		},
		[]string{"face", "left", "right", "torso"},
		map[string][]string{"pair": {"left", "right"}},
		nil,
	)
	if err != nil {
		t.Fatalf("NewPolicySet failed: %v", err)
	}
	return set
}

func TestArbiterArbitrate(t *testing.T) {
	arb, err := NewArbiter(testPolicySet(t), DefaultShapes(), NewResolver())
	if err != nil {
		t.Fatalf("NewArbiter failed: %v", err)
	}
	frame := image.Rect(0, 0, 100, 100)
	detections := []Detection{
		{Label: "torso", Score: 0.9, X: 10, Y: 10, Width: 40, Height: 40},
		{Label: "face", Score: 0.8, X: 30, Y: 0, Width: 20, Height: 20},
		{Label: "left", Score: 0.7, X: 60, Y: 60, Width: 10, Height: 10},
		{Label: "right", Score: 0.6, X: 80, Y: 60, Width: 10, Height: 10},
		{Label: "hand", Score: 0.9, X: 0, Y: 0, Width: 5, Height: 5},
	}
	parts, err := arb.Arbitrate(NewMediaContext("image.png"), frame, detections)
	if err != nil {
		t.Fatalf("Arbitrate failed: %v", err)
	}
	// torso and merged left+right share state and censor list, so they are unioned as well
	if len(parts) != 2 {
		t.Fatalf("Expected 2 parts, got %d", len(parts))
	}
	if parts[0].State != StateUnprotected || parts[1].Label != "face" {
		t.Errorf("Unexpected render order: %s, %s", parts[0].Label, parts[1].Label)
	}
	face := parts[1]
	for y := 0; y < 20; y++ {
		for x := 30; x < 50; x++ {
			if parts[0].Mask().Covered(x, y) {
				t.Fatalf("Unprotected part covers pixel (%d, %d) of protected face", x, y)
			}
		}
	}
	if face.Mask().Count() != 400 {
		t.Errorf("Expected face to keep 400 pixels, got %d", face.Mask().Count())
	}
	if arb.Resolver().Comparisons() == 0 {
		t.Error("Expected resolver to compare parts")
	}
}

func TestArbiterUnknownShape(t *testing.T) {
	_, err := NewArbiter(testPolicySet(t), ShapeRegistry{"ellipse": ShapeFunc(ellipseShape)}, nil)
	if !errors.Is(err, ErrUnknownShape) {
		t.Errorf("Expected ErrUnknownShape, got %v", err)
	}
}

func TestArbiterNoDetections(t *testing.T) {
	arb, err := NewArbiter(testPolicySet(t), nil, nil)
	if err != nil {
		t.Fatalf("NewArbiter failed: %v", err)
	}
	parts, err := arb.Arbitrate(NewMediaContext("image.png"), image.Rect(0, 0, 10, 10), nil)
	if err != nil {
		t.Fatalf("Arbitrate failed: %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("Expected no parts, got %d", len(parts))
	}
}
