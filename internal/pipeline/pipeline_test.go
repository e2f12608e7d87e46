package pipeline

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/LdDl/censor-go/internal/config"
	"github.com/LdDl/censor-go/internal/render"
)

const pipelineYAML = `
parts:
  face:
    shape: rectangle
    censors:
      - effect: overlay
        color: "#ff0000"
tracker:
  hold_seconds: 1
`

var (
	red  = color.NRGBA{R: 0xff, A: 0xff}
	grey = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

func writeFrame(t *testing.T, path string) {
	t.Helper()
	img := imaging.New(16, 16, grey)
	if err := render.Save(img, path); err != nil {
		t.Fatal(err)
	}
}

func writeSidecar(t *testing.T, path string) {
	t.Helper()
	doc := `[{"label":"face","score":0.9,"x":2,"y":2,"width":6,"height":6},{"label":"hand","score":0.9,"x":10,"y":10,"width":4,"height":4}]`
	if err := os.WriteFile(path+".json", []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func pixelAt(t *testing.T, path string, x, y int) color.NRGBA {
	t.Helper()
	img, err := render.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg, err := config.Parse([]byte(pipelineYAML))
	if err != nil {
		t.Fatal(err)
	}
	p, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestProcessImage(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	out := filepath.Join(dir, "photo_censored.png")
	writeFrame(t, in)
	writeSidecar(t, in)

	p := newTestPipeline(t)
	if err := p.ProcessImage(context.Background(), in, out); err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}
	if got := pixelAt(t, out, 4, 4); got != red {
		t.Errorf("Face pixel should be %v, got %v", red, got)
	}
	// Hand is not enabled
	if got := pixelAt(t, out, 12, 12); got != grey {
		t.Errorf("Hand pixel should be untouched, got %v", got)
	}
	if got := pixelAt(t, out, 0, 0); got != grey {
		t.Errorf("Background pixel should be untouched, got %v", got)
	}
}

func TestProcessFramesHold(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	for i := 0; i < 3; i++ {
		writeFrame(t, filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i)))
	}
	// Face is detected on the first frame only
	writeSidecar(t, filepath.Join(dir, "frame_000.png"))

	p := newTestPipeline(t)
	// 1 second at 2 fps: the face is held for 2 frames including the detection one
	if err := p.ProcessFrames(context.Background(), dir, outDir, 2); err != nil {
		t.Fatalf("ProcessFrames failed: %v", err)
	}
	correct := []color.NRGBA{red, red, grey}
	for i, want := range correct {
		got := pixelAt(t, filepath.Join(outDir, fmt.Sprintf("frame_%03d.png", i)), 4, 4)
		if got != want {
			t.Errorf("Frame %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestProcessFramesAbort(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, filepath.Join(dir, "frame_000.png"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestPipeline(t)
	err := p.ProcessFrames(ctx, dir, filepath.Join(t.TempDir(), "out"), 25)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if err := p.ProcessFrames(context.Background(), dir, t.TempDir(), 0); err == nil {
		t.Error("Expected error for zero frame rate")
	}
}

func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "a.JPG.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0o755); err != nil {
		t.Fatal(err)
	}
	frames, err := ListFrames(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 || frames[0] != "a.JPG" || frames[1] != "b.png" {
		t.Errorf("Unexpected frames %v", frames)
	}
}
