package pipeline

import (
	"context"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/LdDl/censor-go/censor"
	"github.com/LdDl/censor-go/internal/cache"
	"github.com/LdDl/censor-go/internal/config"
	"github.com/LdDl/censor-go/internal/detect"
	"github.com/LdDl/censor-go/internal/logger"
	"github.com/LdDl/censor-go/internal/metrics"
	"github.com/LdDl/censor-go/internal/render"
)

var frameExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff"}

// Pipeline censors still images and frame sequences
type Pipeline struct {
	cfg      *config.Config
	arbiter  *censor.Arbiter
	detector detect.Detector
	renderer *render.Renderer
	log      *slog.Logger
}

// Option configures Pipeline
type Option func(*Pipeline)

// WithDetector replaces detectors described by the config
func WithDetector(d detect.Detector) Option {
	return func(p *Pipeline) {
		p.detector = d
	}
}

// New creates pipeline from validated config
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	arbiter, err := censor.NewArbiter(cfg.Policies, censor.DefaultShapes(), cfg.NewResolver())
	if err != nil {
		return nil, errors.Wrap(err, "can't create arbiter")
	}
	renderer, err := render.NewRenderer(cfg.Policies)
	if err != nil {
		return nil, errors.Wrap(err, "can't create renderer")
	}
	p := &Pipeline{
		cfg:      cfg,
		arbiter:  arbiter,
		renderer: renderer,
		log:      logger.L(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.detector == nil {
		p.detector, err = BuildDetector(cfg)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// BuildDetector creates configured detectors wrapped with detection cache.
// Without detectors in config a single JSON sidecar detector is used.
func BuildDetector(cfg *config.Config) (detect.Detector, error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, errors.Wrap(err, "can't create detection cache")
	}
	dcfgs := cfg.Detectors
	if len(dcfgs) == 0 {
		dcfgs = []config.DetectorConfig{{Kind: "sidecar"}}
	}
	detectors := make([]detect.Detector, 0, len(dcfgs))
	for _, dcfg := range dcfgs {
		d, err := detect.NewDetector(dcfg)
		if err != nil {
			return nil, err
		}
		detectors = append(detectors, detect.NewCached(d, c))
	}
	accept := func(label string) bool {
		_, ok := cfg.Policies.Lookup(label)
		return ok
	}
	return detect.NewMulti(detectors, accept, cfg.Workers), nil
}

// ProcessImage censors a still image
func (p *Pipeline) ProcessImage(ctx context.Context, in, out string) error {
	mc := censor.NewMediaContext(in)
	log := p.log.With("media_id", mc.ID.String(), "path", in)
	parts, err := p.processFrame(ctx, mc, nil, in, out, cache.StillFrame)
	if err != nil {
		return err
	}
	log.Info("image_done", "parts", parts)
	return nil
}

// ProcessFrames censors a video supplied as directory of frame images ordered
// by file name. Frames are processed sequentially with one tracker; context
// cancellation aborts between frames.
func (p *Pipeline) ProcessFrames(ctx context.Context, dir, outDir string, fps float64) error {
	if fps <= 0 {
		return errors.Errorf("frame rate must be positive, got %f", fps)
	}
	frames, err := ListFrames(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, "can't create %s", outDir)
	}
	tracker, err := p.cfg.NewTracker(fps)
	if err != nil {
		return errors.Wrap(err, "can't create tracker")
	}
	mc := censor.NewMediaContext(dir)
	log := p.log.With("media_id", mc.ID.String(), "path", dir)
	log.Info("video_begin", "frames", len(frames), "fps", fps, "hold_limit", tracker.HoldLimit())
	for i, name := range frames {
		if err := ctx.Err(); err != nil {
			tracker.Reset()
			log.Warn("video_aborted", "frame", i)
			return errors.Wrapf(err, "aborted at frame %d", i)
		}
		if _, err := p.processFrame(ctx, mc, tracker, filepath.Join(dir, name), filepath.Join(outDir, name), i); err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
	}
	log.Info("video_done", "frames", len(frames))
	return nil
}

// processFrame runs detect, arbitrate, track (for videos) and render for one
// frame and returns number of rendered parts.
func (p *Pipeline) processFrame(ctx context.Context, mc *censor.MediaContext, tracker *censor.PartTracker, in, out string, index int) (int, error) {
	tBegin := time.Now()
	img, err := render.Load(in)
	if err != nil {
		return 0, err
	}
	hash, err := cache.HashFile(in)
	if err != nil {
		return 0, err
	}
	dets, err := p.detector.Detect(ctx, detect.Frame{Path: in, Index: index, Hash: hash, Image: img})
	if err != nil {
		return 0, errors.Wrap(err, "detection failed")
	}
	b := img.Bounds()
	parts, err := p.arbiter.Arbitrate(mc, image.Rect(0, 0, b.Dx(), b.Dy()), dets)
	if err != nil {
		return 0, err
	}
	metrics.ComparisonsTotal.Add(float64(p.arbiter.Resolver().Comparisons()))
	if tracker != nil {
		parts, err = tracker.Update(parts)
		if err != nil {
			return 0, err
		}
		metrics.TracksEvictedTotal.Add(float64(tracker.Evicted()))
	}
	censored, err := p.renderer.Render(img, parts)
	if err != nil {
		return 0, err
	}
	if err := render.Save(censored, out); err != nil {
		return 0, err
	}
	for _, part := range parts {
		metrics.PartsTotal.WithLabelValues(part.State.String()).Inc()
	}
	metrics.FramesTotal.Inc()
	metrics.FrameDurationMs.Observe(float64(time.Since(tBegin).Milliseconds()))
	p.log.Debug("frame_done", "media_id", mc.ID.String(), "frame", index, "detections", len(dets), "parts", len(parts))
	return len(parts), nil
}

// ListFrames returns image file names of dir sorted by name
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "can't list frames of %s", dir)
	}
	frames := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, allowed := range frameExtensions {
			if ext == allowed {
				frames = append(frames, e.Name())
				break
			}
		}
	}
	sort.Strings(frames)
	return frames, nil
}
