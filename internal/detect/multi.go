package detect

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/LdDl/censor-go/censor"
	"github.com/LdDl/censor-go/internal/metrics"
)

// Multi runs several detectors concurrently and concatenates their output in
// detector order. Detections whose label is not accepted are dropped.
type Multi struct {
	detectors []Detector
	accept    func(label string) bool
	limit     int
}

// NewMulti creates fan-out detector. Zero workers means one per logical CPU
func NewMulti(detectors []Detector, accept func(label string) bool, workers int) *Multi {
	if workers <= 0 {
		workers = LogicalCPUs()
	}
	return &Multi{
		detectors: detectors,
		accept:    accept,
		limit:     workers,
	}
}

// LogicalCPUs returns number of logical CPUs, falling back to runtime.NumCPU
func LogicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Detect(ctx context.Context, frame Frame) ([]censor.Detection, error) {
	results := make([][]censor.Detection, len(m.detectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.limit)
	for i, d := range m.detectors {
		i, d := i, d
		g.Go(func() error {
			dets, err := d.Detect(gctx, frame)
			if err != nil {
				metrics.DetectorFailTotal.WithLabelValues(d.Name()).Inc()
				return errors.Wrapf(err, "detector %s", d.Name())
			}
			results[i] = dets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]censor.Detection, 0)
	for _, dets := range results {
		for _, det := range dets {
			if m.accept != nil && !m.accept(det.Label) {
				continue
			}
			out = append(out, det)
		}
	}
	return out, nil
}
