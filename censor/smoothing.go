package censor

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// regionFilter smooths region of a tracked entry with 8-D Kalman filter.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] - center position, size, and velocities.
type regionFilter struct {
	predicted Region
	tracker   *kalman_filter.KalmanBBox
}

func newRegionFilter(r Region, dt float64) *regionFilter {
	centre := r.Centre()

	// Kalman filter props
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(centre.X, centre.Y, r.Width, r.Height),
	)
	return &regionFilter{
		predicted: r,
		tracker:   kf,
	}
}

// predict executes Kalman filter prediction step
func (f *regionFilter) predict() {
	f.tracker.Predict()
	f.predicted = f.state()
}

// update executes Kalman filter update step with observed region
func (f *regionFilter) update(observed Region) error {
	for _, v := range []float64{observed.X, observed.Y, observed.Width, observed.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("Can't update region filter with non-finite region %v", observed)
		}
	}
	centre := observed.Centre()
	err := f.tracker.Update(centre.X, centre.Y, observed.Width, observed.Height)
	if err != nil {
		return errors.Wrap(err, "Can't update region filter")
	}
	f.predicted = f.state()
	return nil
}

func (f *regionFilter) state() Region {
	cx, cy, w, h := f.tracker.GetState()
	return NewRegion(cx-w/2.0, cy-h/2.0, w, h)
}
