package detect

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/LdDl/censor-go/censor"
)

// SidecarDetector reads precomputed detections from a JSON file stored next
// to the frame image: <frame path><suffix>. Missing file means no detections.
type SidecarDetector struct {
	name   string
	suffix string
}

func NewSidecarDetector(name, suffix string) *SidecarDetector {
	return &SidecarDetector{name: name, suffix: suffix}
}

func (d *SidecarDetector) Name() string { return d.name }

func (d *SidecarDetector) Detect(ctx context.Context, frame Frame) ([]censor.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := frame.Path + d.suffix
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "can't read detections %s", path)
	}
	var dets []censor.Detection
	if err := json.Unmarshal(data, &dets); err != nil {
		return nil, errors.Wrapf(err, "can't decode detections %s", path)
	}
	return dets, nil
}
