package detect

import (
	"context"
	"image"

	"github.com/LdDl/censor-go/censor"
)

// Frame is a single image handed to detectors
type Frame struct {
	// Path of the image file on disk
	Path string
	// Frame index within the video, cache.StillFrame for still images
	Index int
	// Content hash of Path. Empty value disables caching
	Hash  string
	Image image.Image
}

// Detector produces raw region proposals for a frame
type Detector interface {
	Name() string
	Detect(ctx context.Context, frame Frame) ([]censor.Detection, error)
}
