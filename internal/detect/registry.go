package detect

import (
	"github.com/pkg/errors"

	"github.com/LdDl/censor-go/internal/config"
)

const defaultSidecarSuffix = ".json"

// NewDetector creates a detector based on the specified kind
func NewDetector(cfg config.DetectorConfig) (Detector, error) {
	switch cfg.Kind {
	case "sidecar", "":
		suffix := cfg.Suffix
		if suffix == "" {
			suffix = defaultSidecarSuffix
		}
		name := cfg.Name
		if name == "" {
			name = "sidecar"
		}
		return NewSidecarDetector(name, suffix), nil
	default:
		return nil, errors.Errorf("unknown detector kind: %s", cfg.Kind)
	}
}
