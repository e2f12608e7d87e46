package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/LdDl/censor-go/censor"
	"github.com/LdDl/censor-go/internal/config"
)

// StillFrame is frame index used for still images
const StillFrame = -1

// Key identifies detections of one detector for one frame of one media file
type Key struct {
	Detector string
	FileHash string
	Frame    int
}

// String returns key without backend prefix
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%d", k.Detector, k.FileHash, k.Frame)
}

// Cache stores raw detections so re-running arbitration with another config
// does not re-run detectors.
type Cache interface {
	// Get returns cached detections. Second value is false on miss
	Get(ctx context.Context, key Key) ([]censor.Detection, bool, error)
	Put(ctx context.Context, key Key, detections []censor.Detection) error
}

// New creates cache backend described by config
func New(cfg config.CacheConfig) (Cache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "memory":
		return NewLRU(cfg.Capacity, ttl), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, errors.New("redis cache backend requires redis_addr")
		}
		return NewRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.Prefix, ttl), nil
	default:
		return nil, errors.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// HashFile returns hex SHA-256 of file contents
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "can't open %s", path)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "can't hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(context.Context, Key) ([]censor.Detection, bool, error) { return nil, false, nil }
func (Nop) Put(context.Context, Key, []censor.Detection) error        { return nil }
