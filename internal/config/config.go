package config

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/LdDl/censor-go/censor"
	"github.com/LdDl/censor-go/internal/render"
)

// PartConfig is per-label policy as written in the config file. Missing
// fields inherit from defaults.
type PartConfig struct {
	State          *string         `yaml:"state"`
	Censors        []censor.Censor `yaml:"censors"`
	Margin         *float64        `yaml:"margin"`
	MarginWidth    *float64        `yaml:"margin_width"`
	MarginHeight   *float64        `yaml:"margin_height"`
	Shape          *string         `yaml:"shape"`
	ProtectedShape *string         `yaml:"protected_shape"`
	FadePercent    *float64        `yaml:"fade_percent"`
}

type ResolutionConfig struct {
	Disabled       bool `yaml:"disabled"`
	ScoreDominance bool `yaml:"score_dominance"`
}

type TrackerConfig struct {
	// Negative value holds tracks forever
	HoldSeconds *float64 `yaml:"hold_seconds"`
	Tolerance   *float64 `yaml:"tolerance"`
	// Experimental, off by default: matches against Kalman-predicted regions
	Smoothing   bool     `yaml:"smoothing"`
}

type CacheConfig struct {
	// none, memory or redis
	Backend    string `yaml:"backend"`
	Capacity   int    `yaml:"capacity"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisPass  string `yaml:"redis_pass"`
	RedisDB    int    `yaml:"redis_db"`
	Prefix     string `yaml:"prefix"`
}

type DetectorConfig struct {
	Name string `yaml:"name"`
	// Only "sidecar" is built in: detections are read from <media><suffix>
	Kind   string `yaml:"kind"`
	Suffix string `yaml:"suffix"`
}

// File mirrors the YAML config file
type File struct {
	Defaults          PartConfig            `yaml:"defaults"`
	Parts             map[string]PartConfig `yaml:"parts"`
	EnabledParts      []string              `yaml:"enabled_parts"`
	MergeGroups       map[string][]string   `yaml:"merge_groups"`
	PersistenceGroups map[string][]string   `yaml:"persistence_groups"`
	Resolution        ResolutionConfig      `yaml:"resolution"`
	Tracker           TrackerConfig         `yaml:"tracker"`
	Cache             CacheConfig           `yaml:"cache"`
	Detectors         []DetectorConfig      `yaml:"detectors"`
	Workers           int                   `yaml:"workers"`
}

// Config is validated configuration with per-label policies resolved
type Config struct {
	File
	Policies *censor.PolicySet
}

const (
	defaultHoldSeconds   = 0.5
	defaultTolerance     = 1.0
	defaultCacheCapacity = 256
	defaultCacheTTL      = 3600
	defaultCachePrefix   = "censor:detections"
)

// Load reads .env (if present), the YAML file at path and environment overrides
func Load(path string) (*Config, error) {
	// Best-effort: .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read config %s", path)
	}
	file, err := decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "can't parse config %s", path)
	}
	if err := applyEnv(&file); err != nil {
		return nil, err
	}
	return Build(file)
}

// Parse builds config from YAML document without touching the environment
func Parse(data []byte) (*Config, error) {
	file, err := decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse config")
	}
	return Build(file)
}

// decode rejects unknown keys so misspelled options are not silently dropped
func decode(data []byte) (File, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, err
	}
	return file, nil
}

// Build fills defaults, validates the file and resolves policies
func Build(file File) (*Config, error) {
	if file.Tracker.HoldSeconds == nil {
		v := defaultHoldSeconds
		file.Tracker.HoldSeconds = &v
	}
	if file.Tracker.Tolerance == nil {
		v := defaultTolerance
		file.Tracker.Tolerance = &v
	}
	if *file.Tracker.Tolerance <= 0 {
		return nil, errors.Wrapf(censor.ErrInvalidTolerance, "tracker.tolerance %f", *file.Tracker.Tolerance)
	}
	if file.Cache.Backend == "" {
		file.Cache.Backend = "none"
	}
	switch file.Cache.Backend {
	case "none", "memory", "redis":
	default:
		return nil, errors.Errorf("unknown cache backend %q", file.Cache.Backend)
	}
	if file.Cache.Capacity <= 0 {
		file.Cache.Capacity = defaultCacheCapacity
	}
	if file.Cache.TTLSeconds <= 0 {
		file.Cache.TTLSeconds = defaultCacheTTL
	}
	if file.Cache.Prefix == "" {
		file.Cache.Prefix = defaultCachePrefix
	}
	if len(file.EnabledParts) == 0 {
		for label := range file.Parts {
			file.EnabledParts = append(file.EnabledParts, label)
		}
	}

	defaultsPatch, err := file.Defaults.Patch()
	if err != nil {
		return nil, errors.Wrap(err, "defaults")
	}
	defaults := censor.DefaultPolicy().Apply(defaultsPatch)
	patches := make(map[string]censor.PolicyPatch, len(file.Parts))
	for label, pc := range file.Parts {
		patch, err := pc.Patch()
		if err != nil {
			return nil, errors.Wrapf(err, "parts.%s", label)
		}
		patches[label] = patch
	}
	policies, err := censor.NewPolicySet(defaults, patches, file.EnabledParts, file.MergeGroups, file.PersistenceGroups)
	if err != nil {
		return nil, err
	}
	if err := validatePolicies(policies); err != nil {
		return nil, err
	}
	return &Config{File: file, Policies: policies}, nil
}

// validatePolicies rejects effects and shapes nothing can render
func validatePolicies(policies *censor.PolicySet) error {
	shapes := censor.DefaultShapes()
	for _, label := range policies.Labels() {
		pol, err := policies.Get(label)
		if err != nil {
			return err
		}
		for _, c := range pol.Censors {
			if _, err := render.Compile(c); err != nil {
				return errors.Wrapf(err, "parts.%s", label)
			}
		}
		for _, name := range []string{pol.Shape, pol.ProtectedShape} {
			if name == "" {
				continue
			}
			if _, err := shapes.Lookup(name); err != nil {
				return errors.Wrapf(err, "parts.%s", label)
			}
		}
	}
	return nil
}

// Patch converts part config to sparse policy patch
func (pc PartConfig) Patch() (censor.PolicyPatch, error) {
	patch := censor.PolicyPatch{
		Censors:        pc.Censors,
		MarginWidth:    pc.Margin,
		MarginHeight:   pc.Margin,
		Shape:          pc.Shape,
		ProtectedShape: pc.ProtectedShape,
		FadePercent:    pc.FadePercent,
	}
	if pc.MarginWidth != nil {
		patch.MarginWidth = pc.MarginWidth
	}
	if pc.MarginHeight != nil {
		patch.MarginHeight = pc.MarginHeight
	}
	if pc.State != nil {
		state, err := censor.ParseState(*pc.State)
		if err != nil {
			return censor.PolicyPatch{}, err
		}
		patch.State = &state
	}
	return patch, nil
}

// NewResolver creates conflict resolver described by the config
func (c *Config) NewResolver() *censor.Resolver {
	var opts []censor.ResolverOption
	if c.Resolution.Disabled {
		opts = append(opts, censor.WithResolutionDisabled())
	}
	if c.Resolution.ScoreDominance {
		opts = append(opts, censor.WithScoreDominance())
	}
	return censor.NewResolver(opts...)
}

// NewTracker creates part tracker for a video with the given frame rate
func (c *Config) NewTracker(frameRate float64) (*censor.PartTracker, error) {
	opts := []censor.TrackerOption{censor.WithTolerance(*c.Tracker.Tolerance)}
	if c.Tracker.Smoothing && frameRate > 0 {
		opts = append(opts, censor.WithSmoothing(1.0/frameRate))
	}
	return censor.NewPartTracker(*c.Tracker.HoldSeconds, frameRate, opts...)
}

// applyEnv overrides file values with CENSOR_* environment variables
func applyEnv(file *File) error {
	if v := strings.TrimSpace(os.Getenv("CENSOR_HOLD_SECONDS")); v != "" {
		hold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(err, "CENSOR_HOLD_SECONDS")
		}
		file.Tracker.HoldSeconds = &hold
	}
	if v := strings.TrimSpace(os.Getenv("CENSOR_CACHE_BACKEND")); v != "" {
		file.Cache.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("CENSOR_REDIS_ADDR")); v != "" {
		file.Cache.RedisAddr = v
	}
	if v := os.Getenv("CENSOR_REDIS_PASS"); v != "" {
		file.Cache.RedisPass = v
	}
	if v := strings.TrimSpace(os.Getenv("CENSOR_REDIS_DB")); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "CENSOR_REDIS_DB")
		}
		file.Cache.RedisDB = db
	}
	if v := strings.TrimSpace(os.Getenv("CENSOR_WORKERS")); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "CENSOR_WORKERS")
		}
		file.Workers = workers
	}
	return nil
}
