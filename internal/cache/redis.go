package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/LdDl/censor-go/censor"
	"github.com/LdDl/censor-go/internal/logger"
)

// Redis shares detection cache between processes. Values are JSON encoded
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(addr, pass string, db int, prefix string, ttl time.Duration) *Redis {
	logger.L().Debug("redis_cache", "addr", addr, "db", db)
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *Redis) key(k Key) string {
	return c.prefix + ":" + k.String()
}

func (c *Redis) Get(ctx context.Context, k Key) ([]censor.Detection, bool, error) {
	s, err := c.client.Get(ctx, c.key(k)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "can't get %s", c.key(k))
	}
	var out []censor.Detection
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false, errors.Wrapf(err, "can't decode %s", c.key(k))
	}
	return out, true, nil
}

func (c *Redis) Put(ctx context.Context, k Key, detections []censor.Detection) error {
	b, err := json.Marshal(detections)
	if err != nil {
		return errors.Wrap(err, "can't encode detections")
	}
	if err := c.client.Set(ctx, c.key(k), string(b), c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "can't set %s", c.key(k))
	}
	return nil
}

// Close releases redis connections
func (c *Redis) Close() error {
	return c.client.Close()
}
