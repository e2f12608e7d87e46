package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/LdDl/censor-go/censor"
)

// LRU is in-process detection cache with per-entry TTL
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[Key]*list.Element
	now  func() time.Time
}

type kv struct {
	k   Key
	v   []censor.Detection
	exp time.Time
}

func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[Key]*list.Element), now: time.Now}
}

func (c *LRU) Get(_ context.Context, k Key) ([]censor.Detection, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		it := e.Value.(kv)
		if c.ttl <= 0 || c.now().Before(it.exp) {
			c.lst.MoveToFront(e)
			return append([]censor.Detection(nil), it.v...), true, nil
		}
		c.lst.Remove(e)
		delete(c.dict, k)
	}
	return nil, false, nil
}

func (c *LRU) Put(_ context.Context, k Key, v []censor.Detection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := kv{k: k, v: append([]censor.Detection(nil), v...), exp: c.now().Add(c.ttl)}
	if e, ok := c.dict[k]; ok {
		e.Value = item
		c.lst.MoveToFront(e)
		return nil
	}
	c.dict[k] = c.lst.PushFront(item)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		if back != nil {
			delete(c.dict, back.Value.(kv).k)
			c.lst.Remove(back)
		}
	}
	return nil
}

// Len returns number of stored entries, expired ones included
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
