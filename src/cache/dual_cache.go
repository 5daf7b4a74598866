package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/utils"
)

// DualCache is a memory map in front of a file-backed store. Reads check
// memory, then the file, repopulating memory on a file hit. Writes go to
// both synchronously.
//
// Memory holds the encoded entry and every Get decodes a fresh value, so
// callers may modify what they get back. The map is guarded by mu; two
// callers missing the same key both fetch, and the last Set wins in both
// tiers.
type DualCache[T any] struct {
	memory  map[string]memoryEntry
	mu      sync.RWMutex
	Storage interfaces.IStorage
	Clock   interfaces.IClock
	TTL     time.Duration
	Logger  *logger.Logger
}

type memoryEntry struct {
	payload   []byte
	timestamp int64
	ttl       int64
}

func (e memoryEntry) valid(nowMs int64) bool {
	return nowMs-e.timestamp < e.ttl
}

// -----------------------------------------------------------------------------

func NewDualCache[T any](store interfaces.IStorage, clock interfaces.IClock, ttl time.Duration, log *logger.Logger) *DualCache[T] {
	if ttl <= 0 {
		ttl = utils.DefaultDualCacheTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &DualCache[T]{
		memory:  make(map[string]memoryEntry),
		Storage: store,
		Clock:   clock,
		TTL:     ttl,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// HolidayKey is "holiday:{CC}:{year}".
func HolidayKey(countryCode string, year int) string {
	return fmt.Sprintf("holiday:%s:%d", strings.ToUpper(countryCode), year)
}

// FileName maps a cache key to its file: ':' becomes '_'.
func FileName(key string) string {
	return strings.ReplaceAll(key, ":", "_") + ".json"
}

// -----------------------------------------------------------------------------

func (c *DualCache[T]) nowMs() int64 {
	return c.Clock.Now().UnixMilli()
}

// -----------------------------------------------------------------------------

// Get returns the fresh value for key.
func (c *DualCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	now := c.nowMs()

	c.mu.RLock()
	mem, ok := c.memory[key]
	c.mu.RUnlock()
	if ok {
		if mem.valid(now) {
			if entry, err := c.decode(mem.payload); err == nil {
				return entry.Data, true
			}
		}
		c.mu.Lock()
		if cur, still := c.memory[key]; still && cur.timestamp == mem.timestamp {
			delete(c.memory, key)
		}
		c.mu.Unlock()
	}

	data, found, err := c.Storage.Get(ctx, FileName(key))
	if err != nil {
		c.Logger.Warning("Cache file for %s unreadable: %v", key, err)
		return zero, false
	}
	if !found {
		return zero, false
	}

	entry, err := c.decode(data)
	if err != nil {
		c.Logger.Warning("Cache file for %s is corrupt: %v", key, err)
		return zero, false
	}
	if !entry.Valid(now) {
		return zero, false
	}

	c.mu.Lock()
	if cur, ok := c.memory[key]; !ok || cur.timestamp <= entry.Timestamp {
		c.memory[key] = memoryEntry{payload: data, timestamp: entry.Timestamp, ttl: entry.TTL}
	}
	c.mu.Unlock()
	return entry.Data, true
}

func (c *DualCache[T]) decode(payload []byte) (models.MCacheEntry[T], error) {
	var entry models.MCacheEntry[T]
	err := json.Unmarshal(payload, &entry)
	return entry, err
}

// -----------------------------------------------------------------------------

// Set stores value under key in memory and on file.
func (c *DualCache[T]) Set(ctx context.Context, key string, value T) error {
	entry := models.MCacheEntry[T]{
		Data:      value,
		Timestamp: c.nowMs(),
		TTL:       c.TTL.Milliseconds(),
		Key:       key,
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.memory[key] = memoryEntry{payload: payload, timestamp: entry.Timestamp, ttl: entry.TTL}
	c.mu.Unlock()
	return c.Storage.Put(ctx, FileName(key), payload)
}

// -----------------------------------------------------------------------------

// Invalidate drops key from both tiers.
func (c *DualCache[T]) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.memory, key)
	c.mu.Unlock()
	return c.Storage.Delete(ctx, FileName(key))
}
