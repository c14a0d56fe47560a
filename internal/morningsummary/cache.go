package morningsummary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
	"github.com/bencan1a/calendarlite/internal/logging"
)

// CacheTTL matches spec §4.11's 300-second result TTL.
const CacheTTL = 300 * time.Second

// Backend is the optional shared cache (go-redis/v9), mirroring the
// teacher's idempotency.Backend interface.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// RedisBackend adapts a *redis.Client to Backend.
type RedisBackend struct {
	Client *redis.Client
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	val, err := b.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (b *RedisBackend) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return b.Client.Set(ctx, key, value, ttl).Err()
}

// NewRedisBackend dials addr, returning nil (no cache backend) if addr is
// empty — the in-memory cache alone is a fully functional default.
func NewRedisBackend(addr string) *RedisBackend {
	if addr == "" {
		return nil
	}
	return &RedisBackend{Client: redis.NewClient(&redis.Options{Addr: addr})}
}

type cacheEntry struct {
	Result   Result
	StoredAt time.Time
}

// Cache memoizes Generate results by (event-id-set, date, timezone,
// detail_level), evicting on read and sweeping stale in-memory entries on
// write, per spec §4.11 "Caching".
type Cache struct {
	backend Backend
	mu      sync.Mutex
	memory  map[string]cacheEntry
}

// NewCache constructs a Cache. backend may be nil to use the in-memory map
// alone (spec §4.11 expansion: in-memory default, optional Redis mirror).
func NewCache(backend Backend) *Cache {
	return &Cache{backend: backend, memory: make(map[string]cacheEntry)}
}

// Key builds the cache key from the inputs spec §4.11 names.
func Key(events []calendarevent.Event, req Request) string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.MeetingID
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	eventHash := hex.EncodeToString(h.Sum(nil))[:16]

	date := req.Date
	if date == "" {
		date = "tomorrow"
	}
	return eventHash + "|" + date + "|" + req.Timezone + "|" + req.DetailLevel
}

// Get returns a cached Result if present and not expired, evicting the
// entry on expiry.
func (c *Cache) Get(ctx context.Context, key string) (Result, bool) {
	if c.backend != nil {
		raw, err := c.backend.Get(ctx, key)
		if err != nil {
			logging.For("morningsummary").Warn().Err(err).Msg("cache backend read failed")
			return Result{}, false
		}
		if raw == "" {
			return Result{}, false
		}
		var result Result
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			return Result{}, false
		}
		return result, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.memory[key]
	if !ok {
		return Result{}, false
	}
	if time.Since(entry.StoredAt) > CacheTTL {
		delete(c.memory, key)
		return Result{}, false
	}
	return entry.Result, true
}

// Set stores result under key and sweeps expired in-memory entries.
func (c *Cache) Set(ctx context.Context, key string, result Result) {
	if c.backend != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return
		}
		if err := c.backend.Set(ctx, key, string(data), CacheTTL); err != nil {
			logging.For("morningsummary").Warn().Err(err).Msg("cache backend write failed")
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory[key] = cacheEntry{Result: result, StoredAt: time.Now()}
	now := time.Now()
	for k, e := range c.memory {
		if now.Sub(e.StoredAt) > CacheTTL {
			delete(c.memory, k)
		}
	}
}
