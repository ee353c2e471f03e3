package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

// putIfNewer writes the position only when it is strictly newer than the
// cached one. KEYS[1] rider key; ARGV: recorded_at (unix micros), payload, ttl ms.
var putIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'ts')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'ts', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type RedisLocationCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisLocationCache(client *redis.Client, ttl time.Duration) *RedisLocationCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocationCache{Client: client, TTL: ttl}
}

func riderKey(riderID uint) string {
	return fmt.Sprintf("rider:location:%d", riderID)
}

func (c *RedisLocationCache) Put(ctx context.Context, p transport.Position) (bool, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("redis: marshal position: %w", err)
	}
	n, err := putIfNewer.Run(ctx, c.Client, []string{riderKey(p.RiderID)},
		p.RecordedAt.UnixMicro(), data, c.TTL.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis: put position: %w", err)
	}
	return n == 1, nil
}

func (c *RedisLocationCache) Get(ctx context.Context, riderID uint) (*transport.Position, error) {
	data, err := c.Client.HGet(ctx, riderKey(riderID), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: get position: %w", err)
	}
	var p transport.Position
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("redis: decode position: %w", err)
	}
	return &p, nil
}

// MemoryLocationCache is the single-process cache used when REDIS_URL is not set.
type MemoryLocationCache struct {
	mu   sync.Mutex
	last map[uint]transport.Position
}

func NewMemoryLocationCache() *MemoryLocationCache {
	return &MemoryLocationCache{last: make(map[uint]transport.Position)}
}

func (c *MemoryLocationCache) Put(_ context.Context, p transport.Position) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.last[p.RiderID]; ok && !p.RecordedAt.After(cur.RecordedAt) {
		return false, nil
	}
	c.last[p.RiderID] = p
	return true, nil
}

func (c *MemoryLocationCache) Get(_ context.Context, riderID uint) (*transport.Position, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.last[riderID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
