package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/knoott/partners-api/internal/orders"
)

// putIfNewer keeps the snapshot with the latest updated_at (unix micros) so a slow
// writer cannot overwrite a later transition.
var putIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) > tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[2], 'o', ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// OrderCache stores order snapshots so dashboards refresh without hitting Postgres.
type OrderCache struct {
	RDB *redis.Client
}

func (c *OrderCache) Get(ctx context.Context, id string) (orders.Order, bool) {
	s, err := c.RDB.HGet(ctx, fmt.Sprintf(KeyOrder, id), "o").Result()
	if err != nil || s == "" {
		return orders.Order{}, false
	}
	var o orders.Order
	if err := json.Unmarshal([]byte(s), &o); err != nil {
		return orders.Order{}, false
	}
	return o, true
}

// Put stores o unless the cache already holds a later snapshot of the same order.
func (c *OrderCache) Put(ctx context.Context, o orders.Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	keys := []string{fmt.Sprintf(KeyOrder, o.ID)}
	return putIfNewer.Run(ctx, c.RDB, keys, b, o.UpdatedAt.UnixMicro(), TTLOrderCache.Milliseconds()).Err()
}
