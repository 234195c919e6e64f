package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Dedup remembers which deliveries a consumer already handled.
type Dedup struct {
	RDB     *redis.Client
	Service string
}

// Claim marks id as processed. It reports false when another delivery already claimed it.
func (d *Dedup) Claim(ctx context.Context, id string) (bool, error) {
	return d.RDB.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, id), "1", TTLDedup).Result()
}

// Release drops a claim so a failed delivery can be processed again.
func (d *Dedup) Release(ctx context.Context, id string) error {
	return d.RDB.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, id)).Err()
}
