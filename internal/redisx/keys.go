package redisx

import "time"

const (
	// Latest order snapshot: order:{order_id} -> hash {v: updated_at micros, o: order JSON}
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{id} (id = event_id or payment_ref)
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
