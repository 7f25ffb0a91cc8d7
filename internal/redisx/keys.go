package redisx

import "time"

const (
	// Idempotent order placement: idem:order:create:{customer_id}:{key} -> order_id,
	// or "pending" while the placement runs
	KeyIdemOrderCreate = "idem:order:create:%d:%s"

	// Revoked JWT: auth:revoked:{jti}
	KeyRevokedToken = "auth:revoked:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Low-stock products: zset member product_id, score quantity
	KeyLowStock = "stock:low"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLIdemPending = time.Minute
	TTLDedup       = 48 * time.Hour
)
