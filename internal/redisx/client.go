package redisx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Dedup remembers processed event ids per consuming service for TTLDedup.
type Dedup struct {
	RDB     *redis.Client
	Service string
}

func (d *Dedup) Seen(ctx context.Context, id string) (bool, error) {
	return Exists(ctx, d.RDB, fmt.Sprintf(KeyDedup, d.Service, id))
}

func (d *Dedup) Mark(ctx context.Context, id string) error {
	return d.RDB.Set(ctx, fmt.Sprintf(KeyDedup, d.Service, id), "1", TTLDedup).Err()
}

// Idempotency maps a client supplied Idempotency-Key to the order it created.
// A key is claimed with SET NX before the order is placed, so concurrent
// retries with the same key cannot both place it.
type Idempotency struct{ RDB *redis.Client }

const idemPending = "pending"

// Claim takes key for a new placement. When the key is already taken it
// returns the order id stored under it, or 0 while that placement is still
// in flight.
func (i *Idempotency) Claim(ctx context.Context, customerID int64, key string) (int64, bool, error) {
	k := fmt.Sprintf(KeyIdemOrderCreate, customerID, key)
	ok, err := i.RDB.SetNX(ctx, k, idemPending, TTLIdemPending).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}
	v, err := i.RDB.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Released or expired since the SETNX; the caller may retry.
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if v == idemPending {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency value %q: %w", v, err)
	}
	return id, false, nil
}

// Remember records the order a claimed key produced.
func (i *Idempotency) Remember(ctx context.Context, customerID int64, key string, orderID int64) error {
	return i.RDB.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, customerID, key), orderID, TTLIdempotency).Err()
}

// Release frees a claimed key after a failed placement.
func (i *Idempotency) Release(ctx context.Context, customerID int64, key string) error {
	return i.RDB.Del(ctx, fmt.Sprintf(KeyIdemOrderCreate, customerID, key)).Err()
}

// Denylist holds revoked token ids until the token would have expired anyway.
type Denylist struct{ RDB *redis.Client }

func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.RDB.Set(ctx, fmt.Sprintf(KeyRevokedToken, jti), "1", ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return Exists(ctx, d.RDB, fmt.Sprintf(KeyRevokedToken, jti))
}

// LowStock is a sorted set of product ids scored by remaining quantity.
type LowStock struct{ RDB *redis.Client }

type LowStockEntry struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (l *LowStock) Mark(ctx context.Context, productID int64, quantity int) error {
	return l.RDB.ZAdd(ctx, KeyLowStock, redis.Z{
		Score:  float64(quantity),
		Member: strconv.FormatInt(productID, 10),
	}).Err()
}

func (l *LowStock) Clear(ctx context.Context, productID int64) error {
	return l.RDB.ZRem(ctx, KeyLowStock, strconv.FormatInt(productID, 10)).Err()
}

// Replace swaps the set contents in one MULTI/EXEC.
func (l *LowStock) Replace(ctx context.Context, quantities map[int64]int) error {
	_, err := l.RDB.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, KeyLowStock)
		if len(quantities) == 0 {
			return nil
		}
		members := make([]redis.Z, 0, len(quantities))
		for id, qty := range quantities {
			members = append(members, redis.Z{Score: float64(qty), Member: strconv.FormatInt(id, 10)})
		}
		pipe.ZAdd(ctx, KeyLowStock, members...)
		return nil
	})
	return err
}

// List returns entries lowest quantity first.
func (l *LowStock) List(ctx context.Context) ([]LowStockEntry, error) {
	zs, err := l.RDB.ZRangeWithScores(ctx, KeyLowStock, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]LowStockEntry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, LowStockEntry{ProductID: id, Quantity: int(z.Score)})
	}
	return out, nil
}
