package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const currencySnapshotKey = "ledgerscope:currencies"

// Resolver maps a currency identifier to its display code. It is built once
// per snapshot and reused; an unknown identifier resolves to "" rather than
// failing the report.
type Resolver struct {
	codes map[int64]string
}

// NewResolver builds a Resolver from a currency snapshot.
func NewResolver(currencies []CurrencyRef) *Resolver {
	codes := make(map[int64]string, len(currencies))
	for _, c := range currencies {
		codes[c.ID] = c.Code
	}
	return &Resolver{codes: codes}
}

// Resolve returns the currency's short code, or "" when unknown.
func (r *Resolver) Resolve(currencyID int64) string {
	if r == nil {
		return ""
	}
	return r.codes[currencyID]
}

// CurrencySource supplies the full currency snapshot from the store.
type CurrencySource interface {
	ListCurrencies(ctx context.Context) ([]CurrencyRef, error)
}

// SnapshotCache serves currency resolvers from a TTL'd redis snapshot,
// falling back to the store on a miss. Concurrent misses share one store
// fetch. Cache errors are non-fatal: the store remains the source of truth.
type SnapshotCache struct {
	source CurrencySource
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewSnapshotCache builds the cache. rdb may be nil, in which case every
// load goes to the store.
func NewSnapshotCache(source CurrencySource, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SnapshotCache{source: source, rdb: rdb, ttl: ttl, logger: logger}
}

// Load returns a Resolver for the current currency snapshot.
func (c *SnapshotCache) Load(ctx context.Context) (*Resolver, error) {
	if c.rdb != nil {
		payload, err := c.rdb.Get(ctx, currencySnapshotKey).Bytes()
		if err == nil {
			if r, ok := decodeSnapshot(payload); ok {
				return r, nil
			}
		} else if err != redis.Nil && c.logger != nil {
			c.logger.Warn("currency snapshot cache read", slog.Any("error", err))
		}
	}

	v, err, _ := c.group.Do(currencySnapshotKey, func() (any, error) {
		currencies, err := c.source.ListCurrencies(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, currencies)
		return NewResolver(currencies), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resolver), nil
}

// Refresh re-primes the redis snapshot from the store. Used by the worker's
// scheduled refresh task.
func (c *SnapshotCache) Refresh(ctx context.Context) error {
	currencies, err := c.source.ListCurrencies(ctx)
	if err != nil {
		return err
	}
	c.store(ctx, currencies)
	return nil
}

func (c *SnapshotCache) store(ctx context.Context, currencies []CurrencyRef) {
	if c.rdb == nil {
		return
	}
	codes := make(map[string]string, len(currencies))
	for _, cur := range currencies {
		codes[strconv.FormatInt(cur.ID, 10)] = cur.Code
	}
	payload, err := json.Marshal(codes)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, currencySnapshotKey, payload, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("currency snapshot cache write", slog.Any("error", err))
	}
}

func decodeSnapshot(payload []byte) (*Resolver, bool) {
	var codes map[string]string
	if err := json.Unmarshal(payload, &codes); err != nil {
		return nil, false
	}
	resolved := make(map[int64]string, len(codes))
	for key, code := range codes {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, false
		}
		resolved[id] = code
	}
	return &Resolver{codes: resolved}, true
}
