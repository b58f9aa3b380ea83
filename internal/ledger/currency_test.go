package ledger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingCurrencySource struct {
	currencies []CurrencyRef
	err        error
	calls      atomic.Int32
}

func (s *countingCurrencySource) ListCurrencies(context.Context) ([]CurrencyRef, error) {
	s.calls.Add(1)
	return s.currencies, s.err
}

func TestResolverUnknownCurrencyIsEmpty(t *testing.T) {
	r := NewResolver([]CurrencyRef{{ID: 1, Code: "USD"}})
	require.Equal(t, "USD", r.Resolve(1))
	require.Equal(t, "", r.Resolve(42))

	var nilResolver *Resolver
	require.Equal(t, "", nilResolver.Resolve(1))
}

func TestSnapshotCacheServesFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	source := &countingCurrencySource{currencies: []CurrencyRef{{ID: 1, Code: "USD"}, {ID: 2, Code: "EUR"}}}
	cache := NewSnapshotCache(source, client, time.Minute, nil)

	first, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "EUR", first.Resolve(2))
	require.EqualValues(t, 1, source.calls.Load())

	// The second load is served from the snapshot, not the store.
	second, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "USD", second.Resolve(1))
	require.EqualValues(t, 1, source.calls.Load())
}

func TestSnapshotCacheExpiryHitsStoreAgain(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	source := &countingCurrencySource{currencies: []CurrencyRef{{ID: 1, Code: "USD"}}}
	cache := NewSnapshotCache(source, client, time.Minute, nil)

	_, err := cache.Load(context.Background())
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cache.Load(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, source.calls.Load())
}

func TestSnapshotCacheWithoutRedis(t *testing.T) {
	source := &countingCurrencySource{currencies: []CurrencyRef{{ID: 3, Code: "GBP"}}}
	cache := NewSnapshotCache(source, nil, time.Minute, nil)

	r, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "GBP", r.Resolve(3))
}

func TestSnapshotCacheStoreError(t *testing.T) {
	source := &countingCurrencySource{err: errors.New("store down")}
	cache := NewSnapshotCache(source, nil, time.Minute, nil)

	_, err := cache.Load(context.Background())
	require.Error(t, err)
}

func TestSnapshotCacheRefreshPrimes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	source := &countingCurrencySource{currencies: []CurrencyRef{{ID: 1, Code: "USD"}}}
	cache := NewSnapshotCache(source, client, time.Minute, nil)

	require.NoError(t, cache.Refresh(context.Background()))
	require.EqualValues(t, 1, source.calls.Load())

	r, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "USD", r.Resolve(1))
	require.EqualValues(t, 1, source.calls.Load(), "load after refresh must hit the snapshot")
}
