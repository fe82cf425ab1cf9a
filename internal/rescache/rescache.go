// Package rescache memoizes solved boards in Redis, keyed by a fingerprint of
// the input matrix, so repeat runs against the same board skip the search
// entirely. Optional: cmd/hitori only wires this in when -cache is set.
package rescache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	hex "github.com/tmthrgd/go-hex"

	"github.com/smilemakc/hitori/internal/grid"
)

// Cache wraps a redis.Client with board-fingerprint keyed get/set.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to the given Redis URL (redis://host:port/db form).
func New(url string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("rescache: parse redis url: %w", err)
	}
	return &Cache{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

// NewWithClient wraps an already-constructed client, used by tests against
// alicebob/miniredis.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

type record struct {
	Found bool   `json:"found"`
	Vals  []byte `json:"vals,omitempty"`
}

// Fingerprint derives a stable cache key from a puzzle's dimension and
// values.
func Fingerprint(m grid.Matrix) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:", m.N)
	for _, v := range m.Vals {
		fmt.Fprintf(h, "%d,", v)
	}
	return "hitori:board:" + hex.EncodeToString(h.Sum(nil))
}

// Lookup returns a previously cached result for m, if any.
func (c *Cache) Lookup(ctx context.Context, m grid.Matrix) (solution grid.Status, found, hit bool, err error) {
	raw, err := c.rdb.Get(ctx, Fingerprint(m)).Bytes()
	if err == redis.Nil {
		return nil, false, false, nil
	}
	if err != nil {
		return nil, false, false, fmt.Errorf("rescache: get: %w", err)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, false, fmt.Errorf("rescache: decode: %w", err)
	}
	return grid.Status(rec.Vals), rec.Found, true, nil
}

// Store persists m's outcome, overwriting any prior entry.
func (c *Cache) Store(ctx context.Context, m grid.Matrix, solution grid.Status, found bool) error {
	rec := record{Found: found}
	if found {
		rec.Vals = []byte(solution)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("rescache: encode: %w", err)
	}
	if err := c.rdb.Set(ctx, Fingerprint(m), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("rescache: set: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error { return c.rdb.Close() }
