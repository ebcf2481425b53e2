package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache stores provider responses. Values are stored as JSON, so anything with a
// canonical JSON form (Quote, Fundamentals) round-trips unchanged.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Clear(ctx context.Context) error
	Close() error
}

// Key builds the cache key of one provider call.
func Key(source, ticker, endpoint string) string {
	sum := md5.Sum([]byte(strings.Join([]string{source, strings.ToUpper(ticker), endpoint}, "|")))
	return hex.EncodeToString(sum[:])
}
