// Package redislock is a single-key lease on Redis used to keep scheduled
// jobs from running on more than one replica at a time.
package redislock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func New(rdb *redis.Client, key string, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, key: key, ttl: ttl}
}

// TryLock takes the lease if nobody holds it. When acquired is false the
// returned release func is nil.
func (l *Locker) TryLock(ctx context.Context) (release func(), acquired bool, err error) {
	token, err := randomToken()
	if err != nil {
		return nil, false, err
	}

	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redislock: acquiring %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func() {
		// The lease may already be gone by TTL; nothing to report then.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err()
	}
	return release, true, nil
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("redislock: generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
