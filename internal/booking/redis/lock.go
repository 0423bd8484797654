package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const lockKeyPrefix = "admission_lock:"

// retryInterval bounds how hot the acquire loop spins while another request
// holds the session's admission lock. The critical section is short (one
// count + one insert), so contention clears quickly.
const retryInterval = 20 * time.Millisecond

// Redis serializes the admission decision per session: SetNX on a key scoped
// to the session id, released only by the owner. Requests against different
// sessions never contend.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getLockTTL returns the admission lock TTL from the environment or the
// default. The TTL only matters when a holder dies mid-section; normal
// releases happen well before it expires.
func (r *Redis) getLockTTL() time.Duration {
	defaultTTL := 10 * time.Second

	ttlStr := os.Getenv("ADMISSION_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid ADMISSION_LOCK_TTL_SECONDS value '" + ttlStr + "', using default 10 seconds")
		return defaultTTL
	}
	return time.Duration(ttlSec) * time.Second
}

// TryAcquireSession attempts a single non-blocking grab of the session lock.
func (r *Redis) TryAcquireSession(ctx context.Context, sessionID, ownerID string) (bool, error) {
	key := lockKeyPrefix + sessionID
	return r.Client.SetNX(ctx, key, ownerID, r.getLockTTL()).Result()
}

// AcquireSession blocks until the session's admission lock is held or the
// context ends. Returns false when the deadline expired without acquisition.
func (r *Redis) AcquireSession(ctx context.Context, sessionID, ownerID string) (bool, error) {
	for {
		ok, err := r.TryAcquireSession(ctx, sessionID, ownerID)
		if err != nil {
			return false, fmt.Errorf("redis lock error for session %s: %w", sessionID, err)
		}
		if ok {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(retryInterval):
		}
	}
}

// ReleaseSession drops the lock if this owner still holds it. A lock that
// expired and was re-acquired by someone else is left alone.
func (r *Redis) ReleaseSession(ctx context.Context, sessionID, ownerID string) error {
	key := lockKeyPrefix + sessionID
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == ownerID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
