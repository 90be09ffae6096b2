package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 30 * time.Second

// releaseScript deletes the lock only if this locker still owns it, so an
// expired lock reacquired by another locker is never released by mistake.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker serializes turn processing per player id. Turns for different
// players proceed in parallel; a second turn for the same player is
// rejected until the first completes or the lock TTL expires.
type Locker struct {
	redisClient *redis.Client
	logger      *slog.Logger
	owner       string
	ttl         time.Duration
}

// NewLocker creates a locker with a unique owner token.
func NewLocker(redisClient *redis.Client, logger *slog.Logger) *Locker {
	return &Locker{
		redisClient: redisClient,
		logger:      logger,
		owner:       fmt.Sprintf("locker-%s", uuid.New().String()[:8]),
		ttl:         defaultLockTTL,
	}
}

// Acquire attempts to take the per-player lock.
// Returns true if the lock was acquired, false if already held.
func (l *Locker) Acquire(ctx context.Context, playerID string) (bool, error) {
	lockKey := lockKey(playerID)

	ok, err := l.redisClient.SetNX(ctx, lockKey, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire player lock: %w", err)
	}
	return ok, nil
}

// Release releases the per-player lock if this locker owns it.
func (l *Locker) Release(ctx context.Context, playerID string) {
	lockKey := lockKey(playerID)

	if err := releaseScript.Run(ctx, l.redisClient, []string{lockKey}, l.owner).Err(); err != nil {
		l.logger.Error("Failed to release player lock", "error", err, "player_id", playerID)
	}
}

func lockKey(playerID string) string {
	return "player-lock:" + playerID
}
