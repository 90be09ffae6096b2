package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/player"
	"github.com/jwebster45206/saga-engine/pkg/quest"
)

// RedisStore implements the Store interface using Redis for session state
// and the filesystem for static resources (quest definitions).
type RedisStore struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis store instance
func NewRedisStore(redisURL string, dataDir string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStore{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

// Client exposes the underlying Redis client for collaborators that share
// the connection (session locks, event broadcasting).
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Player operations

func (r *RedisStore) SavePlayer(ctx context.Context, p *player.Player) error {
	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("Failed to marshal player", "player_id", p.ID, "error", err)
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	key := "player:" + p.ID.String()
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save player", "player_id", p.ID, "error", err)
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadPlayer(ctx context.Context, id string) (*player.Player, error) {
	cmd := r.client.Get(ctx, "player:"+id)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
		}
		r.logger.Error("Failed to load player", "player_id", id, "error", err)
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	var p player.Player
	if err := json.Unmarshal([]byte(cmd.Val()), &p); err != nil {
		r.logger.Error("Failed to unmarshal player", "player_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	return &p, nil
}

func (r *RedisStore) DeletePlayer(ctx context.Context, id string) error {
	keys := []string{"player:" + id, "encounter:" + id, "events:" + id, "consequences:" + id}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Failed to delete player", "player_id", id, "error", err)
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return nil
}

// Quest progression operations

func progressionKey(playerID, questID string) string {
	return fmt.Sprintf("progression:%s:%s", playerID, questID)
}

func (r *RedisStore) SaveProgression(ctx context.Context, playerID string, prog *quest.Progression) error {
	data, err := json.Marshal(prog)
	if err != nil {
		return fmt.Errorf("failed to marshal progression: %w", err)
	}

	key := progressionKey(playerID, prog.QuestID)
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save progression", "player_id", playerID, "quest_id", prog.QuestID, "error", err)
		return fmt.Errorf("failed to save progression: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadProgression(ctx context.Context, playerID, questID string) (*quest.Progression, error) {
	cmd := r.client.Get(ctx, progressionKey(playerID, questID))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("progression %s/%s: %w", playerID, questID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load progression: %w", err)
	}

	var prog quest.Progression
	if err := json.Unmarshal([]byte(cmd.Val()), &prog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progression: %w", err)
	}
	return &prog, nil
}

func (r *RedisStore) DeleteProgression(ctx context.Context, playerID, questID string) error {
	if err := r.client.Del(ctx, progressionKey(playerID, questID)).Err(); err != nil {
		return fmt.Errorf("failed to delete progression: %w", err)
	}
	return nil
}

// Encounter operations. A missing encounter is not an error: it simply
// means no combat is active for the player.

func (r *RedisStore) SaveEncounter(ctx context.Context, playerID string, enc *combat.Encounter) error {
	data, err := json.Marshal(enc)
	if err != nil {
		return fmt.Errorf("failed to marshal encounter: %w", err)
	}

	if err := r.client.Set(ctx, "encounter:"+playerID, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save encounter", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to save encounter: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadEncounter(ctx context.Context, playerID string) (*combat.Encounter, error) {
	cmd := r.client.Get(ctx, "encounter:"+playerID)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load encounter: %w", err)
	}

	var enc combat.Encounter
	if err := json.Unmarshal([]byte(cmd.Val()), &enc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal encounter: %w", err)
	}
	return &enc, nil
}

func (r *RedisStore) DeleteEncounter(ctx context.Context, playerID string) error {
	if err := r.client.Del(ctx, "encounter:"+playerID).Err(); err != nil {
		return fmt.Errorf("failed to delete encounter: %w", err)
	}
	return nil
}

// Audit log operations

func (r *RedisStore) AppendEvent(ctx context.Context, playerID string, turn int, description string) error {
	data, err := json.Marshal(Event{Turn: turn, Description: description, At: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := r.client.RPush(ctx, "events:"+playerID, string(data)).Err(); err != nil {
		r.logger.Error("Failed to append event", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *RedisStore) ListEvents(ctx context.Context, playerID string) ([]Event, error) {
	entries, err := r.client.LRange(ctx, "events:"+playerID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		var ev Event
		if err := json.Unmarshal([]byte(entry), &ev); err != nil {
			r.logger.Warn("Skipping malformed event entry", "player_id", playerID, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
