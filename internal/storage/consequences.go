package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jwebster45206/saga-engine/pkg/consequence"
)

// Consequence repository operations (Redis-backed). Each player's pending
// consequences live in one hash keyed by consequence id; schedule order is
// recovered from the CreatedAt and Seq fields on read.

var _ consequence.Repository = (*RedisStore)(nil)

func consequencesKey(playerID string) string {
	return "consequences:" + playerID
}

func (r *RedisStore) Add(ctx context.Context, c *consequence.Consequence) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal consequence: %w", err)
	}

	if err := r.client.HSet(ctx, consequencesKey(c.PlayerID), c.ID, string(data)).Err(); err != nil {
		r.logger.Error("Failed to store consequence", "player_id", c.PlayerID, "consequence_id", c.ID, "error", err)
		return fmt.Errorf("failed to store consequence: %w", err)
	}
	return nil
}

func (r *RedisStore) ListPending(ctx context.Context, playerID string) ([]*consequence.Consequence, error) {
	entries, err := r.client.HGetAll(ctx, consequencesKey(playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list consequences: %w", err)
	}

	var out []*consequence.Consequence
	for id, entry := range entries {
		var c consequence.Consequence
		if err := json.Unmarshal([]byte(entry), &c); err != nil {
			r.logger.Warn("Skipping malformed consequence entry", "player_id", playerID, "consequence_id", id, "error", err)
			continue
		}
		if c.Exhausted() {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return consequence.ScheduledBefore(out[i], out[j]) })
	return out, nil
}

func (r *RedisStore) Update(ctx context.Context, c *consequence.Consequence) error {
	return r.Add(ctx, c)
}

func (r *RedisStore) Remove(ctx context.Context, playerID, id string) (bool, error) {
	removed, err := r.client.HDel(ctx, consequencesKey(playerID), id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove consequence: %w", err)
	}
	return removed > 0, nil
}
