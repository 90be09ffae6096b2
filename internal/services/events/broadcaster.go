package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Event represents a generic event structure
type Event struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// Broadcaster publishes session lifecycle events to Redis Pub/Sub so
// observers (SSE bridges, consoles) can follow a player's session without
// polling.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Publish publishes an event to the player-specific channel
func (b *Broadcaster) Publish(ctx context.Context, event string, playerID string, payload any) error {
	channel := Channel(playerID)

	data, err := json.Marshal(Event{
		Type:     event,
		PlayerID: playerID,
		Data:     payload,
	})
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event,
		"player_id", playerID,
	)

	return nil
}

// Channel returns the Pub/Sub channel name for a player's session events.
func Channel(playerID string) string {
	return "saga-events:" + playerID
}
