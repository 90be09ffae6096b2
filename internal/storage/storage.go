package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/player"
	"github.com/jwebster45206/saga-engine/pkg/quest"
)

// ErrNotFound marks a missing record. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// Event is one entry in a player's append-only audit log.
type Event struct {
	Turn        int       `json:"turn"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// Store is the persistence surface of the service: Redis for mutable
// session state, filesystem for static quest definitions. LoadEncounter
// returns (nil, nil) when no encounter is active; other loads return
// ErrNotFound for missing records.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	LoadPlayer(ctx context.Context, id string) (*player.Player, error)
	SavePlayer(ctx context.Context, p *player.Player) error
	DeletePlayer(ctx context.Context, id string) error

	LoadProgression(ctx context.Context, playerID, questID string) (*quest.Progression, error)
	SaveProgression(ctx context.Context, playerID string, prog *quest.Progression) error
	DeleteProgression(ctx context.Context, playerID, questID string) error

	LoadEncounter(ctx context.Context, playerID string) (*combat.Encounter, error)
	SaveEncounter(ctx context.Context, playerID string, enc *combat.Encounter) error
	DeleteEncounter(ctx context.Context, playerID string) error

	AppendEvent(ctx context.Context, playerID string, turn int, description string) error
	ListEvents(ctx context.Context, playerID string) ([]Event, error)

	// Quest definitions are filesystem-backed statics.
	GetQuest(id string) (*quest.Definition, error)
	ListQuests() ([]*quest.Definition, error)
}
