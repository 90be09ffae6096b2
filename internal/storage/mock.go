package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/player"
	"github.com/jwebster45206/saga-engine/pkg/quest"
)

// MockStore is a mock implementation of Store for testing
type MockStore struct {
	mu           sync.RWMutex
	players      map[string]*player.Player
	progressions map[string]*quest.Progression
	encounters   map[string]*combat.Encounter
	events       map[string][]Event
	quests       map[string]*quest.Definition
	pingError    error
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{
		players:      make(map[string]*player.Player),
		progressions: make(map[string]*quest.Progression),
		encounters:   make(map[string]*combat.Encounter),
		events:       make(map[string][]Event),
		quests:       make(map[string]*quest.Definition),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) SavePlayer(ctx context.Context, p *player.Player) error {
	if p == nil {
		return errors.New("player cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID.String()] = p.Clone()
	return nil
}

func (m *MockStore) LoadPlayer(ctx context.Context, id string) (*player.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, exists := m.players[id]
	if !exists {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

func (m *MockStore) DeletePlayer(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, id)
	delete(m.encounters, id)
	delete(m.events, id)
	return nil
}

func (m *MockStore) SaveProgression(ctx context.Context, playerID string, prog *quest.Progression) error {
	if prog == nil {
		return errors.New("progression cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progressions[playerID+":"+prog.QuestID] = prog.Clone()
	return nil
}

func (m *MockStore) LoadProgression(ctx context.Context, playerID, questID string) (*quest.Progression, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prog, exists := m.progressions[playerID+":"+questID]
	if !exists {
		return nil, fmt.Errorf("progression %s/%s: %w", playerID, questID, ErrNotFound)
	}
	return prog.Clone(), nil
}

func (m *MockStore) DeleteProgression(ctx context.Context, playerID, questID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.progressions, playerID+":"+questID)
	return nil
}

func (m *MockStore) SaveEncounter(ctx context.Context, playerID string, enc *combat.Encounter) error {
	if enc == nil {
		return errors.New("encounter cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.encounters[playerID] = enc.Clone()
	return nil
}

func (m *MockStore) LoadEncounter(ctx context.Context, playerID string) (*combat.Encounter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Missing encounter means no active combat, not an error.
	return m.encounters[playerID].Clone(), nil
}

func (m *MockStore) DeleteEncounter(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.encounters, playerID)
	return nil
}

func (m *MockStore) AppendEvent(ctx context.Context, playerID string, turn int, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[playerID] = append(m.events[playerID], Event{Turn: turn, Description: description, At: time.Now()})
	return nil
}

func (m *MockStore) ListEvents(ctx context.Context, playerID string) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.events[playerID]))
	copy(out, m.events[playerID])
	return out, nil
}

// AddQuest adds a quest definition to the mock store (for testing)
func (m *MockStore) AddQuest(def *quest.Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests[def.ID] = def
}

func (m *MockStore) GetQuest(id string) (*quest.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, exists := m.quests[id]
	if !exists {
		return nil, fmt.Errorf("quest %s: %w", id, ErrNotFound)
	}
	return def, nil
}

func (m *MockStore) ListQuests() ([]*quest.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*quest.Definition, 0, len(m.quests))
	for _, def := range m.quests {
		out = append(out, def)
	}
	return out, nil
}
