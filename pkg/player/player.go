package player

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Player is the engine's view of one participant in a running saga.
// The turn counter and current location are owned by the quest progression
// machinery; pools and stats are mutated by consequence handlers and combat.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Pronouns string    `json:"pronouns,omitempty"`

	TurnNumber      int    `json:"turn_number"`
	CurrentLocation string `json:"current_location,omitempty"`

	Health    int `json:"health"`
	MaxHealth int `json:"max_health"`
	Mana      int `json:"mana"`
	MaxMana   int `json:"max_mana"`

	// Stats holds named integer stats (strength, charisma, reputation, ...).
	// Values are clamped at 0 when adjusted.
	Stats map[string]int `json:"stats,omitempty"`

	Inventory []string `json:"inventory,omitempty"`

	ActiveQuestIDs    map[string]bool `json:"active_quest_ids,omitempty"`
	CompletedQuestIDs map[string]bool `json:"completed_quest_ids,omitempty"`
	FailedQuestIDs    map[string]bool `json:"failed_quest_ids,omitempty"`

	EncountersCompleted int `json:"encounters_completed,omitempty"`
}

// New creates a player with a fresh ID, full pools, and turn counter at 1.
func New(name string, location string) *Player {
	return &Player{
		ID:                uuid.New(),
		Name:              name,
		TurnNumber:        1,
		CurrentLocation:   location,
		Health:            100,
		MaxHealth:         100,
		Mana:              50,
		MaxMana:           50,
		Stats:             make(map[string]int),
		ActiveQuestIDs:    make(map[string]bool),
		CompletedQuestIDs: make(map[string]bool),
		FailedQuestIDs:    make(map[string]bool),
	}
}

// Stat returns the named stat, or 0 if it has never been set.
func (p *Player) Stat(name string) int {
	return p.Stats[name]
}

// AdjustStat applies a delta to a named stat. The result is clamped at 0
// and returned.
func (p *Player) AdjustStat(name string, delta int) int {
	if p.Stats == nil {
		p.Stats = make(map[string]int)
	}
	v := p.Stats[name] + delta
	if v < 0 {
		v = 0
	}
	p.Stats[name] = v
	return v
}

// TakeDamage reduces the player's health. Health cannot go below 0.
func (p *Player) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	p.Health -= n
	if p.Health < 0 {
		p.Health = 0
	}
}

// Heal increases the player's health. Health cannot exceed MaxHealth.
func (p *Player) Heal(n int) {
	if n <= 0 {
		return
	}
	p.Health += n
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// AddItem appends an item to the player's inventory.
func (p *Player) AddItem(item string) {
	p.Inventory = append(p.Inventory, item)
}

// RemoveItem removes the first matching item from the inventory.
// Removing an absent item is a no-op, not an error.
func (p *Player) RemoveItem(item string) bool {
	for i, have := range p.Inventory {
		if have == item {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// HasItem reports whether the inventory contains the item.
func (p *Player) HasItem(item string) bool {
	return slices.Contains(p.Inventory, item)
}

// StartQuest records the quest as active.
func (p *Player) StartQuest(questID string) {
	if p.ActiveQuestIDs == nil {
		p.ActiveQuestIDs = make(map[string]bool)
	}
	p.ActiveQuestIDs[questID] = true
}

// CompleteQuest moves the quest from the active set to the completed set.
func (p *Player) CompleteQuest(questID string) {
	delete(p.ActiveQuestIDs, questID)
	if p.CompletedQuestIDs == nil {
		p.CompletedQuestIDs = make(map[string]bool)
	}
	p.CompletedQuestIDs[questID] = true
}

// FailQuest moves the quest from the active set to the failed set.
func (p *Player) FailQuest(questID string) {
	delete(p.ActiveQuestIDs, questID)
	if p.FailedQuestIDs == nil {
		p.FailedQuestIDs = make(map[string]bool)
	}
	p.FailedQuestIDs[questID] = true
}

// Clone returns a deep copy. The engine mutates a clone during turn
// processing and only swaps it in after a successful save, so a failed
// turn leaves no partial mutation visible.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Stats = maps.Clone(p.Stats)
	cp.Inventory = slices.Clone(p.Inventory)
	cp.ActiveQuestIDs = maps.Clone(p.ActiveQuestIDs)
	cp.CompletedQuestIDs = maps.Clone(p.CompletedQuestIDs)
	cp.FailedQuestIDs = maps.Clone(p.FailedQuestIDs)
	return &cp
}
