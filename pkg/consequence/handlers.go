package consequence

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/saga-engine/pkg/player"
)

// handler executes one consequence type against a player snapshot.
// Handlers touch nothing outside the player and the returned result, and
// missing optional payload fields fall back to documented defaults rather
// than failing.
type handler func(c *Consequence, p *player.Player) Executed

var handlers = map[Type]handler{
	TypeStatChange:     executeStatChange,
	TypeInventory:      executeInventory,
	TypeLocationChange: executeLocationChange,
	TypeNarrative:      executeNarrative,
	TypeQuestUnlock:    executeQuestUnlock,
	TypeNpcInteraction: executeNpcInteraction,
	TypeWorldState:     executeWorldState,
}

func execute(c *Consequence, p *player.Player) Executed {
	if h, ok := handlers[c.Type]; ok {
		return h(c, p)
	}
	return Executed{
		ConsequenceID: c.ID,
		Type:          c.Type,
		Message:       "Something shifts, though its nature is unclear.",
	}
}

// executeStatChange applies each named delta from payload["stat_changes"],
// clamping results at 0.
func executeStatChange(c *Consequence, p *player.Player) Executed {
	changes := payloadIntMap(c.Payload, "stat_changes")
	applied := make(map[string]int, len(changes))
	for stat, delta := range changes {
		p.AdjustStat(stat, delta)
		applied[stat] = delta
	}
	return Executed{
		ConsequenceID: c.ID,
		Type:          c.Type,
		Message:       payloadString(c.Payload, "message", "You feel the weight of a past choice settle on you."),
		StatChanges:   applied,
	}
}

// executeInventory appends payload["add_items"] and removes
// payload["remove_items"]; removing an absent item is a silent no-op.
func executeInventory(c *Consequence, p *player.Player) Executed {
	added := payloadStringSlice(c.Payload, "add_items")
	for _, item := range added {
		p.AddItem(item)
	}
	var removed []string
	for _, item := range payloadStringSlice(c.Payload, "remove_items") {
		if p.RemoveItem(item) {
			removed = append(removed, item)
		}
	}
	msg := payloadString(c.Payload, "message", "")
	if msg == "" {
		switch {
		case len(added) > 0:
			msg = fmt.Sprintf("You acquire: %s.", strings.Join(added, ", "))
		case len(removed) > 0:
			msg = fmt.Sprintf("You lose: %s.", strings.Join(removed, ", "))
		default:
			msg = "Your pack feels no different."
		}
	}
	return Executed{
		ConsequenceID: c.ID,
		Type:          c.Type,
		Message:       msg,
		ItemsAdded:    added,
		ItemsRemoved:  removed,
	}
}

// executeLocationChange overwrites the player's location with
// payload["location"]. A missing location leaves the player in place.
func executeLocationChange(c *Consequence, p *player.Player) Executed {
	loc := payloadString(c.Payload, "location", "")
	if loc != "" {
		p.CurrentLocation = loc
	}
	return Executed{
		ConsequenceID: c.ID,
		Type:          c.Type,
		Message:       payloadString(c.Payload, "message", fmt.Sprintf("You find yourself in %s.", p.CurrentLocation)),
		NewLocation:   p.CurrentLocation,
	}
}

// The remaining types are pure narrative signals: they describe an effect
// without mutating the player. Downstream callers may set quest flags
// based on the result.

func executeNarrative(c *Consequence, p *player.Player) Executed {
	return Executed{
		ConsequenceID: c.ID,
		Type:          c.Type,
		Message:       payloadString(c.Payload, "message", "An echo of an earlier decision returns to you."),
	}
}

func executeQuestUnlock(c *Consequence, p *player.Player) Executed {
	questID := payloadString(c.Payload, "quest_id", "")
	msg := payloadString(c.Payload, "message", "")
	if msg == "" {
		if questID != "" {
			msg = fmt.Sprintf("A new path opens before you: %s.", questID)
		} else {
			msg = "A new path opens before you."
		}
	}
	return Executed{
		ConsequenceID: c.ID,
		Type:          c.Type,
		Message:       msg,
		QuestID:       questID,
	}
}

func executeNpcInteraction(c *Consequence, p *player.Player) Executed {
	npc := payloadString(c.Payload, "npc", "a stranger")
	return Executed{
		ConsequenceID: c.ID,
		Type:          c.Type,
		Message:       payloadString(c.Payload, "message", fmt.Sprintf("Word of your deeds has reached %s.", npc)),
	}
}

func executeWorldState(c *Consequence, p *player.Player) Executed {
	return Executed{
		ConsequenceID: c.ID,
		Type:          c.Type,
		Message:       payloadString(c.Payload, "message", "The world has changed in some small way."),
	}
}

// Payload accessors. Payloads round-trip through JSON, so numbers may
// arrive as float64 and slices as []any.

func payloadString(payload map[string]any, key, fallback string) string {
	if v, ok := payload[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func payloadStringSlice(payload map[string]any, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func payloadIntMap(payload map[string]any, key string) map[string]int {
	out := make(map[string]int)
	switch v := payload[key].(type) {
	case map[string]int:
		for k, n := range v {
			out[k] = n
		}
	case map[string]any:
		for k, raw := range v {
			switch n := raw.(type) {
			case int:
				out[k] = n
			case float64:
				out[k] = int(n)
			}
		}
	}
	return out
}
