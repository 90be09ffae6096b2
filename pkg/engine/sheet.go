package engine

import (
	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/saga-engine/pkg/player"
)

// combatSheet derives the player's combat health pools through a d20
// actor built from the stat block, so HP bookkeeping and attribute rules
// stay consistent with the rest of the d20 machinery. Falls back to the
// raw pools if the actor cannot be built.
func (e *Engine) combatSheet(p *player.Player) (health, maxHealth int) {
	attrs := make(map[string]int, len(p.Stats))
	for k, v := range p.Stats {
		attrs[k] = v
	}

	ac := 10 + (p.Stat("dexterity")-10)/2
	actor, err := d20.NewActor(p.ID.String()).
		WithHP(p.MaxHealth).
		WithAC(ac).
		WithAttributes(attrs).
		Build()
	if err != nil {
		e.logger.Warn("Failed to build combat sheet, using raw pools", "player_id", p.ID, "error", err)
		return p.Health, p.MaxHealth
	}

	if p.Health != p.MaxHealth && p.Health > 0 {
		if err := actor.SetHP(p.Health); err != nil {
			e.logger.Warn("Failed to set combat sheet HP", "player_id", p.ID, "error", err)
			return p.Health, p.MaxHealth
		}
	}
	return actor.HP(), actor.MaxHP()
}
