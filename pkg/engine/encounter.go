package engine

import (
	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/player"
	"github.com/jwebster45206/saga-engine/pkg/quest"
)

// EncounterFactory builds the opposition for a triggered encounter.
// Implementations are expected to be deterministic for a given player and
// act so a replayed turn produces the same fight.
type EncounterFactory func(p *player.Player, act quest.Act) ([]combat.Enemy, []combat.Feature)

// ActScaledEncounter is the default factory. Opposition hardens as the
// quest moves through its acts; the climax adds a leader smart enough to
// negotiate with and fight tactically.
func ActScaledEncounter(p *player.Player, act quest.Act) ([]combat.Enemy, []combat.Feature) {
	uses := 2
	features := []combat.Feature{
		{Name: "overturned cart", DamagePotential: 4, ProvidesCover: true, UsesRemaining: &uses},
	}

	switch act {
	case quest.ActSetup:
		return []combat.Enemy{
			{Name: "footpad", Health: 12, MaxHealth: 12, AttackPower: 4, Defense: 9, Intelligence: 4, Morale: 40},
			{Name: "footpad", Health: 12, MaxHealth: 12, AttackPower: 4, Defense: 9, Intelligence: 4, Morale: 40},
		}, features
	case quest.ActPursuit:
		return []combat.Enemy{
			{Name: "hired blade", Health: 18, MaxHealth: 18, AttackPower: 6, Defense: 11, Intelligence: 6, Morale: 55},
			{Name: "hired blade", Health: 18, MaxHealth: 18, AttackPower: 6, Defense: 11, Intelligence: 6, Morale: 55},
			{Name: "tracker", Health: 14, MaxHealth: 14, AttackPower: 5, Defense: 10, Intelligence: 7, Morale: 50},
		}, features
	default:
		return []combat.Enemy{
			{Name: "veteran enforcer", Health: 26, MaxHealth: 26, AttackPower: 8, Defense: 13, Intelligence: 6, Morale: 70},
			{Name: "captain", Health: 32, MaxHealth: 32, AttackPower: 9, Defense: 14, Intelligence: 9, Morale: 85},
		}, features
	}
}
