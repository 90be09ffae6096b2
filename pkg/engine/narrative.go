package engine

import (
	"fmt"
	"maps"

	"github.com/jwebster45206/saga-engine/pkg/player"
	"github.com/jwebster45206/saga-engine/pkg/quest"
)

// defaultChoices is offered when no milestone fixes the choice set.
var defaultChoices = []string{
	"Press on.",
	"Hold back and take stock of your surroundings.",
	"Change course.",
}

// promptContext assembles the structured context handed to the narrator.
func promptContext(p *player.Player, prog *quest.Progression, lastAction string) map[string]any {
	return map[string]any{
		"location":    p.CurrentLocation,
		"turn_number": prog.CurrentTurn,
		"act":         string(prog.CurrentAct),
		"stats":       maps.Clone(p.Stats),
		"health":      p.Health,
		"last_action": lastAction,
	}
}

// fallbackNarrative builds the deterministic line substituted whenever the
// narrator errs, times out, or returns nothing.
func fallbackNarrative(p *player.Player, prog *quest.Progression) string {
	where := p.CurrentLocation
	if where == "" {
		where = "unfamiliar ground"
	}
	return fmt.Sprintf("Turn %d finds you at %s as the %s wears on. The road ahead is yours to choose.",
		prog.CurrentTurn, where, actPhrase(prog.CurrentAct))
}

func actPhrase(act quest.Act) string {
	switch act {
	case quest.ActSetup:
		return "first act"
	case quest.ActPursuit:
		return "pursuit"
	case quest.ActClimax:
		return "reckoning"
	case quest.ActAftermath:
		return "aftermath"
	default:
		return "journey"
	}
}
