package consequence

import (
	"strings"
	"time"

	"github.com/jwebster45206/saga-engine/pkg/player"
)

// TriggerType selects the predicate used to decide when a consequence fires.
type TriggerType string

const (
	TriggerTurnBased     TriggerType = "turn_based"
	TriggerLocationBased TriggerType = "location_based"
	TriggerQuestBased    TriggerType = "quest_based"
	TriggerStatBased     TriggerType = "stat_based"
	TriggerTimeBased     TriggerType = "time_based"
	TriggerChoiceBased   TriggerType = "choice_based"
)

// Type selects the handler that executes a fired consequence.
type Type string

const (
	TypeNarrative      Type = "narrative"
	TypeStatChange     Type = "stat_change"
	TypeInventory      Type = "inventory"
	TypeQuestUnlock    Type = "quest_unlock"
	TypeLocationChange Type = "location_change"
	TypeNpcInteraction Type = "npc_interaction"
	TypeWorldState     Type = "world_state"
)

// QuestOutcome is the quest lifecycle event a QuestBased trigger watches for.
type QuestOutcome string

const (
	OutcomeCompleted QuestOutcome = "completed"
	OutcomeStarted   QuestOutcome = "started"
	OutcomeFailed    QuestOutcome = "failed"
)

// Trigger is the type-specific condition payload. Only the fields for the
// consequence's TriggerType are read.
type Trigger struct {
	// TurnBased: fires once the player's turn counter reaches Turn.
	Turn int `json:"turn,omitempty"`

	// LocationBased: fires while the player is at Location.
	Location string `json:"location,omitempty"`

	// QuestBased: fires when QuestID is in the player's set for Outcome.
	QuestID string       `json:"quest_id,omitempty"`
	Outcome QuestOutcome `json:"outcome,omitempty"`

	// StatBased: fires when the named stat compares true against Threshold.
	Stat      string `json:"stat,omitempty"`
	Threshold int    `json:"threshold,omitempty"`
	Operator  string `json:"operator,omitempty"` // ">=", "<=", "=="

	// TimeBased: fires once the wall clock reaches After.
	After time.Time `json:"after,omitempty"`

	// ChoiceBased: fires when the last choice text contains the substring,
	// case-insensitive.
	ChoiceContains string `json:"choice_contains,omitempty"`
}

// Context is the ambient state supplied to CheckAndExecute alongside the
// player snapshot. LastChoice must be set for ChoiceBased triggers to hold.
type Context struct {
	LastChoice string
	Now        time.Time
}

// Consequence is a deferred effect attached to a trigger predicate.
// It is created by Schedule, mutated only by the scheduler, and pruned
// once its execution count reaches MaxExecutions.
type Consequence struct {
	ID          string         `json:"id"`
	PlayerID    string         `json:"player_id"`
	TriggerType TriggerType    `json:"trigger_type"`
	Trigger     Trigger        `json:"trigger"`
	Type        Type           `json:"type"`
	Payload     map[string]any `json:"payload,omitempty"`
	Priority    int            `json:"priority"`

	ExecutionCount int `json:"execution_count"`
	MaxExecutions  int `json:"max_executions"`

	// Schedule order for tie-breaking among equal priorities: CreatedAt
	// first, then Seq. Seq alone is not enough because the counter is
	// per-process and restarts from zero.
	Seq       uint64    `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// ScheduledBefore orders two consequences by schedule time, using Seq to
// break same-instant ties within a process.
func ScheduledBefore(a, b *Consequence) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

// Exhausted reports whether the consequence has fired its full quota.
func (c *Consequence) Exhausted() bool {
	return c.ExecutionCount >= c.MaxExecutions
}

// holds evaluates the trigger predicate against a player snapshot and
// ambient context. An unknown trigger type never holds.
func (c *Consequence) holds(p *player.Player, ec Context) bool {
	switch c.TriggerType {
	case TriggerTurnBased:
		return p.TurnNumber >= c.Trigger.Turn
	case TriggerLocationBased:
		return c.Trigger.Location != "" && p.CurrentLocation == c.Trigger.Location
	case TriggerQuestBased:
		switch c.Trigger.Outcome {
		case OutcomeCompleted:
			return p.CompletedQuestIDs[c.Trigger.QuestID]
		case OutcomeStarted:
			return p.ActiveQuestIDs[c.Trigger.QuestID]
		case OutcomeFailed:
			return p.FailedQuestIDs[c.Trigger.QuestID]
		}
		return false
	case TriggerStatBased:
		v := p.Stat(c.Trigger.Stat)
		switch c.Trigger.Operator {
		case ">=":
			return v >= c.Trigger.Threshold
		case "<=":
			return v <= c.Trigger.Threshold
		case "==":
			return v == c.Trigger.Threshold
		}
		return false
	case TriggerTimeBased:
		return !c.Trigger.After.IsZero() && !ec.Now.Before(c.Trigger.After)
	case TriggerChoiceBased:
		if c.Trigger.ChoiceContains == "" || ec.LastChoice == "" {
			return false
		}
		return strings.Contains(
			strings.ToLower(ec.LastChoice),
			strings.ToLower(c.Trigger.ChoiceContains),
		)
	}
	return false
}
