package engine

import (
	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/consequence"
)

// TurnRequest is one incoming player action. Outside combat the choice
// fields drive the quest state machine; during an active encounter the
// combat fields select the action and its targets.
type TurnRequest struct {
	PlayerID string `json:"player_id"`
	QuestID  string `json:"quest_id"`

	ChoiceText  string `json:"choice_text,omitempty"`
	ChoiceIndex int    `json:"choice_index"`

	Action       combat.Action `json:"action,omitempty"`
	TargetIndex  int           `json:"target_index"`
	FeatureIndex int           `json:"feature_index"`
}

// TurnResult is the stable shape handed to any presentation layer after a
// processed turn.
type TurnResult struct {
	NarrativeText string   `json:"narrative_text"`
	Choices       []string `json:"choices,omitempty"`
	TurnNumber    int      `json:"turn_number"`
	CurrentAct    string   `json:"current_act,omitempty"`

	QuestCompleted bool   `json:"quest_completed,omitempty"`
	Ending         string `json:"ending,omitempty"`

	CombatInitiated bool              `json:"combat_initiated,omitempty"`
	CombatState     *combat.Encounter `json:"combat_state,omitempty"`
	CombatOutcome   combat.Outcome    `json:"combat_outcome,omitempty"`

	// ActionAttempted is false when a combat action never happened
	// (bad target, unaffordable cost): the turn did not advance and the
	// player should pick again. ActionSucceeded reports the attempt's
	// outcome.
	ActionAttempted bool `json:"action_attempted,omitempty"`
	ActionSucceeded bool `json:"action_succeeded,omitempty"`

	Consequences []consequence.Executed `json:"consequences,omitempty"`
}
