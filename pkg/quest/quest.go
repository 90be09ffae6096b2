package quest

import "fmt"

// ImpactLevel is the qualitative weight of a recorded player choice.
// Critical choices steer ending selection when a quest completes.
type ImpactLevel string

const (
	ImpactMinor    ImpactLevel = "minor"
	ImpactModerate ImpactLevel = "moderate"
	ImpactMajor    ImpactLevel = "major"
	ImpactCritical ImpactLevel = "critical"
)

// Act is a coarse phase of a quest, derived purely from the turn number.
type Act string

const (
	ActSetup     Act = "setup"
	ActPursuit   Act = "pursuit"
	ActClimax    Act = "climax"
	ActAftermath Act = "aftermath"
)

// ActForTurn derives the act for a turn. Thresholds scale with the quest
// length: setup ends at 3/8 of total turns, pursuit at 3/4, climax at the
// final turn. For a 40-turn quest that is 15 / 30 / 40.
func ActForTurn(turn, totalTurns int) Act {
	if totalTurns <= 0 {
		return ActSetup
	}
	switch {
	case turn <= totalTurns*3/8:
		return ActSetup
	case turn <= totalTurns*3/4:
		return ActPursuit
	case turn <= totalTurns:
		return ActClimax
	default:
		return ActAftermath
	}
}

// Milestone is an author-defined narrative beat fixed to a turn number.
// The choice offered at a milestone is recorded with the impact level
// mapped to the chosen index.
type Milestone struct {
	TurnNumber         int                 `json:"turn_number"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	ChoiceTexts        []string            `json:"choice_texts,omitempty"`
	ChoiceImpacts      map[int]ImpactLevel `json:"choice_impacts,omitempty"`
	TriggersCombat     bool                `json:"triggers_combat,omitempty"`
	RevealsInformation bool                `json:"reveals_information,omitempty"`
	NarrativeWeight    int                 `json:"narrative_weight,omitempty"` // 1..5
}

// Impact returns the impact level for a choice index,
// defaulting to ImpactMinor when the index is unmapped.
func (m *Milestone) Impact(choiceIndex int) ImpactLevel {
	if impact, ok := m.ChoiceImpacts[choiceIndex]; ok {
		return impact
	}
	return ImpactMinor
}

// Definition is an immutable quest template. It is loaded once per run
// and never mutated; all per-player state lives in Progression.
type Definition struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Milestones      []Milestone `json:"milestones"`
	TotalTurns      int         `json:"total_turns"`
	PossibleEndings []string    `json:"possible_endings"`
	OpeningPrompt   string      `json:"opening_prompt,omitempty"`
}

// MilestoneAt returns the milestone fixed to the given turn, or nil.
func (d *Definition) MilestoneAt(turn int) *Milestone {
	for i := range d.Milestones {
		if d.Milestones[i].TurnNumber == turn {
			return &d.Milestones[i]
		}
	}
	return nil
}

// Validate checks the structural invariants of a quest definition.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("quest id is required")
	}
	if d.TotalTurns < 1 {
		return fmt.Errorf("quest %s: total_turns must be at least 1", d.ID)
	}
	if len(d.PossibleEndings) == 0 {
		return fmt.Errorf("quest %s: at least one possible ending is required", d.ID)
	}
	for _, m := range d.Milestones {
		if m.TurnNumber < 1 || m.TurnNumber > d.TotalTurns {
			return fmt.Errorf("quest %s: milestone %q at turn %d is outside 1..%d",
				d.ID, m.Title, m.TurnNumber, d.TotalTurns)
		}
	}
	return nil
}
