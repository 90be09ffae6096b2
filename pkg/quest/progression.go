package quest

import (
	"errors"
	"maps"
	"slices"
)

// Status is the lifecycle state of a quest progression.
// Only an Active progression supports turn processing.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusAbandoned  Status = "abandoned"
)

// ErrNotActive is returned when a turn is processed against a progression
// that is not in the Active state. It is a caller error, not fatal.
var ErrNotActive = errors.New("no active quest")

// DefaultCombatInterval triggers an encounter every 10th turn.
// The source rule ("turn%9==0 or turn%10==0") double-fired on common
// multiples, so a single interval is used instead.
const DefaultCombatInterval = 10

// ChoiceRecord is one entry in the append-only choice log.
type ChoiceRecord struct {
	Turn        int         `json:"turn"`
	ChoiceIndex int         `json:"choice_index"`
	Impact      ImpactLevel `json:"impact"`
}

// Progression is the per-player state of one quest. The current turn only
// increases, and completed milestones are always a subset of the
// definition's milestone turns.
type Progression struct {
	QuestID             string          `json:"quest_id"`
	Status              Status          `json:"status"`
	CurrentTurn         int             `json:"current_turn"`
	CurrentAct          Act             `json:"current_act"`
	MilestonesCompleted map[int]bool    `json:"milestones_completed,omitempty"`
	ChoicesMade         []ChoiceRecord  `json:"choices_made,omitempty"`
	InformationRevealed map[string]bool `json:"information_revealed,omitempty"`
}

// NewProgression creates a NotStarted progression for a quest.
func NewProgression(questID string) *Progression {
	return &Progression{
		QuestID:             questID,
		Status:              StatusNotStarted,
		MilestonesCompleted: make(map[int]bool),
		InformationRevealed: make(map[string]bool),
	}
}

// TurnOutcome is the quest state machine's report for one processed turn.
type TurnOutcome struct {
	Turn            int
	Act             Act
	Milestone       *Milestone // beat now at the current turn, nil if none
	RecordedChoice  *ChoiceRecord
	CombatTriggered bool
	Completed       bool
	Ending          string
}

// ShouldTriggerCombat reports whether a combat encounter triggers on the
// given turn. Pure so tests can assert exact trigger turns.
func ShouldTriggerCombat(turn, interval int) bool {
	if interval <= 0 {
		return false
	}
	return turn > 0 && turn%interval == 0
}

// Start resets the progression to turn 1 and transitions it to Active.
// Returns the opening milestone if the definition fixes one to turn 1.
func (p *Progression) Start(def *Definition) *Milestone {
	p.QuestID = def.ID
	p.Status = StatusActive
	p.CurrentTurn = 1
	p.CurrentAct = ActForTurn(1, def.TotalTurns)
	p.MilestonesCompleted = make(map[int]bool)
	p.ChoicesMade = nil
	p.InformationRevealed = make(map[string]bool)
	return def.MilestoneAt(1)
}

// ProcessTurn advances the quest by exactly one turn:
// the player's choice is recorded against the milestone at the current
// turn (if any), the turn counter advances, the act is rederived, the
// combat predicate is evaluated, and the milestone now at the new turn is
// surfaced. Completion and deterministic ending selection happen when the
// new turn reaches the quest's total.
func (p *Progression) ProcessTurn(def *Definition, choiceIndex int, combatInterval int) (*TurnOutcome, error) {
	if p.Status != StatusActive {
		return nil, ErrNotActive
	}

	outcome := &TurnOutcome{}

	if m := def.MilestoneAt(p.CurrentTurn); m != nil {
		rec := ChoiceRecord{
			Turn:        p.CurrentTurn,
			ChoiceIndex: choiceIndex,
			Impact:      m.Impact(choiceIndex),
		}
		p.ChoicesMade = append(p.ChoicesMade, rec)
		p.MilestonesCompleted[m.TurnNumber] = true
		if m.RevealsInformation {
			p.InformationRevealed[m.Title] = true
		}
		outcome.RecordedChoice = &rec
	}

	p.CurrentTurn++
	p.CurrentAct = ActForTurn(p.CurrentTurn, def.TotalTurns)

	outcome.Turn = p.CurrentTurn
	outcome.Act = p.CurrentAct
	outcome.Milestone = def.MilestoneAt(p.CurrentTurn)
	outcome.CombatTriggered = ShouldTriggerCombat(p.CurrentTurn, combatInterval) ||
		(outcome.Milestone != nil && outcome.Milestone.TriggersCombat)

	if p.CurrentTurn >= def.TotalTurns {
		p.Status = StatusCompleted
		outcome.Completed = true
		outcome.Ending = def.PossibleEndings[p.EndingIndex(def)]
	}

	return outcome, nil
}

// EndingIndex selects the ending deterministically: the count of critical
// choices in the log, clamped to the last available ending.
func (p *Progression) EndingIndex(def *Definition) int {
	critical := 0
	for _, c := range p.ChoicesMade {
		if c.Impact == ImpactCritical {
			critical++
		}
	}
	if max := len(def.PossibleEndings) - 1; critical > max {
		return max
	}
	return critical
}

// Fail transitions an active progression to Failed.
func (p *Progression) Fail() {
	if p.Status == StatusActive {
		p.Status = StatusFailed
	}
}

// Abandon transitions an active progression to Abandoned.
func (p *Progression) Abandon() {
	if p.Status == StatusActive {
		p.Status = StatusAbandoned
	}
}

// Clone returns a deep copy for buffered turn processing.
func (p *Progression) Clone() *Progression {
	if p == nil {
		return nil
	}
	cp := *p
	cp.MilestonesCompleted = maps.Clone(p.MilestonesCompleted)
	cp.ChoicesMade = slices.Clone(p.ChoicesMade)
	cp.InformationRevealed = maps.Clone(p.InformationRevealed)
	return &cp
}
