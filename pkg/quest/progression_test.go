package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefinition() *Definition {
	return &Definition{
		ID:         "emberfall",
		Title:      "The Emberfall Road",
		TotalTurns: 40,
		Milestones: []Milestone{
			{
				TurnNumber:  1,
				Title:       "The Burned Gate",
				ChoiceTexts: []string{"Slip through the breach", "Bribe the watch"},
				ChoiceImpacts: map[int]ImpactLevel{
					0: ImpactModerate,
					1: ImpactCritical,
				},
			},
			{
				TurnNumber:         5,
				Title:              "The Courier's Ledger",
				ChoiceTexts:        []string{"Read it", "Burn it"},
				ChoiceImpacts:      map[int]ImpactLevel{1: ImpactCritical},
				RevealsInformation: true,
			},
			{
				TurnNumber:     16,
				Title:          "Ambush at the Ford",
				TriggersCombat: true,
			},
		},
		PossibleEndings: []string{"exile", "uneasy peace", "coronation"},
	}
}

func TestActForTurn(t *testing.T) {
	cases := []struct {
		turn int
		want Act
	}{
		{1, ActSetup},
		{15, ActSetup},
		{16, ActPursuit},
		{30, ActPursuit},
		{31, ActClimax},
		{40, ActClimax},
		{41, ActAftermath},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ActForTurn(tc.turn, 40), "turn %d", tc.turn)
	}
}

func TestActForTurn_ScalesWithTotalTurns(t *testing.T) {
	// 16-turn quest: setup ends at 6, pursuit at 12.
	assert.Equal(t, ActSetup, ActForTurn(6, 16))
	assert.Equal(t, ActPursuit, ActForTurn(7, 16))
	assert.Equal(t, ActPursuit, ActForTurn(12, 16))
	assert.Equal(t, ActClimax, ActForTurn(13, 16))
	assert.Equal(t, ActAftermath, ActForTurn(17, 16))
}

func TestStart_ResetsProgression(t *testing.T) {
	def := testDefinition()
	p := NewProgression(def.ID)
	p.ChoicesMade = []ChoiceRecord{{Turn: 3, ChoiceIndex: 0, Impact: ImpactMinor}}

	opening := p.Start(def)

	require.NotNil(t, opening)
	assert.Equal(t, "The Burned Gate", opening.Title)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, 1, p.CurrentTurn)
	assert.Equal(t, ActSetup, p.CurrentAct)
	assert.Empty(t, p.ChoicesMade)
	assert.Empty(t, p.MilestonesCompleted)
}

func TestProcessTurn_MonotonicTurns(t *testing.T) {
	def := testDefinition()
	p := NewProgression(def.ID)
	p.Start(def)

	prev := p.CurrentTurn
	for i := 0; i < 20; i++ {
		outcome, err := p.ProcessTurn(def, 0, DefaultCombatInterval)
		require.NoError(t, err)
		assert.Equal(t, prev+1, outcome.Turn)
		assert.Equal(t, prev+1, p.CurrentTurn)
		prev = p.CurrentTurn
	}
}

func TestProcessTurn_RecordsMilestoneChoice(t *testing.T) {
	def := testDefinition()
	p := NewProgression(def.ID)
	p.Start(def)

	outcome, err := p.ProcessTurn(def, 1, DefaultCombatInterval)
	require.NoError(t, err)

	require.NotNil(t, outcome.RecordedChoice)
	assert.Equal(t, 1, outcome.RecordedChoice.Turn)
	assert.Equal(t, ImpactCritical, outcome.RecordedChoice.Impact)
	assert.True(t, p.MilestonesCompleted[1])
	require.Len(t, p.ChoicesMade, 1)
}

func TestProcessTurn_UnmappedChoiceDefaultsToMinor(t *testing.T) {
	def := testDefinition()
	p := NewProgression(def.ID)
	p.Start(def)

	outcome, err := p.ProcessTurn(def, 7, DefaultCombatInterval)
	require.NoError(t, err)
	require.NotNil(t, outcome.RecordedChoice)
	assert.Equal(t, ImpactMinor, outcome.RecordedChoice.Impact)
}

func TestProcessTurn_RevealsInformation(t *testing.T) {
	def := testDefinition()
	p := NewProgression(def.ID)
	p.Start(def)
	p.CurrentTurn = 5

	_, err := p.ProcessTurn(def, 0, DefaultCombatInterval)
	require.NoError(t, err)
	assert.True(t, p.InformationRevealed["The Courier's Ledger"])
}

func TestProcessTurn_NotActive(t *testing.T) {
	def := testDefinition()
	p := NewProgression(def.ID)

	_, err := p.ProcessTurn(def, 0, DefaultCombatInterval)
	assert.ErrorIs(t, err, ErrNotActive)

	p.Start(def)
	p.Abandon()
	_, err = p.ProcessTurn(def, 0, DefaultCombatInterval)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestShouldTriggerCombat(t *testing.T) {
	assert.False(t, ShouldTriggerCombat(9, 10))
	assert.True(t, ShouldTriggerCombat(10, 10))
	assert.True(t, ShouldTriggerCombat(20, 10))
	assert.False(t, ShouldTriggerCombat(21, 10))
	assert.False(t, ShouldTriggerCombat(10, 0))
}

func TestProcessTurn_MilestoneTriggersCombat(t *testing.T) {
	def := testDefinition()
	p := NewProgression(def.ID)
	p.Start(def)
	p.CurrentTurn = 15

	outcome, err := p.ProcessTurn(def, 0, DefaultCombatInterval)
	require.NoError(t, err)
	require.NotNil(t, outcome.Milestone)
	assert.Equal(t, "Ambush at the Ford", outcome.Milestone.Title)
	assert.True(t, outcome.CombatTriggered)
}

func TestProcessTurn_CompletesAtTotalTurns(t *testing.T) {
	def := testDefinition()
	p := NewProgression(def.ID)
	p.Start(def)
	p.CurrentTurn = 39

	outcome, err := p.ProcessTurn(def, 0, DefaultCombatInterval)
	require.NoError(t, err)
	assert.True(t, outcome.Completed)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, "exile", outcome.Ending)

	_, err = p.ProcessTurn(def, 0, DefaultCombatInterval)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestEndingIndex_ClampsCriticalCount(t *testing.T) {
	def := testDefinition()
	p := NewProgression(def.ID)
	p.Start(def)
	for i := 0; i < 5; i++ {
		p.ChoicesMade = append(p.ChoicesMade, ChoiceRecord{Turn: i + 1, Impact: ImpactCritical})
	}

	// Five critical choices against three endings selects the last one.
	assert.Equal(t, 2, p.EndingIndex(def))

	p.ChoicesMade = p.ChoicesMade[:1]
	assert.Equal(t, 1, p.EndingIndex(def))

	p.ChoicesMade = nil
	assert.Equal(t, 0, p.EndingIndex(def))
}

func TestDefinitionValidate(t *testing.T) {
	def := testDefinition()
	assert.NoError(t, def.Validate())

	bad := *def
	bad.PossibleEndings = nil
	assert.Error(t, bad.Validate())

	bad = *def
	bad.Milestones = []Milestone{{TurnNumber: 99, Title: "out of range"}}
	assert.Error(t, bad.Validate())
}
