package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDice returns rolls from a fixed script, then 1s.
type scriptedDice struct {
	rolls []int
	i     int
}

func (d *scriptedDice) Roll(sides int) int {
	if d.i < len(d.rolls) {
		r := d.rolls[d.i]
		d.i++
		if r > sides {
			return sides
		}
		return r
	}
	return 1
}

func dice(rolls ...int) *scriptedDice {
	return &scriptedDice{rolls: rolls}
}

func intPtr(n int) *int { return &n }

func testEnemies() []Enemy {
	return []Enemy{
		{Name: "bandit", Health: 20, MaxHealth: 20, AttackPower: 6, Defense: 10, Intelligence: 5, Morale: 60},
		{Name: "bandit captain", Health: 30, MaxHealth: 30, AttackPower: 8, Defense: 12, Intelligence: 9, Morale: 80},
	}
}

func testFeatures() []Feature {
	return []Feature{
		{Name: "brazier", DamagePotential: 8, UsesRemaining: intPtr(1)},
		{Name: "ledge", DamagePotential: 4, ProvidesCover: true},
	}
}

func testStats() map[string]int {
	return map[string]int{"strength": 14, "dexterity": 12, "charisma": 10, "intelligence": 10}
}

func TestCreateEncounter_ResourcesAtMax(t *testing.T) {
	enc := CreateEncounter(testEnemies(), testFeatures(), 80, 100)

	assert.NotEmpty(t, enc.ID)
	assert.Equal(t, 1, enc.TurnNumber)
	assert.Equal(t, 80, enc.PlayerHealth)
	assert.Equal(t, 100, enc.PlayerMaxHealth)
	assert.Equal(t, MaxActionPoints, enc.ActionPoints)
	assert.Equal(t, DefaultMaxStamina, enc.Stamina)
}

func TestAvailableActions(t *testing.T) {
	enc := CreateEncounter(testEnemies(), testFeatures(), 80, 100)
	actions := enc.AvailableActions()
	assert.Contains(t, actions, ActionNegotiate) // captain has intelligence 9
	assert.Contains(t, actions, ActionUseEnvironment)

	// Dim enemies, no features: neither option is offered.
	enc = CreateEncounter([]Enemy{{Name: "rat", Health: 2, MaxHealth: 2, Intelligence: 1, Morale: 50}}, nil, 80, 100)
	actions = enc.AvailableActions()
	assert.NotContains(t, actions, ActionNegotiate)
	assert.NotContains(t, actions, ActionUseEnvironment)
	assert.Contains(t, actions, ActionAttack)
}

func TestAttack_HitAndVictory(t *testing.T) {
	r := NewResolver(dice(15, 3)) // hit roll 15, damage die 3
	enc := CreateEncounter([]Enemy{{Name: "wisp", Health: 1, MaxHealth: 1, Defense: 1, Morale: 50}}, nil, 80, 100)

	text, ok, _ := r.ExecuteAction(enc, ActionAttack, 0, -1, testStats())
	assert.True(t, ok)
	assert.Contains(t, text, "falls")
	assert.Equal(t, 0, enc.Enemies[0].Health)

	over, outcome := enc.IsOver()
	assert.True(t, over)
	assert.Equal(t, OutcomeVictory, outcome)
}

func TestAttack_CriticalDoublesDamage(t *testing.T) {
	r := NewResolver(dice(19, 4)) // crit roll, damage die 4
	enc := CreateEncounter(testEnemies(), nil, 80, 100)

	text, ok, _ := r.ExecuteAction(enc, ActionAttack, 0, -1, testStats())
	assert.True(t, ok)
	assert.Contains(t, text, "devastating")
	// (4 + strength mod 2) * 2 = 12
	assert.Equal(t, 8, enc.Enemies[0].Health)
}

func TestAttack_MissStillSpends(t *testing.T) {
	r := NewResolver(dice(2)) // 2 + mod 2 < defense 10
	enc := CreateEncounter(testEnemies(), nil, 80, 100)

	_, ok, _ := r.ExecuteAction(enc, ActionAttack, 0, -1, testStats())
	assert.False(t, ok)
	assert.Equal(t, MaxActionPoints-1, enc.ActionPoints)
	assert.Equal(t, DefaultMaxStamina-2, enc.Stamina)
	assert.Equal(t, 20, enc.Enemies[0].Health)
}

func TestAttack_NoActionPointsLeavesPoolsUntouched(t *testing.T) {
	r := NewResolver(dice(20, 6))
	enc := CreateEncounter(testEnemies(), nil, 80, 100)
	enc.ActionPoints = 0
	staminaBefore := enc.Stamina

	_, ok, _ := r.ExecuteAction(enc, ActionAttack, 0, -1, testStats())
	assert.False(t, ok)
	assert.Equal(t, 0, enc.ActionPoints)
	assert.Equal(t, staminaBefore, enc.Stamina)
}

func TestAttack_InvalidTargetCostsNothing(t *testing.T) {
	r := NewResolver(dice(20))
	enc := CreateEncounter(testEnemies(), nil, 80, 100)

	_, ok, attempted := r.ExecuteAction(enc, ActionAttack, 7, -1, testStats())
	assert.False(t, ok)
	assert.False(t, attempted)
	assert.Equal(t, MaxActionPoints, enc.ActionPoints)
	assert.Equal(t, DefaultMaxStamina, enc.Stamina)
}

func TestExecuteAction_AttemptedDistinguishesCallerErrors(t *testing.T) {
	r := NewResolver(dice(2)) // any attempted swing misses defense 10
	enc := CreateEncounter(testEnemies(), nil, 80, 100)

	// A miss is a failed attempt: costs are spent.
	_, ok, attempted := r.ExecuteAction(enc, ActionAttack, 0, -1, testStats())
	assert.False(t, ok)
	assert.True(t, attempted)

	// Bad input is not an attempt: unknown action, bad index, empty pools.
	_, ok, attempted = r.ExecuteAction(enc, Action("juggle"), 0, -1, testStats())
	assert.False(t, ok)
	assert.False(t, attempted)

	enc.ActionPoints = 0
	_, ok, attempted = r.ExecuteAction(enc, ActionDefend, -1, -1, testStats())
	assert.False(t, ok)
	assert.False(t, attempted)
}

func TestUseEnvironment_ConsumesUse(t *testing.T) {
	r := NewResolver(dice(5))
	enc := CreateEncounter(testEnemies(), testFeatures(), 80, 100)

	_, ok, _ := r.ExecuteAction(enc, ActionUseEnvironment, 0, 0, testStats())
	assert.True(t, ok)
	assert.Equal(t, 15, enc.Enemies[0].Health)
	require.NotNil(t, enc.Features[0].UsesRemaining)
	assert.Equal(t, 0, *enc.Features[0].UsesRemaining)

	// Exhausted feature fails without spending.
	ap := enc.ActionPoints
	_, ok, _ = r.ExecuteAction(enc, ActionUseEnvironment, 0, 0, testStats())
	assert.False(t, ok)
	assert.Equal(t, ap, enc.ActionPoints)
}

func TestNegotiate_SuccessZeroesMorale(t *testing.T) {
	r := NewResolver(dice(20))
	enc := CreateEncounter(testEnemies(), nil, 80, 100)

	_, ok, _ := r.ExecuteAction(enc, ActionNegotiate, -1, -1, testStats())
	assert.True(t, ok)
	for _, e := range enc.Enemies {
		assert.Equal(t, 0, e.Morale)
	}

	over, outcome := enc.IsOver()
	assert.True(t, over)
	assert.Equal(t, OutcomeNegotiated, outcome)
}

func TestNegotiate_FailureSpendsOnly(t *testing.T) {
	r := NewResolver(dice(1))
	enc := CreateEncounter(testEnemies(), nil, 80, 100)

	_, ok, _ := r.ExecuteAction(enc, ActionNegotiate, -1, -1, testStats())
	assert.False(t, ok)
	assert.Equal(t, MaxActionPoints-1, enc.ActionPoints)
	assert.Equal(t, 60, enc.Enemies[0].Morale)
	assert.False(t, enc.Negotiated)
}

func TestDefend_RestoresStamina(t *testing.T) {
	r := NewResolver(dice())
	enc := CreateEncounter(testEnemies(), nil, 80, 100)
	enc.Stamina = 2

	_, ok, _ := r.ExecuteAction(enc, ActionDefend, -1, -1, testStats())
	assert.True(t, ok)
	assert.Equal(t, 6, enc.Stamina)
	assert.Equal(t, 80, enc.PlayerHealth) // no damage taken or dealt
}

func TestFlee_SuccessSetsSentinel(t *testing.T) {
	r := NewResolver(dice(15))
	enc := CreateEncounter(testEnemies(), nil, 80, 100)

	_, ok, _ := r.ExecuteAction(enc, ActionFlee, -1, -1, testStats())
	assert.True(t, ok)
	assert.True(t, enc.PlayerFled)
	assert.Equal(t, 80, enc.PlayerHealth) // sentinel, not a health change

	over, outcome := enc.IsOver()
	assert.True(t, over)
	assert.Equal(t, OutcomeEscape, outcome)
}

func TestFlee_FailureOnlySpends(t *testing.T) {
	r := NewResolver(dice(3))
	enc := CreateEncounter(testEnemies(), nil, 80, 100)

	_, ok, _ := r.ExecuteAction(enc, ActionFlee, -1, -1, testStats())
	assert.False(t, ok)
	assert.False(t, enc.PlayerFled)
	assert.Equal(t, MaxActionPoints-1, enc.ActionPoints)
}

func TestStealth_PenalizesLivingEnemies(t *testing.T) {
	r := NewResolver(dice(20))
	enemies := testEnemies()
	enemies[0].Health = 0
	enc := CreateEncounter(enemies, nil, 80, 100)

	_, ok, _ := r.ExecuteAction(enc, ActionStealth, -1, -1, testStats())
	assert.True(t, ok)
	assert.Equal(t, 0, enc.Enemies[0].AttackPenalty) // dead enemies unaffected
	assert.Equal(t, 2, enc.Enemies[1].AttackPenalty)
}

func TestEnemyRound_BasicAttacksClampPlayerHealth(t *testing.T) {
	r := NewResolver(dice(6, 8))
	enc := CreateEncounter(testEnemies(), nil, 10, 100)

	r.ProcessEnemyRound(enc)
	assert.Equal(t, 0, enc.PlayerHealth) // 6 + 8 > 10, clamped

	over, outcome := enc.IsOver()
	assert.True(t, over)
	assert.Equal(t, OutcomeDefeat, outcome)
}

func TestEnemyRound_LowMoraleEnemyFlees(t *testing.T) {
	r := NewResolver(dice(4))
	enemies := testEnemies()
	enemies[0].Morale = 5
	enc := CreateEncounter(enemies, nil, 80, 100)

	text := r.ProcessEnemyRound(enc)
	assert.Contains(t, text, "breaks and runs")
	assert.True(t, enc.Enemies[0].Fled)
	assert.Equal(t, 0, enc.Enemies[0].Morale)
	// The captain still attacked.
	assert.Equal(t, 76, enc.PlayerHealth)
}

func TestEnemyRound_WoundedEnemyFlees(t *testing.T) {
	r := NewResolver(dice())
	enemies := []Enemy{{Name: "wolf", Health: 2, MaxHealth: 20, AttackPower: 4, Morale: 90}}
	enc := CreateEncounter(enemies, nil, 80, 100)

	r.ProcessEnemyRound(enc)
	assert.True(t, enc.Enemies[0].Fled)
	assert.Equal(t, 80, enc.PlayerHealth)
}

func TestEnemyRound_SmartEnemyUsesEnvironment(t *testing.T) {
	// First roll 1 passes the 1-in-4 tactical check, second is feature damage.
	r := NewResolver(dice(1, 6))
	enemies := []Enemy{{Name: "warlock", Health: 20, MaxHealth: 20, AttackPower: 3, Intelligence: 9, Morale: 80}}
	enc := CreateEncounter(enemies, testFeatures(), 80, 100)

	text := r.ProcessEnemyRound(enc)
	assert.Contains(t, text, "brazier")
	assert.Equal(t, 74, enc.PlayerHealth)
	assert.Equal(t, 0, *enc.Features[0].UsesRemaining)
}

func TestEnemyRound_StealthPenaltyReducesDamage(t *testing.T) {
	r := NewResolver(dice(20)) // capped at effective attack sides
	enemies := []Enemy{{Name: "brute", Health: 20, MaxHealth: 20, AttackPower: 6, AttackPenalty: 4, Morale: 80}}
	enc := CreateEncounter(enemies, nil, 80, 100)

	r.ProcessEnemyRound(enc)
	// Effective attack 6-4=2, so at most 2 damage.
	assert.GreaterOrEqual(t, enc.PlayerHealth, 78)
}

func TestEnemyRound_RefreshesResources(t *testing.T) {
	r := NewResolver(dice(1))
	enc := CreateEncounter(testEnemies(), nil, 80, 100)
	enc.ActionPoints = 0
	enc.Stamina = 3
	turn := enc.TurnNumber

	r.ProcessEnemyRound(enc)
	assert.Equal(t, MaxActionPoints, enc.ActionPoints)
	assert.Equal(t, 7, enc.Stamina) // partial regen, not full
	assert.Equal(t, turn+1, enc.TurnNumber)
}

func TestIsOver_Running(t *testing.T) {
	enc := CreateEncounter(testEnemies(), nil, 80, 100)
	over, outcome := enc.IsOver()
	assert.False(t, over)
	assert.Empty(t, outcome)
}

func TestIsOver_MoraleCollapseWithoutNegotiationIsEscape(t *testing.T) {
	enemies := testEnemies()
	for i := range enemies {
		enemies[i].Morale = 3
	}
	enc := CreateEncounter(enemies, nil, 80, 100)

	over, outcome := enc.IsOver()
	assert.True(t, over)
	assert.Equal(t, OutcomeEscape, outcome)
}

func TestClone_IndependentFeatureUses(t *testing.T) {
	enc := CreateEncounter(testEnemies(), testFeatures(), 80, 100)
	cp := enc.Clone()

	*cp.Features[0].UsesRemaining = 0
	cp.Enemies[0].Health = 1

	assert.Equal(t, 1, *enc.Features[0].UsesRemaining)
	assert.Equal(t, 20, enc.Enemies[0].Health)
}
