package combat

import (
	"slices"

	"github.com/google/uuid"
)

// Outcome is the terminal state of an encounter. Empty means still running.
type Outcome string

const (
	OutcomeVictory    Outcome = "victory"
	OutcomeDefeat     Outcome = "defeat"
	OutcomeEscape     Outcome = "escape"
	OutcomeNegotiated Outcome = "negotiated"
)

const (
	// MaxActionPoints is the per-round action budget, refilled after the
	// enemy round.
	MaxActionPoints = 3

	// DefaultMaxStamina is the stamina pool granted at encounter start.
	DefaultMaxStamina = 10

	// StaminaRegenPerRound is restored after each enemy round. Stamina
	// regenerates partially, unlike action points, so sustained heavy
	// actions still bind.
	StaminaRegenPerRound = 4

	// NegotiateIntelligence is the minimum enemy intelligence for the
	// negotiate action to be offered at all.
	NegotiateIntelligence = 7

	// EscapeMorale: an encounter ends in escape once every living enemy's
	// morale drops below this.
	EscapeMorale = 10
)

// Enemy is one opponent in an encounter. Defeated enemies stay in the
// list with health 0 so the combat history remains intact for narrative.
type Enemy struct {
	Name         string `json:"name"`
	Health       int    `json:"health"`
	MaxHealth    int    `json:"max_health"`
	AttackPower  int    `json:"attack_power"`
	Defense      int    `json:"defense"`
	Intelligence int    `json:"intelligence"`
	Morale       int    `json:"morale"`

	// AttackPenalty accumulates from successful stealth actions and
	// reduces effective attack power on later rounds.
	AttackPenalty int `json:"attack_penalty,omitempty"`

	// Fled marks an enemy that broke and ran; it no longer acts.
	Fled bool `json:"fled,omitempty"`
}

// Alive reports whether the enemy still has health.
func (e *Enemy) Alive() bool {
	return e.Health > 0
}

// TakeDamage reduces enemy health, clamped at 0.
func (e *Enemy) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	e.Health -= n
	if e.Health < 0 {
		e.Health = 0
	}
}

// Feature is an environmental element usable during the encounter.
// A nil UsesRemaining means unlimited uses.
type Feature struct {
	Name            string `json:"name"`
	DamagePotential int    `json:"damage_potential"`
	ProvidesCover   bool   `json:"provides_cover,omitempty"`
	UsesRemaining   *int   `json:"uses_remaining,omitempty"`
}

// Usable reports whether the feature has uses left.
func (f *Feature) Usable() bool {
	return f.UsesRemaining == nil || *f.UsesRemaining > 0
}

// Encounter is one self-contained combat session with its own local turn
// counter, distinct from the quest's turn counter.
type Encounter struct {
	ID              string    `json:"id"`
	TurnNumber      int       `json:"turn_number"`
	PlayerHealth    int       `json:"player_health"`
	PlayerMaxHealth int       `json:"player_max_health"`
	Stamina         int       `json:"stamina"`
	MaxStamina      int       `json:"max_stamina"`
	ActionPoints    int       `json:"action_points"`
	Enemies         []Enemy   `json:"enemies"`
	Features        []Feature `json:"features,omitempty"`
	Log             []string  `json:"log,omitempty"`

	// PlayerFled is the exited-without-defeat sentinel set by a
	// successful flee; the player's real health is untouched.
	PlayerFled bool `json:"player_fled,omitempty"`

	// Negotiated distinguishes a talked-down resolution from a rout when
	// morale collapses.
	Negotiated bool `json:"negotiated,omitempty"`
}

// CreateEncounter builds a fresh encounter. Resources start at full.
func CreateEncounter(enemies []Enemy, features []Feature, playerHealth, playerMaxHealth int) *Encounter {
	return &Encounter{
		ID:              uuid.NewString(),
		TurnNumber:      1,
		PlayerHealth:    playerHealth,
		PlayerMaxHealth: playerMaxHealth,
		Stamina:         DefaultMaxStamina,
		MaxStamina:      DefaultMaxStamina,
		ActionPoints:    MaxActionPoints,
		Enemies:         slices.Clone(enemies),
		Features:        slices.Clone(features),
	}
}

// AvailableActions computes the action set from what the encounter
// actually contains: negotiate needs a sufficiently intelligent enemy,
// use-environment needs a feature with uses remaining.
func (enc *Encounter) AvailableActions() []Action {
	actions := []Action{ActionAttack, ActionDefend, ActionFlee, ActionStealth}
	for i := range enc.Features {
		if enc.Features[i].Usable() {
			actions = append(actions, ActionUseEnvironment)
			break
		}
	}
	for i := range enc.Enemies {
		if enc.Enemies[i].Alive() && enc.Enemies[i].Intelligence >= NegotiateIntelligence {
			actions = append(actions, ActionNegotiate)
			break
		}
	}
	return actions
}

// LivingEnemies returns the count of enemies with health remaining.
func (enc *Encounter) LivingEnemies() int {
	n := 0
	for i := range enc.Enemies {
		if enc.Enemies[i].Alive() {
			n++
		}
	}
	return n
}

// IsOver checks the terminal conditions. It runs after the player action
// and again after the enemy round: a fight can end mid-round on either
// side. Victory when no enemy has health; defeat when the player is at 0;
// escape when the player fled or every living enemy's morale collapsed;
// negotiated when the collapse came from a successful negotiation.
func (enc *Encounter) IsOver() (bool, Outcome) {
	if enc.PlayerHealth <= 0 {
		return true, OutcomeDefeat
	}
	if enc.LivingEnemies() == 0 {
		return true, OutcomeVictory
	}
	if enc.PlayerFled {
		return true, OutcomeEscape
	}
	moraleBroken := true
	for i := range enc.Enemies {
		if enc.Enemies[i].Alive() && enc.Enemies[i].Morale >= EscapeMorale {
			moraleBroken = false
			break
		}
	}
	if moraleBroken {
		if enc.Negotiated {
			return true, OutcomeNegotiated
		}
		return true, OutcomeEscape
	}
	return false, ""
}

// appendLog records a line in the append-only combat log.
func (enc *Encounter) appendLog(line string) {
	enc.Log = append(enc.Log, line)
}

// Clone returns a deep copy for buffered turn processing.
func (enc *Encounter) Clone() *Encounter {
	if enc == nil {
		return nil
	}
	cp := *enc
	cp.Enemies = slices.Clone(enc.Enemies)
	cp.Features = make([]Feature, len(enc.Features))
	for i, f := range enc.Features {
		cp.Features[i] = f
		if f.UsesRemaining != nil {
			uses := *f.UsesRemaining
			cp.Features[i].UsesRemaining = &uses
		}
	}
	cp.Log = slices.Clone(enc.Log)
	return &cp
}
