package combat

import "fmt"

// Action is one player move in a combat round.
type Action string

const (
	ActionAttack         Action = "attack"
	ActionUseEnvironment Action = "use_environment"
	ActionNegotiate      Action = "negotiate"
	ActionDefend         Action = "defend"
	ActionFlee           Action = "flee"
	ActionStealth        Action = "stealth"
)

// cost is the resource price of an action. Both pools are checked before
// anything is spent, so an unaffordable action leaves the encounter
// untouched with nothing to refund.
type cost struct {
	AP      int
	Stamina int
}

var actionCosts = map[Action]cost{
	ActionAttack:         {AP: 1, Stamina: 2},
	ActionUseEnvironment: {AP: 1, Stamina: 1},
	ActionNegotiate:      {AP: 1},
	ActionDefend:         {AP: 1},
	ActionFlee:           {AP: 1, Stamina: 1},
	ActionStealth:        {AP: 1, Stamina: 2},
}

const (
	critRoll             = 18 // rolls at or above are critical hits
	fleeDC               = 10
	defendStaminaRestore = 4
	stealthAttackPenalty = 2
)

// statMod converts a raw stat score to a roll modifier, 5e style.
func statMod(score int) int {
	return (score - 10) / 2
}

func clampDC(dc, lo, hi int) int {
	if dc < lo {
		return lo
	}
	if dc > hi {
		return hi
	}
	return dc
}

// Resolver resolves combat actions against an injected dice source.
type Resolver struct {
	dice Dice
}

// NewResolver creates a resolver rolling with the given dice.
func NewResolver(dice Dice) *Resolver {
	return &Resolver{dice: dice}
}

// ExecuteAction resolves one player action in place. The first bool is
// the action's success; the second reports whether the attempt actually
// happened. Unaffordable costs, invalid indices, and exhausted features
// are non-attempted failures: nothing is spent, the encounter is
// untouched, and the caller should re-prompt. A failed probabilistic
// attempt (a missed swing) is attempted and spends its costs. None of
// these are errors.
func (r *Resolver) ExecuteAction(enc *Encounter, action Action, targetIndex, featureIndex int, stats map[string]int) (string, bool, bool) {
	c, ok := actionCosts[action]
	if !ok {
		return fmt.Sprintf("You hesitate; %q is not something you can do here.", action), false, false
	}
	if enc.ActionPoints < c.AP {
		return "You are out of action points this round.", false, false
	}
	if enc.Stamina < c.Stamina {
		return "You are too exhausted for that.", false, false
	}

	var text string
	var success, attempted bool
	switch action {
	case ActionAttack:
		text, success, attempted = r.attack(enc, targetIndex, stats)
	case ActionUseEnvironment:
		text, success, attempted = r.useEnvironment(enc, featureIndex, targetIndex)
	case ActionNegotiate:
		text, success, attempted = r.negotiate(enc, stats)
	case ActionDefend:
		text, success, attempted = r.defend(enc)
	case ActionFlee:
		text, success, attempted = r.flee(enc)
	case ActionStealth:
		text, success, attempted = r.stealth(enc, stats)
	}

	if attempted {
		enc.ActionPoints -= c.AP
		enc.Stamina -= c.Stamina
		enc.appendLog(text)
	}
	return text, success, attempted
}

func (r *Resolver) attack(enc *Encounter, targetIndex int, stats map[string]int) (string, bool, bool) {
	if targetIndex < 0 || targetIndex >= len(enc.Enemies) {
		return "You swing at nothing; there is no such foe.", false, false
	}
	target := &enc.Enemies[targetIndex]
	if !target.Alive() {
		return fmt.Sprintf("The %s is already down.", target.Name), false, false
	}

	bonus := statMod(stats["strength"])
	roll := r.dice.Roll(20)
	if roll+bonus < target.Defense {
		return fmt.Sprintf("Your blow glances off the %s.", target.Name), false, true
	}

	damage := r.dice.Roll(6) + bonus
	if damage < 1 {
		damage = 1
	}
	crit := roll >= critRoll
	if crit {
		damage *= 2
	}
	target.TakeDamage(damage)

	line := fmt.Sprintf("You strike the %s for %d damage.", target.Name, damage)
	if crit {
		line = fmt.Sprintf("A devastating blow! You strike the %s for %d damage.", target.Name, damage)
	}
	if !target.Alive() {
		line += fmt.Sprintf(" The %s falls.", target.Name)
	}
	return line, true, true
}

func (r *Resolver) useEnvironment(enc *Encounter, featureIndex, targetIndex int) (string, bool, bool) {
	if featureIndex < 0 || featureIndex >= len(enc.Features) {
		return "There is nothing like that here to use.", false, false
	}
	feature := &enc.Features[featureIndex]
	if !feature.Usable() {
		return fmt.Sprintf("The %s is spent.", feature.Name), false, false
	}

	if feature.UsesRemaining != nil {
		*feature.UsesRemaining--
	}

	if targetIndex >= 0 && targetIndex < len(enc.Enemies) && enc.Enemies[targetIndex].Alive() {
		target := &enc.Enemies[targetIndex]
		damage := r.dice.Roll(feature.DamagePotential)
		target.TakeDamage(damage)
		line := fmt.Sprintf("You turn the %s against the %s for %d damage.", feature.Name, target.Name, damage)
		if !target.Alive() {
			line += fmt.Sprintf(" The %s falls.", target.Name)
		}
		return line, true, true
	}

	return fmt.Sprintf("You make use of the %s.", feature.Name), true, true
}

func (r *Resolver) negotiate(enc *Encounter, stats map[string]int) (string, bool, bool) {
	// Charisma and intelligence lower the bar together.
	dc := clampDC(12-statMod(stats["charisma"])-statMod(stats["intelligence"]), 1, 19)
	if r.dice.Roll(20) >= dc {
		for i := range enc.Enemies {
			enc.Enemies[i].Morale = 0
		}
		enc.Negotiated = true
		return "Your words land. Weapons lower; the fight drains out of them.", true, true
	}
	return "They are unmoved by your words.", false, true
}

func (r *Resolver) defend(enc *Encounter) (string, bool, bool) {
	enc.Stamina += defendStaminaRestore
	if enc.Stamina > enc.MaxStamina {
		enc.Stamina = enc.MaxStamina
	}
	return "You brace behind your guard and catch your breath.", true, true
}

func (r *Resolver) flee(enc *Encounter) (string, bool, bool) {
	if r.dice.Roll(20) >= fleeDC {
		enc.PlayerFled = true
		return "You break away and put the fight behind you.", true, true
	}
	return "They cut off your escape.", false, true
}

func (r *Resolver) stealth(enc *Encounter, stats map[string]int) (string, bool, bool) {
	dc := clampDC(12-statMod(stats["dexterity"]), 2, 19)
	if r.dice.Roll(20) >= dc {
		for i := range enc.Enemies {
			if enc.Enemies[i].Alive() {
				enc.Enemies[i].AttackPenalty += stealthAttackPenalty
			}
		}
		return "You melt into the shadows; they struggle to find their mark.", true, true
	}
	return "A loose stone betrays you.", false, true
}
