package combat

import "fmt"

const (
	// fleeHealthRatio: an enemy below a quarter of its health breaks and runs.
	fleeHealthRatio = 0.25

	// fleeMorale: an enemy whose morale drops below this flees instead of acting.
	fleeMorale = 15

	// smartIntelligence: enemies at or above this may use the environment
	// tactically instead of a basic attack.
	smartIntelligence = 8
)

// ProcessEnemyRound resolves the reply of every enemy that can still act.
// Broken enemies (low health or morale) flee instead of attacking; a
// smart enemy sometimes turns an environmental feature on the player.
// After all enemies act, action points refill and stamina partially
// regenerates for the next round.
func (r *Resolver) ProcessEnemyRound(enc *Encounter) string {
	var text string
	appendLine := func(line string) {
		if text != "" {
			text += " "
		}
		text += line
		enc.appendLog(line)
	}

	for i := range enc.Enemies {
		enemy := &enc.Enemies[i]
		if !enemy.Alive() || enemy.Fled {
			continue
		}
		if enc.PlayerHealth <= 0 {
			break
		}

		ratio := float64(enemy.Health) / float64(enemy.MaxHealth)
		if ratio < fleeHealthRatio || enemy.Morale < fleeMorale {
			enemy.Fled = true
			enemy.Morale = 0
			appendLine(fmt.Sprintf("The %s breaks and runs.", enemy.Name))
			continue
		}

		if enemy.Intelligence >= smartIntelligence {
			if idx := usableFeatureIndex(enc); idx >= 0 && r.dice.Roll(4) == 1 {
				feature := &enc.Features[idx]
				if feature.UsesRemaining != nil {
					*feature.UsesRemaining--
				}
				damage := r.dice.Roll(feature.DamagePotential)
				enc.PlayerHealth -= damage
				if enc.PlayerHealth < 0 {
					enc.PlayerHealth = 0
				}
				appendLine(fmt.Sprintf("The %s turns the %s against you for %d damage.",
					enemy.Name, feature.Name, damage))
				continue
			}
		}

		effective := enemy.AttackPower - enemy.AttackPenalty
		if effective < 1 {
			effective = 1
		}
		damage := r.dice.Roll(effective)
		enc.PlayerHealth -= damage
		if enc.PlayerHealth < 0 {
			enc.PlayerHealth = 0
		}
		appendLine(fmt.Sprintf("The %s hits you for %d damage.", enemy.Name, damage))
	}

	if text == "" {
		text = "No one moves against you."
		enc.appendLog(text)
	}

	enc.ActionPoints = MaxActionPoints
	enc.Stamina += StaminaRegenPerRound
	if enc.Stamina > enc.MaxStamina {
		enc.Stamina = enc.MaxStamina
	}
	enc.TurnNumber++

	return text
}

func usableFeatureIndex(enc *Encounter) int {
	for i := range enc.Features {
		if enc.Features[i].Usable() {
			return i
		}
	}
	return -1
}
