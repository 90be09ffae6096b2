package combat

import "math/rand"

// Dice is the injected random source for all combat rolls. Tests supply a
// scripted implementation to assert exact branch outcomes; production uses
// the seeded RNG below.
type Dice interface {
	// Roll returns a random integer in [1, sides].
	Roll(sides int) int
}

// RNG is a seeded Dice backed by math/rand.
type RNG struct {
	src *rand.Rand
}

var _ Dice = (*RNG)(nil)

// NewRNG creates a deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{src: rand.New(rand.NewSource(seed))}
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	if sides < 1 {
		return 1
	}
	return r.src.Intn(sides) + 1
}
