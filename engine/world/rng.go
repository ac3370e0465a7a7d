package world

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Every draw consumes exactly one value from the source so a saved position
// reproduces the stream.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	r.pos++
	return float64(r.src.Int63()>>10) / (1 << 53)
}

// Chance reports true with probability p.
func (r *RNG) Chance(p float64) bool {
	return r.Float64() < p
}

// Intn returns a value in [0, n).
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Float64() * float64(n))
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 { return r.seed }

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 { return r.pos }

// RestoreRNG creates an RNG and advances it to the given position.
func RestoreRNG(seed, position int64) *RNG {
	rng := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		rng.src.Int63()
	}
	rng.pos = position
	return rng
}
