// Package random provides the randomness used by the content generators:
// a shared non-deterministic source for live requests, seedable sources for
// tests, and a stable integer-seeded hash for values that must not change
// within a calendar day.
package random

import (
	"math/rand/v2"
)

// Source is the subset of *rand.Rand the generators draw from.
type Source interface {
	Float64() float64
	IntN(n int) int
}

type global struct{}

func (global) Float64() float64 { return rand.Float64() }
func (global) IntN(n int) int   { return rand.IntN(n) }

// Global returns a Source backed by the process-wide generator.
// It is safe for concurrent use.
func Global() Source {
	return global{}
}

// New returns a deterministic Source. Not safe for concurrent use.
func New(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x5DEECE66D))
}

// Seeded maps an integer to a value in [0, 1) using the SplitMix64
// finaliser. The output for a given seed never changes between releases;
// cached responses depend on it.
func Seeded(seed int) float64 {
	z := uint64(int64(seed)) + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return float64(z>>11) / (1 << 53)
}
