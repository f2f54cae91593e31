// Package random picks items from candidate pools for draws.
package random

import "math/rand/v2"

// RNG is the source of randomness; Intn returns a value in [0, n).
type RNG interface {
	Intn(n int) int
}

type globalRNG struct{}

func (globalRNG) Intn(n int) int { return rand.IntN(n) }

// Default returns the process-wide RNG. Safe for concurrent use.
func Default() RNG { return globalRNG{} }

// Seeded returns a reproducible RNG. Not safe for concurrent use.
func Seeded(seed uint64) RNG {
	return seededRNG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type seededRNG struct{ r *rand.Rand }

func (s seededRNG) Intn(n int) int { return s.r.IntN(n) }

// PickOne returns a uniformly chosen item. ok is false for an empty slice.
func PickOne[T any](rng RNG, items []T) (item T, ok bool) {
	if len(items) == 0 {
		return item, false
	}
	return items[rng.Intn(len(items))], true
}

// PickWithReplacement returns n independent uniform picks; duplicates are allowed.
// An empty pool or n <= 0 yields an empty slice.
func PickWithReplacement[T any](rng RNG, items []T, n int) []T {
	if len(items) == 0 || n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	for i := range out {
		out[i] = items[rng.Intn(len(items))]
	}
	return out
}

// Shuffled returns a copy of items whose first min(maxN, len(items)) positions hold a uniformly
// random ordered subset. The remaining positions are left in unspecified order.
func Shuffled[T any](rng RNG, items []T, maxN int) []T {
	out := make([]T, len(items))
	copy(out, items)

	for i := 0; i < len(out) && i < maxN; i++ {
		j := i + rng.Intn(len(out)-i)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// PickUnique returns up to maxN distinct positions of items in random order.
func PickUnique[T any](rng RNG, items []T, maxN int) []T {
	if maxN <= 0 {
		return []T{}
	}
	n := min(maxN, len(items))
	return Shuffled(rng, items, n)[:n]
}
