package models

import "math/rand/v2"

// intN draws from rng, or from the runtime source when rng is nil.
func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}
