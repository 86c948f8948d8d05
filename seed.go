package ams

import "math/rand/v2"

// Seed draws one counter seed from r, or from the process-wide source if r is nil.
func Seed(r *rand.Rand) uint32 {
	if r == nil {
		return rand.Uint32()
	}
	return r.Uint32()
}
