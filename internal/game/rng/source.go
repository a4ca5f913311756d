// Package rng provides the random source abstraction used by combat checks.
// Production code uses the crypto-backed source; tests inject a seeded or
// scripted source for deterministic outcomes.
package rng

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
)

// Source produces uniformly distributed integers for combat checks.
type Source interface {
	// Intn returns a value in [0, n). Panics if n <= 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" if n <= 0.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// seededSource implements Source using math/rand with a fixed seed.
type seededSource struct {
	r *mrand.Rand
}

// NewSeededSource returns a deterministic Source for tests and replays.
func NewSeededSource(seed int64) Source {
	return &seededSource{r: mrand.New(mrand.NewSource(seed))}
}

// Intn returns a deterministic pseudo-random int in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	return s.r.Intn(n)
}
