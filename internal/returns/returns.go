// Package returns generates the deterministic N_sims x N_years matrix of
// real returns that is the simulation kernel's sole stochastic input.
//
// The bit generator (PCG32) is adapted from
// internal/engine/seeded_rng.go's PCG32/SeededRNG: same seed -> same
// output on any platform, by construction (no dependence on Go's
// math/rand algorithm version). The normal draw itself is delegated to
// gonum.org/v1/gonum/stat/distuv so the distribution math is the pack's
// own rather than a hand-rolled Box-Muller.
package returns

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// PCG32 implements the PCG-XSH-RR pseudo-random number generator.
// Algorithm from https://www.pcg-random.org/ — fixed forever so seeded
// output is reproducible across Go versions and platforms.
type PCG32 struct {
	state uint64
	inc   uint64
}

// NewPCG32 creates a PCG32 generator seeded deterministically from seed.
func NewPCG32(seed int64) *PCG32 {
	p := &PCG32{}
	p.Seed(seed)
	return p
}

// Seed reinitializes the generator from seed.
func (p *PCG32) Seed(seed int64) {
	p.state = 0
	p.inc = (uint64(seed) << 1) | 1
	p.Uint32()
	p.state += uint64(seed)
	p.Uint32()
}

// Uint32 returns a uniformly distributed uint32.
func (p *PCG32) Uint32() uint32 {
	oldstate := p.state
	p.state = oldstate*6364136223846793005 + p.inc
	xorshifted := uint32(((oldstate >> 18) ^ oldstate) >> 27)
	rot := uint32(oldstate >> 59)
	return (xorshifted >> rot) | (xorshifted << ((-rot) & 31))
}

// Uint64 returns a uniformly distributed uint64.
func (p *PCG32) Uint64() uint64 {
	return (uint64(p.Uint32()) << 32) | uint64(p.Uint32())
}

// Int63, together with Seed, makes *PCG32 a stdlib math/rand.Source as
// well; distuv draws read the generator through Uint64.
func (p *PCG32) Int63() int64 {
	return int64(p.Uint64() >> 1)
}

// Generate draws an n_sims x n_years matrix of real returns. Each cell is
// Normal(mu, sigma) clamped below at -0.99 (no upper bound). Cells are
// drawn in row-major order (path 0 year 0, path 0 year 1, ..., path 0
// year n_years-1, path 1 year 0, ...) from a single seeded stream, so the
// same seed always reproduces the same matrix regardless of platform.
func Generate(seed int64, nSims, nYears int, mu, sigma float64) [][]float64 {
	matrix := make([][]float64, nSims)
	if nSims <= 0 || nYears <= 0 {
		return matrix
	}

	src := NewPCG32(seed)
	normal := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}

	for i := 0; i < nSims; i++ {
		row := make([]float64, nYears)
		for t := 0; t < nYears; t++ {
			draw := normal.Rand()
			if draw < -0.99 {
				draw = -0.99
			}
			row[t] = draw
		}
		matrix[i] = row
	}
	return matrix
}

// ensure PCG32 also satisfies the stdlib math/rand.Source interface.
var _ rand.Source = (*PCG32)(nil)
