// Package loanmath provides the closed-form amortizing-loan helpers used
// by the simulation kernel's loan bucket and reverse-mortgage payoff logic.
//
// Adapted from internal/engine/amortization.go's CalculateMonthlyPayment:
// the teacher computes a monthly payment from a monthly rate; here the
// payment and remaining balance are both expressed in the engine's native
// annual real-rate, annual-period terms.
package loanmath

import "math"

// AmortPayment returns the level annual payment that fully amortizes
// principal P over n years at real rate r. Returns 0 for P <= 0.
func AmortPayment(p, r float64, n int) float64 {
	if p <= 0 || n <= 0 {
		return 0
	}
	if r <= 0 {
		return p / float64(n)
	}
	factor := math.Pow(1+r, float64(n))
	if math.Abs(factor-1) < 1e-12 {
		return p / float64(n)
	}
	return (r * p * factor) / (factor - 1)
}

// BalanceAfterK returns the outstanding principal after k level payments
// of pay have been made against an original balance P amortizing at rate
// r. Returns 0 for P <= 0.
func BalanceAfterK(p, r, pay float64, k int) float64 {
	if p <= 0 {
		return 0
	}
	growth := math.Pow(1+r, float64(k))
	if r <= 0 {
		bal := p - pay*float64(k)
		if bal < 0 {
			return 0
		}
		return bal
	}
	bal := p*growth - pay*(growth-1)/r
	if bal < 0 {
		return 0
	}
	return bal
}
