// Package optimizer implements the bracket-expand-then-bisect integer
// spending search of §4.8, run once per grid point when the scenario is
// in optimize mode.
//
// The bracket/bisect shape mirrors the teacher's goal_analysis.go, which
// narrows a target-date range by repeated feasibility checks rather than
// a closed-form solve; here the checked predicate is "does this annual
// spend clear the success target" instead of "does this goal fund by
// this date".
package optimizer

import (
	"math"

	"github.com/retiresim/retiresim-go/internal/kernel"
	"github.com/retiresim/retiresim-go/internal/scenario"
)

// bracketCap stops the bracket-expansion phase (§4.8 step 2): hi is only
// expanded while it is below this value, so the last expansion step can
// land above it.
const bracketCap = 600_000

// Result is the outcome of one grid point's optimize-mode search.
type Result struct {
	EStar         int
	Metrics       kernel.Metrics
	Iterations    int
	BracketCapped bool
}

// objective extracts the scalar the search is driving toward the target.
func objective(oc scenario.OptimizeConfig, m kernel.Metrics) float64 {
	switch oc.OptimizeSuccessMetric {
	case scenario.MetricAge99:
		return m.PSuccessToAge99
	case scenario.MetricBothMin:
		if m.PSuccessDeathWeighted < m.PSuccessToAge99 {
			return m.PSuccessDeathWeighted
		}
		return m.PSuccessToAge99
	case scenario.MetricBothWeighted:
		w := oc.BothWeight
		return w*m.PSuccessDeathWeighted + (1-w)*m.PSuccessToAge99
	default: // death_weighted
		return m.PSuccessDeathWeighted
	}
}

// Search finds the largest integer annual spend E such that
// objective(metrics(E)) >= target, following §4.8 exactly: evaluate at
// e_lo (degenerate if it already fails), expand the bracket from e_hi by
// 1.25x while it keeps passing and hi is below 600,000, then bisect for
// e_search_iters iterations carrying the metrics of the latest passing
// point forward.
func Search(cfg *scenario.Config, grid scenario.GridPoint, r [][]float64) Result {
	oc := cfg.Optimize
	lo, hi := oc.ELo, oc.EHi

	mLo := kernel.Run(cfg, grid, float64(lo), r)
	iters := 1
	if objective(oc, mLo) < oc.Target {
		return Result{EStar: lo, Metrics: mLo, Iterations: iters}
	}
	bestE, bestM := lo, mLo

	mHi := kernel.Run(cfg, grid, float64(hi), r)
	iters++
	for objective(oc, mHi) >= oc.Target && hi < bracketCap {
		lo, bestE, bestM = hi, hi, mHi
		hi = int(math.Floor(float64(hi) * 1.25))
		mHi = kernel.Run(cfg, grid, float64(hi), r)
		iters++
	}
	capped := objective(oc, mHi) >= oc.Target
	if capped {
		lo, bestE, bestM = hi, hi, mHi
	}

	for i := 0; i < oc.ESearchIters && hi-lo > 1; i++ {
		mid := (lo + hi) / 2
		mMid := kernel.Run(cfg, grid, float64(mid), r)
		iters++
		if objective(oc, mMid) >= oc.Target {
			lo, bestE, bestM = mid, mid, mMid
		} else {
			hi = mid - 1
		}
	}

	return Result{EStar: bestE, Metrics: bestM, Iterations: iters, BracketCapped: capped}
}
