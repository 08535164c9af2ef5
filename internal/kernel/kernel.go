// Package kernel implements the year-by-year, per-path simulation kernel
// that is the core of the engine: growth, guardrail-driven flexible
// spending, multi-bucket withdrawal ordering, reserve refill, reverse-
// mortgage lifecycle, and amortizing loan + loan bucket, all vectorized
// across N_sims lanes per §4.7.
//
// The lane-array layout and mask-driven conditional updates follow the
// shape of _examples/AreumTech-Chubby.fyi/apps/mcp-server-go's
// internal/simulation engines (pathState arrays walked month-by-month),
// generalized here to year-by-year multi-bucket state with an explicit
// failure latch instead of a single breach flag.
package kernel

import (
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/retiresim/retiresim-go/internal/loanmath"
	"github.com/retiresim/retiresim-go/internal/mortality"
	"github.com/retiresim/retiresim-go/internal/scenario"
)

const epsilon = 1e-9

var verbose = false

// SetVerbose toggles the per-year path-0 state trace (§SPEC_FULL
// "Supplemented features" #2) for scenarios with Debug.TraceFirstPath
// set. Off by default; never affects output.
func SetVerbose(v bool) { verbose = v }

// Metrics is the fixed ten-scalar record produced by one kernel call,
// plus two supplemented guardrail diagnostic scalars beyond those ten
// (httpapi emits them as guardrail_cut1_frac and guardrail_cut2_frac).
type Metrics struct {
	PSuccessDeathWeighted     float64
	PSuccessToAge99           float64
	MedianMaxDDRisky          float64
	MedianMaxDDTotal          float64
	HomeEquityRemainingMedian float64
	PAnyRMDraw                float64
	RMBalanceEndMedian        float64
	RiskyEndMedian            float64
	TotalNetEndMedian         float64
	NetWorthEndMedian         float64

	GuardrailCut1Frac float64
	GuardrailCut2Frac float64
}

// state holds the per-path lane arrays, all length n_sims, plus the
// scalars that are deterministic across lanes (loan_bal).
type state struct {
	cash, baseTreas, risky   []float64
	hwm                      []float64
	totalNet, hwmTotal       []float64
	maxDDRisky, maxDDTotal   []float64
	loanBucket               []float64
	rmLimit, rmBal           []float64
	rmEverUsed               []bool
	failed                   []bool
	failIdx                  []int
	loanBal                  float64
}

// Run evaluates the kernel for one (scenario, grid point, spending level,
// returns matrix) combination and returns the aggregated metrics.
func Run(cfg *scenario.Config, grid scenario.GridPoint, e float64, r [][]float64) Metrics {
	n := cfg.NSims
	horizon := cfg.Horizon()

	w := BuildSchedule(cfg, e)
	floorAssets := FloorSchedule(cfg)

	st := newState(cfg, grid, n, w)

	rmOpenT := cfg.RMOpenAge - cfg.StartAge
	rmLimitOpen := cfg.HomeValueReal * cfg.PLFAtOpen
	pay := loanmath.AmortPayment(grid.LoanAmount, cfg.LoanRealRate, cfg.LoanTermYears)

	cut1Years, cut2Years, activeYears := 0, 0, 0

	for t := 0; t < horizon; t++ {
		dd := stepYear(cfg, grid, st, r, t, w, floorAssets, rmOpenT, rmLimitOpen, pay)
		cuts := CutAll(dd, cfg.DD1, cfg.DD2, cfg.Cut1, cfg.Cut2)

		for i := 0; i < n; i++ {
			if st.failed[i] {
				continue
			}
			activeYears++
			if cuts[i] >= cfg.Cut2 && cfg.Cut2 > 0 {
				cut2Years++
			} else if cuts[i] >= cfg.Cut1 && cfg.Cut1 > 0 {
				cut1Years++
			}
		}

		if verbose && cfg.Debug.TraceFirstPath && n > 0 {
			log.Printf("kernel: year %d path0 cash=%.2f base=%.2f risky=%.2f failed=%v",
				t, st.cash[0], st.baseTreas[0], st.risky[0], st.failed[0])
		}
	}

	return aggregate(cfg, st, horizon, cut1Years, cut2Years, activeYears)
}

func newState(cfg *scenario.Config, grid scenario.GridPoint, n int, w []float64) *state {
	st := &state{
		cash: make([]float64, n), baseTreas: make([]float64, n), risky: make([]float64, n),
		hwm: make([]float64, n), totalNet: make([]float64, n), hwmTotal: make([]float64, n),
		maxDDRisky: make([]float64, n), maxDDTotal: make([]float64, n),
		loanBucket: make([]float64, n), rmLimit: make([]float64, n), rmBal: make([]float64, n),
		rmEverUsed: make([]bool, n), failed: make([]bool, n), failIdx: make([]int, n),
	}

	tgtCash0, tgtBase0 := SafeTargets(w, 0, grid.ReserveYears, cfg.ReserveCashFraction)
	initSafe := math.Min(tgtCash0+tgtBase0, grid.StartPortfolio)
	cash0 := math.Min(tgtCash0, initSafe)
	base0 := math.Max(0, initSafe-cash0)
	risky0 := grid.StartPortfolio - initSafe

	loanBucket0, loanBal0 := 0.0, 0.0
	if grid.LoanAmount > 0 {
		loanBucket0 = grid.LoanAmount
		loanBal0 = grid.LoanAmount
	}

	totalNet0 := cash0 + base0 + risky0 + loanBucket0 - loanBal0
	hwm0 := math.Max(risky0, 0)
	hwmTotal0 := math.Max(totalNet0, 0)

	horizon := cfg.Horizon()
	for i := 0; i < n; i++ {
		st.cash[i], st.baseTreas[i], st.risky[i] = cash0, base0, risky0
		st.hwm[i] = hwm0
		st.totalNet[i] = totalNet0
		st.hwmTotal[i] = hwmTotal0
		st.loanBucket[i] = loanBucket0
		st.failIdx[i] = horizon
	}
	st.loanBal = loanBal0
	return st
}

// stepYear executes the 14 substeps of §4.7 for year t and returns the
// lane-wise risky drawdown computed in substep 2 (reused by later steps
// and by the caller for guardrail-trigger bookkeeping).
func stepYear(cfg *scenario.Config, grid scenario.GridPoint, st *state, r [][]float64, t int,
	w, floorAssets []float64, rmOpenT int, rmLimitOpen, pay float64) []float64 {

	n := len(st.cash)
	dd := make([]float64, n)

	// 1. Growth
	for i := 0; i < n; i++ {
		ret := 0.0
		if t < len(r[i]) {
			ret = r[i][t]
		}
		st.risky[i] *= 1 + ret
		st.cash[i] *= 1 + cfg.SafeRealReturn
		st.baseTreas[i] *= 1 + cfg.SafeRealReturn
		if grid.LoanAmount > 0 {
			st.loanBucket[i] *= 1 + cfg.LoanBucketRealReturn
		}
	}

	// 2. Drawdowns update
	for i := 0; i < n; i++ {
		if st.risky[i] > st.hwm[i] {
			st.hwm[i] = st.risky[i]
		}
		if st.hwm[i] > 0 {
			dd[i] = 1 - st.risky[i]/st.hwm[i]
		}
		if dd[i] > st.maxDDRisky[i] {
			st.maxDDRisky[i] = dd[i]
		}
		st.totalNet[i] = st.cash[i] + st.baseTreas[i] + st.risky[i] + st.loanBucket[i] - st.loanBal
		if st.totalNet[i] > st.hwmTotal[i] {
			st.hwmTotal[i] = st.totalNet[i]
		}
		ddTotal := 0.0
		if st.hwmTotal[i] > 0 {
			ddTotal = 1 - st.totalNet[i]/st.hwmTotal[i]
		}
		if ddTotal > st.maxDDTotal[i] {
			st.maxDDTotal[i] = ddTotal
		}
	}

	// 3. Pre-RM loan payment
	if grid.LoanAmount > 0 && t < rmOpenT {
		remainder := make([]float64, n)
		loanBucketMask := make([]bool, n)
		for i := 0; i < n; i++ {
			if !st.failed[i] {
				remainder[i] = pay
			}
			loanBucketMask[i] = dd[i] >= cfg.LoanBucketUseDD && !st.failed[i]
		}
		TakeFrom(st.cash, remainder)
		TakeFrom(st.baseTreas, remainder)
		TakeFrom(st.risky, remainder)
		TakeFromWhere(st.loanBucket, remainder, loanBucketMask)
		for i := 0; i < n; i++ {
			if !st.failed[i] && remainder[i] > epsilon {
				st.failed[i] = true
				st.failIdx[i] = t
			}
		}
		k := t + 1
		if k <= cfg.LoanTermYears {
			st.loanBal = loanmath.BalanceAfterK(grid.LoanAmount, cfg.LoanRealRate, pay, k)
		} else {
			st.loanBal = 0
		}
	}

	// 4. RM open
	if t == rmOpenT {
		for i := 0; i < n; i++ {
			st.rmLimit[i] = rmLimitOpen * (1 + cfg.RMLimitRealGrowth)
		}
		if grid.LoanAmount > 0 {
			for i := 0; i < n; i++ {
				if st.failed[i] {
					continue
				}
				remaining := st.loanBal
				if remaining <= 0 {
					continue
				}
				if dd[i] <= cfg.PayoffDDThreshold {
					remaining = Draw(&st.risky[i], remaining)
					if remaining > 0 {
						remaining = DrawFromRM(&st.rmBal[i], &st.rmLimit[i], remaining)
					}
					if remaining > 0 {
						remaining = Draw(&st.baseTreas[i], remaining)
					}
					if remaining > 0 {
						remaining = Draw(&st.cash[i], remaining)
					}
					if remaining > 0 {
						remaining = Draw(&st.loanBucket[i], remaining)
					}
				} else {
					remaining = DrawFromRM(&st.rmBal[i], &st.rmLimit[i], remaining)
					if remaining > 0 {
						remaining = Draw(&st.risky[i], remaining)
					}
					if remaining > 0 {
						remaining = Draw(&st.baseTreas[i], remaining)
					}
					if remaining > 0 {
						remaining = Draw(&st.cash[i], remaining)
					}
					if remaining > 0 {
						remaining = Draw(&st.loanBucket[i], remaining)
					}
				}
				if remaining > epsilon {
					st.failed[i] = true
					st.failIdx[i] = t
				}
			}
			st.loanBal = 0
		}
	}

	// 5. RM accrual
	if t >= rmOpenT {
		for i := 0; i < n; i++ {
			st.rmLimit[i] *= 1 + cfg.RMLimitRealGrowth
			st.rmBal[i] *= 1 + cfg.RMBalRealRate
		}
	}

	// 6. Desired spending
	desired := make([]float64, n)
	for i := 0; i < n; i++ {
		age := cfg.StartAge + t
		var flexPct float64
		if age < cfg.SSStartAge {
			if cfg.BaselineEForFlex != 0 {
				flexPct = cfg.BaselineFlexPre / cfg.BaselineEForFlex
			}
		} else {
			if cfg.BaselineNetPostSS != 0 {
				flexPct = cfg.BaselineFlexPost / cfg.BaselineNetPostSS
			}
		}
		flexAmt := flexPct * w[t]
		if flexAmt > w[t] {
			flexAmt = w[t]
		}
		floorAmt := w[t] - flexAmt
		c := Cut(dd[i], cfg.DD1, cfg.DD2, cfg.Cut1, cfg.Cut2)
		desired[i] = floorAmt + flexAmt*(1-c)
	}

	// 7. Feasibility ceiling
	maxFeasible := make([]float64, n)
	floorNeed := floorAssets[t]
	for i := 0; i < n; i++ {
		availRM := st.rmLimit[i] - st.rmBal[i]
		if availRM < 0 {
			availRM = 0
		}
		accessibleLoan := 0.0
		if dd[i] >= cfg.LoanBucketUseDD {
			accessibleLoan = st.loanBucket[i]
		}
		riskyPos := st.risky[i]
		if riskyPos < 0 {
			riskyPos = 0
		}
		maxFeasible[i] = st.cash[i] + st.baseTreas[i] + riskyPos + availRM + accessibleLoan
	}

	// 8. Income application
	assetDesired := make([]float64, n)
	floorNeedAssets := make([]float64, n)
	income := IncomeAt(cfg, t)
	if cfg.IncomeAppliesToActualSpend && income > 0 {
		tgtCash, tgtBase := SafeTargets(w, t, grid.ReserveYears, cfg.ReserveCashFraction)
		for i := 0; i < n; i++ {
			assetDesired[i] = math.Max(0, desired[i]-income)
			floorNeedAssets[i] = math.Max(0, floorNeed-income)
			surplus := math.Max(0, income-desired[i])
			if surplus <= 0 {
				continue
			}
			switch cfg.SurplusAllocation {
			case scenario.SurplusReserveFirst:
				toCash := math.Min(surplus, math.Max(0, tgtCash-st.cash[i]))
				st.cash[i] += toCash
				surplus -= toCash
				toBase := math.Min(surplus, math.Max(0, tgtBase-st.baseTreas[i]))
				st.baseTreas[i] += toBase
				surplus -= toBase
				st.risky[i] += surplus
			default: // risky_first
				st.risky[i] += surplus
			}
		}
	} else {
		copy(assetDesired, desired)
		for i := range floorNeedAssets {
			floorNeedAssets[i] = floorNeed
		}
	}

	// 9. Feasibility failure
	for i := 0; i < n; i++ {
		if !st.failed[i] && maxFeasible[i] < floorNeedAssets[i]-epsilon {
			st.failed[i] = true
			st.failIdx[i] = t
		}
	}

	// 10. Spending
	spendAssets := make([]float64, n)
	for i := 0; i < n; i++ {
		if st.failed[i] {
			continue
		}
		s := math.Min(assetDesired[i], maxFeasible[i])
		if s < floorNeedAssets[i] {
			s = floorNeedAssets[i]
		}
		if s > maxFeasible[i] {
			s = maxFeasible[i]
		}
		spendAssets[i] = s
	}

	// 11. Funding order
	remaining := make([]float64, n)
	copy(remaining, spendAssets)
	for i := range remaining {
		if st.failed[i] {
			remaining[i] = 0
		}
	}
	notFailed := make([]bool, n)
	loanBucketPartialMask := make([]bool, n)
	rmPartialMask := make([]bool, n)
	for i := 0; i < n; i++ {
		notFailed[i] = !st.failed[i]
		loanBucketPartialMask[i] = notFailed[i] && dd[i] >= cfg.LoanBucketUseDD
		rmPartialMask[i] = notFailed[i] && dd[i] >= cfg.DD2
	}

	TakeFromWhere(st.cash, remaining, notFailed)
	TakeFromWhere(st.baseTreas, remaining, notFailed)

	// (c) loan_bucket, partial cover cap
	loanRequested := make([]float64, n)
	loanCap := make([]float64, n)
	for i := 0; i < n; i++ {
		loanRequested[i] = remaining[i] * cfg.LoanBucketPartialCover
		loanCap[i] = loanRequested[i]
	}
	TakeFromWhere(st.loanBucket, loanCap, loanBucketPartialMask)
	for i := 0; i < n; i++ {
		if loanBucketPartialMask[i] {
			drawn := loanRequested[i] - loanCap[i]
			remaining[i] -= drawn
		}
	}

	// (d) RM, partial cover cap
	rmRequested := make([]float64, n)
	rmCap := make([]float64, n)
	for i := 0; i < n; i++ {
		rmRequested[i] = remaining[i] * cfg.RMPartialCover
		rmCap[i] = rmRequested[i]
	}
	DrawFromRMWhere(st.rmBal, st.rmLimit, rmCap, rmPartialMask)
	for i := 0; i < n; i++ {
		if rmPartialMask[i] {
			drawn := rmRequested[i] - rmCap[i]
			remaining[i] -= drawn
		}
	}

	// (e) risky
	TakeFromWhere(st.risky, remaining, notFailed)

	// (f) RM again, full remainder
	for i := 0; i < n; i++ {
		if !notFailed[i] || remaining[i] <= 0 {
			continue
		}
		shortfall := DrawFromRM(&st.rmBal[i], &st.rmLimit[i], remaining[i])
		remaining[i] = shortfall
	}

	// (g) loan_bucket again, full remainder on eligible paths
	TakeFromWhere(st.loanBucket, remaining, loanBucketPartialMask)

	// 12. Reserve refill (good year = dd < dd1 and not failed)
	tgtCash, tgtBase := SafeTargets(w, t, grid.ReserveYears, cfg.ReserveCashFraction)
	goodYear := make([]bool, n)
	for i := 0; i < n; i++ {
		goodYear[i] = dd[i] < cfg.DD1 && !st.failed[i]
		if !goodYear[i] {
			continue
		}
		riskyPos := st.risky[i]
		if riskyPos < 0 {
			riskyPos = 0
		}
		needCash := math.Max(0, tgtCash-st.cash[i])
		moveCash := math.Min(needCash, riskyPos)
		st.risky[i] -= moveCash
		st.cash[i] += moveCash

		riskyPos = st.risky[i]
		if riskyPos < 0 {
			riskyPos = 0
		}
		needBase := math.Max(0, tgtBase-st.baseTreas[i])
		moveBase := math.Min(needBase, riskyPos)
		st.risky[i] -= moveBase
		st.baseTreas[i] += moveBase
	}

	// 13. RM repayment at new highs
	for i := 0; i < n; i++ {
		if !goodYear[i] || st.rmBal[i] <= 0 {
			continue
		}
		if dd[i] >= epsilon {
			continue
		}
		riskyPos := st.risky[i]
		if riskyPos < 0 {
			riskyPos = 0
		}
		amount := math.Min(st.rmBal[i]*cfg.RMRepayRate, riskyPos)
		st.risky[i] -= amount
		st.rmBal[i] -= amount
	}

	// 14. Latch RM usage
	for i := 0; i < n; i++ {
		if st.rmBal[i] > 0 {
			st.rmEverUsed[i] = true
		}
	}

	return dd
}

func aggregate(cfg *scenario.Config, st *state, horizon, cut1Years, cut2Years, activeYears int) Metrics {
	n := len(st.cash)
	m := mortality.Compute(st.failIdx, cfg.StartAge, horizon)

	homeEquity := make([]float64, n)
	totalNetEnd := make([]float64, n)
	netWorthEnd := make([]float64, n)
	rmEnd := make([]float64, n)
	riskyEnd := make([]float64, n)
	rmEverUsedCount := 0

	for i := 0; i < n; i++ {
		homeEquity[i] = math.Max(0, cfg.HomeValueReal-st.rmBal[i])
		totalNetEnd[i] = st.cash[i] + st.baseTreas[i] + st.risky[i] + st.loanBucket[i] - st.loanBal
		netWorthEnd[i] = totalNetEnd[i] + homeEquity[i]
		rmEnd[i] = st.rmBal[i]
		riskyEnd[i] = st.risky[i]
		if st.rmEverUsed[i] {
			rmEverUsedCount++
		}
	}

	metrics := Metrics{
		PSuccessDeathWeighted:     m.PSuccessDeathWeighted,
		PSuccessToAge99:           m.PSuccessToAge99,
		MedianMaxDDRisky:          median(st.maxDDRisky),
		MedianMaxDDTotal:          median(st.maxDDTotal),
		HomeEquityRemainingMedian: median(homeEquity),
		PAnyRMDraw:                safeDiv(float64(rmEverUsedCount), float64(n)),
		RMBalanceEndMedian:        median(rmEnd),
		RiskyEndMedian:            median(riskyEnd),
		TotalNetEndMedian:         median(totalNetEnd),
		NetWorthEndMedian:         median(netWorthEnd),
		GuardrailCut1Frac:         safeDiv(float64(cut1Years), float64(activeYears)),
		GuardrailCut2Frac:         safeDiv(float64(cut2Years), float64(activeYears)),
	}
	return metrics
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.LinInterp, sorted, nil)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
