package kernel

import (
	"math"

	"github.com/retiresim/retiresim-go/internal/scenario"
)

// BuildSchedule produces the planned annual spending/withdrawal schedule
// w[0..horizon) under one of the two income-application modes (§4.6).
func BuildSchedule(cfg *scenario.Config, e float64) []float64 {
	horizon := cfg.Horizon()
	w := make([]float64, horizon)
	for t := 0; t < horizon; t++ {
		frac := 1.0
		if t == 0 {
			frac = cfg.PartialYearFraction
		}
		if cfg.IncomeAppliesToActualSpend {
			w[t] = math.Max(0, e*frac)
			continue
		}
		age := cfg.StartAge + t
		ss := 0.0
		if age >= cfg.SSStartAge {
			ss = cfg.SSAnnualReal
		}
		ei := 0.0
		if age >= cfg.EIStartAge && age <= cfg.EIEndAge {
			ei = cfg.EarnedIncomeAnnualReal
		}
		asset := e*frac - ss*frac - ei*frac
		if asset < 0 {
			asset = 0
		}
		w[t] = asset
	}
	return w
}

// FloorSchedule produces floor_assets[t]: floor_annual_real each year,
// scaled by partial_year_fraction in year 0.
func FloorSchedule(cfg *scenario.Config) []float64 {
	horizon := cfg.Horizon()
	f := make([]float64, horizon)
	for t := 0; t < horizon; t++ {
		if t == 0 {
			f[t] = cfg.FloorAnnualReal * cfg.PartialYearFraction
		} else {
			f[t] = cfg.FloorAnnualReal
		}
	}
	return f
}

// SafeTargets returns (tgt_cash, tgt_base) sized from reserve_years and
// reserve_cash_fraction against next year's planned withdrawal w[t+1]
// (clamped to the last available year once t+1 runs past the schedule).
func SafeTargets(w []float64, t int, reserveYears, reserveCashFraction float64) (cash, base float64) {
	idx := t + 1
	var wNext float64
	switch {
	case len(w) == 0:
		wNext = 0
	case idx < len(w):
		wNext = w[idx]
	default:
		wNext = w[len(w)-1]
	}
	cash = reserveCashFraction * reserveYears * wNext
	base = (1 - reserveCashFraction) * reserveYears * wNext
	return cash, base
}

// IncomeAt returns the scalar SS + earned income in force at age(t),
// scaled by partial_year_fraction in year 0.
func IncomeAt(cfg *scenario.Config, t int) float64 {
	age := cfg.StartAge + t
	frac := 1.0
	if t == 0 {
		frac = cfg.PartialYearFraction
	}
	income := 0.0
	if age >= cfg.SSStartAge {
		income += cfg.SSAnnualReal
	}
	if age >= cfg.EIStartAge && age <= cfg.EIEndAge {
		income += cfg.EarnedIncomeAnnualReal
	}
	return income * frac
}
