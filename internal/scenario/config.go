// Package scenario holds the immutable household scenario configuration
// consumed by the simulation kernel, optimizer, and sweep driver.
//
// Adapted from internal/engine/config.go's StochasticModelConfig: the
// teacher groups a flat struct of named float64 knobs with sane zero
// defaults applied by the caller; we keep that shape but replace the
// asset-class/GARCH fields with the retirement-plan fields this spec
// names.
package scenario

// SuccessMetric selects the optimizer's objective function.
type SuccessMetric string

const (
	MetricDeathWeighted SuccessMetric = "death_weighted"
	MetricAge99         SuccessMetric = "age_99"
	MetricBothMin       SuccessMetric = "both_min"
	MetricBothWeighted  SuccessMetric = "both_weighted"
)

// SurplusAllocation selects where post-spend income surplus goes.
type SurplusAllocation string

const (
	SurplusReserveFirst SurplusAllocation = "reserve_first"
	SurplusRiskyFirst   SurplusAllocation = "risky_first"
)

// Mode selects single-point evaluation versus binary-search optimization.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeOptimize Mode = "optimize"
)

// OptimizeConfig holds the fields needed only in ModeOptimize.
type OptimizeConfig struct {
	Target                float64       `json:"target"`
	ELo                   int           `json:"e_lo"`
	EHi                   int           `json:"e_hi"`
	ESearchIters          int           `json:"e_search_iters"`
	OptimizeSuccessMetric SuccessMetric `json:"optimize_success_metric"`
	BothWeight            float64       `json:"both_weight"`
}

// Config is the full scenario configuration, passed by pointer to the
// kernel once per (grid point, mode) evaluation and never modified there.
type Config struct {
	// Timing
	StartAge            int     `json:"start_age"`
	PartialYearFraction  float64 `json:"partial_year_fraction"`

	// Return moments
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
	Seed  int64   `json:"seed"`
	NSims int     `json:"n_sims"`

	// Mode selector
	Mode     Mode           `json:"mode"`
	EFixed   int            `json:"e_fixed"`
	Optimize OptimizeConfig `json:"optimize"`

	// Income
	SSAnnualReal               float64           `json:"ss_annual_real"`
	SSStartAge                 int               `json:"ss_start_age"`
	EarnedIncomeAnnualReal     float64           `json:"earned_income_annual_real"`
	EIStartAge                 int               `json:"ei_start_age"`
	EIEndAge                   int               `json:"ei_end_age"`
	IncomeAppliesToActualSpend bool              `json:"income_applies_to_actual_spend"`
	AllowSurplusSavings        bool              `json:"allow_surplus_savings"`
	SurplusAllocation          SurplusAllocation `json:"surplus_allocation"`

	// Spending floor
	FloorAnnualReal float64 `json:"floor_annual_real"`

	// Reserve
	ReserveCashFraction float64 `json:"reserve_cash_fraction"`
	SafeRealReturn      float64 `json:"safe_real_return"`

	// Guardrails
	DD1  float64 `json:"dd1"`
	DD2  float64 `json:"dd2"`
	Cut1 float64 `json:"cut1"`
	Cut2 float64 `json:"cut2"`

	// Flex calibration constants (§4.6/§4.7)
	BaselineFlexPre   float64 `json:"baseline_flex_pre"`
	BaselineEForFlex  float64 `json:"baseline_e_for_flex"`
	BaselineFlexPost  float64 `json:"baseline_flex_post"`
	BaselineNetPostSS float64 `json:"baseline_net_post_ss"`

	// Reverse mortgage
	RMOpenAge         int     `json:"rm_open_age"`
	HomeValueReal     float64 `json:"home_value_real"`
	PLFAtOpen         float64 `json:"plf_at_open"`
	RMLimitRealGrowth float64 `json:"rm_limit_real_growth"`
	RMBalRealRate     float64 `json:"rm_bal_real_rate"`
	RMPartialCover    float64 `json:"rm_partial_cover"`
	RMRepayRate       float64 `json:"rm_repay_rate"`
	PayoffDDThreshold float64 `json:"payoff_dd_threshold"`

	// Loan
	LoanRealRate           float64 `json:"loan_real_rate"`
	LoanTermYears          int     `json:"loan_term_years"`
	LoanBucketRealReturn   float64 `json:"loan_bucket_real_return"`
	LoanBucketUseDD        float64 `json:"loan_bucket_use_dd"`
	LoanBucketPartialCover float64 `json:"loan_bucket_partial_cover"`

	// Sweep lists
	StartPortfolios  []float64 `json:"start_portfolios"`
	ReserveYearsList []float64 `json:"reserve_years_list"`
	LoanAmounts      []float64 `json:"loan_amounts"`

	// Debug (supplemented, §SPEC_FULL "Supplemented features")
	Debug DebugConfig `json:"debug"`
}

// DebugConfig gates the optional per-year state trace for path 0, which
// is logged only when kernel.SetVerbose(true) is also in effect.
type DebugConfig struct {
	TraceFirstPath bool `json:"trace_first_path"`
}

// Horizon returns the number of simulated years: 99 - start_age + 1.
func (c *Config) Horizon() int {
	return 99 - c.StartAge + 1
}

// GridPoint is one point of the sweep's Cartesian product.
type GridPoint struct {
	StartPortfolio float64
	ReserveYears   float64
	LoanAmount     float64
}
