package kernel

import (
	"testing"

	"github.com/retiresim/retiresim-go/internal/returns"
	"github.com/retiresim/retiresim-go/internal/scenario"
)

func baseConfig() *scenario.Config {
	return &scenario.Config{
		StartAge:            65,
		PartialYearFraction: 1.0,
		Mu:                  0.04,
		Sigma:               0.12,
		Seed:                1,
		NSims:               200,
		Mode:                scenario.ModeSingle,
		EFixed:              40000,
		SSAnnualReal:        20000,
		SSStartAge:          67,
		FloorAnnualReal:     20000,
		ReserveCashFraction: 0.5,
		SafeRealReturn:      0.01,
		DD1:                 0.15,
		DD2:                 0.30,
		Cut1:                0.10,
		Cut2:                0.25,
		BaselineFlexPre:     10000,
		BaselineEForFlex:    40000,
		BaselineFlexPost:    10000,
		BaselineNetPostSS:   20000,
		RMOpenAge:           80,
		HomeValueReal:       400000,
		PLFAtOpen:           0.5,
		RMLimitRealGrowth:   0.04,
		RMBalRealRate:       0.05,
		RMPartialCover:      0.5,
		RMRepayRate:         0.1,
		PayoffDDThreshold:   0.2,
		LoanRealRate:        0.03,
		LoanTermYears:       15,
		LoanBucketRealReturn:   0.02,
		LoanBucketUseDD:        0.2,
		LoanBucketPartialCover: 0.5,
	}
}

func gridFor(cfg *scenario.Config, startPortfolio, reserveYears, loanAmount float64) scenario.GridPoint {
	return scenario.GridPoint{StartPortfolio: startPortfolio, ReserveYears: reserveYears, LoanAmount: loanAmount}
}

func TestRunDeterministic(t *testing.T) {
	cfg := baseConfig()
	grid := gridFor(cfg, 1_000_000, 3, 0)
	r := returns.Generate(cfg.Seed, cfg.NSims, cfg.Horizon(), cfg.Mu, cfg.Sigma)

	m1 := Run(cfg, grid, 40000, r)
	m2 := Run(cfg, grid, 40000, r)

	if m1 != m2 {
		t.Fatalf("Run is not deterministic: %+v vs %+v", m1, m2)
	}
}

func TestRunFailureMonotoneInSpending(t *testing.T) {
	cfg := baseConfig()
	grid := gridFor(cfg, 800_000, 3, 0)
	r := returns.Generate(cfg.Seed, cfg.NSims, cfg.Horizon(), cfg.Mu, cfg.Sigma)

	low := Run(cfg, grid, 30000, r)
	high := Run(cfg, grid, 70000, r)

	if high.PSuccessDeathWeighted > low.PSuccessDeathWeighted+1e-9 {
		t.Fatalf("higher spending should not yield higher success: low=%v high=%v",
			low.PSuccessDeathWeighted, high.PSuccessDeathWeighted)
	}
}

func TestRunNoLoanHighSuccessHasNonNegativeMedianNetWorth(t *testing.T) {
	cfg := baseConfig()
	grid := gridFor(cfg, 1_000_000, 3, 0)
	r := returns.Generate(cfg.Seed, cfg.NSims, cfg.Horizon(), cfg.Mu, cfg.Sigma)

	m := Run(cfg, grid, 40000, r)
	if m.TotalNetEndMedian < 0 && m.PSuccessDeathWeighted > 0.99 {
		t.Fatalf("unexpected combination of high success and negative net worth")
	}
}

func TestRunRMBalanceNeverNegative(t *testing.T) {
	cfg := baseConfig()
	grid := gridFor(cfg, 500_000, 2, 0)
	r := returns.Generate(cfg.Seed, cfg.NSims, cfg.Horizon(), cfg.Mu, cfg.Sigma)

	m := Run(cfg, grid, 50000, r)
	if m.RMBalanceEndMedian < -1e-6 {
		t.Fatalf("median RM balance went negative: %v", m.RMBalanceEndMedian)
	}
}

func TestRunWithLoanToFullTermDoesNotPanic(t *testing.T) {
	cfg := baseConfig()
	cfg.RMOpenAge = 120 // push RM open past horizon so the loan runs its full course
	grid := gridFor(cfg, 1_200_000, 3, 200000)
	r := returns.Generate(cfg.Seed, cfg.NSims, cfg.Horizon(), cfg.Mu, cfg.Sigma)

	_ = Run(cfg, grid, 40000, r)
	// The loan's own closed-form balance is deterministic and exercised
	// directly in internal/loanmath; here we only check the kernel
	// doesn't panic or misbehave catastrophically with a loan present.
}

func TestRunSuccessCountingIdentity(t *testing.T) {
	cfg := baseConfig()
	grid := gridFor(cfg, 1_500_000, 3, 0)
	r := returns.Generate(cfg.Seed, cfg.NSims, cfg.Horizon(), cfg.Mu, cfg.Sigma)

	m := Run(cfg, grid, 35000, r)
	if m.PSuccessToAge99 < 0 || m.PSuccessToAge99 > 1 {
		t.Fatalf("p_success_to_age_99 out of [0,1]: %v", m.PSuccessToAge99)
	}
	if m.PSuccessDeathWeighted < 0 || m.PSuccessDeathWeighted > 1 {
		t.Fatalf("p_success_death_weighted out of [0,1]: %v", m.PSuccessDeathWeighted)
	}
}

func TestRunZeroSimsIsSafe(t *testing.T) {
	cfg := baseConfig()
	cfg.NSims = 0
	grid := gridFor(cfg, 1_000_000, 3, 0)
	r := returns.Generate(cfg.Seed, cfg.NSims, cfg.Horizon(), cfg.Mu, cfg.Sigma)

	m := Run(cfg, grid, 40000, r)
	if m.PSuccessDeathWeighted != 0 {
		t.Fatalf("expected zero metrics with zero paths, got %+v", m)
	}
}
