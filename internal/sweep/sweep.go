// Package sweep drives the Cartesian product over
// (start_portfolio x reserve_years x loan_amount) per §4.9, evaluating
// each grid point in either single or optimize mode and emitting results
// in a stable, worker-pool-friendly order.
//
// The dispatch loop follows the teacher's cmd/server/main.go pattern of
// a bounded worker pool draining a work-item channel into an ordered
// results slice, generalized from one job type (a single scenario run)
// to one grid point per job.
package sweep

import (
	"context"
	"runtime"
	"sync"

	"github.com/retiresim/retiresim-go/internal/kernel"
	"github.com/retiresim/retiresim-go/internal/optimizer"
	"github.com/retiresim/retiresim-go/internal/returns"
	"github.com/retiresim/retiresim-go/internal/scenario"
)

// PointResult is one grid point's output: its coordinates, the metrics
// at the evaluated spending level, and (in optimize mode) the solved E*.
type PointResult struct {
	Grid       scenario.GridPoint
	E          float64
	Metrics    kernel.Metrics
	Iterations int
	Capped     bool
}

// Grid builds the full Cartesian product of the scenario's sweep lists,
// in the stable nested order start_portfolio > reserve_years > loan_amount.
func Grid(cfg *scenario.Config) []scenario.GridPoint {
	sp := cfg.StartPortfolios
	if len(sp) == 0 {
		sp = []float64{0}
	}
	ry := cfg.ReserveYearsList
	if len(ry) == 0 {
		ry = []float64{1}
	}
	la := cfg.LoanAmounts
	if len(la) == 0 {
		la = []float64{0}
	}

	points := make([]scenario.GridPoint, 0, len(sp)*len(ry)*len(la))
	for _, s := range sp {
		for _, r := range ry {
			for _, l := range la {
				points = append(points, scenario.GridPoint{StartPortfolio: s, ReserveYears: r, LoanAmount: l})
			}
		}
	}
	return points
}

// Run evaluates every grid point and returns results in the same order
// Grid produced them, regardless of which worker finished first.
func Run(ctx context.Context, cfg *scenario.Config) ([]PointResult, error) {
	points := Grid(cfg)
	out := make([]PointResult, len(points))

	r := returns.Generate(cfg.Seed, cfg.NSims, cfg.Horizon(), cfg.Mu, cfg.Sigma)

	workers := runtime.GOMAXPROCS(0)
	if workers > len(points) {
		workers = len(points)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				out[idx] = evaluate(cfg, points[idx], r)
			}
		}()
	}

	for i := range points {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return out, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	return out, ctx.Err()
}

func evaluate(cfg *scenario.Config, grid scenario.GridPoint, r [][]float64) PointResult {
	if cfg.Mode == scenario.ModeOptimize {
		res := optimizer.Search(cfg, grid, r)
		return PointResult{
			Grid:       grid,
			E:          float64(res.EStar),
			Metrics:    res.Metrics,
			Iterations: res.Iterations,
			Capped:     res.BracketCapped,
		}
	}
	m := kernel.Run(cfg, grid, float64(cfg.EFixed), r)
	return PointResult{Grid: grid, E: float64(cfg.EFixed), Metrics: m, Iterations: 1}
}
