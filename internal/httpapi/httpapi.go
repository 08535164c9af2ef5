// Package httpapi exposes the sweep driver over HTTP: a health probe and
// a POST /simulate endpoint that accepts a scenario document and returns
// the grid of results.
//
// The CORS-for-any-origin middleware and route registration follow
// cmd/server/main.go's corsMiddleware/handleRoot pattern from the
// teacher; the JSON request/response shape and the run_id it stamps on
// each response are new to this domain.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/retiresim/retiresim-go/internal/scenario"
	"github.com/retiresim/retiresim-go/internal/sweep"
)

// Server holds no mutable state: every request is a self-contained
// scenario evaluation.
type Server struct{}

// NewServer constructs an httpapi.Server.
func NewServer() *Server { return &Server{} }

// corsMiddleware adds CORS headers and handles preflight requests.
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "content-type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// Register wires the server's routes onto mux with CORS applied.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", corsMiddleware(s.handleHealth))
	mux.HandleFunc("/simulate", corsMiddleware(s.handleSimulate))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// simulateRequest is the wire request body for POST /simulate: the
// scenario configuration plus an optional caller-supplied run_id.
type simulateRequest struct {
	RunID    string          `json:"run_id,omitempty"`
	Scenario scenario.Config `json:"scenario"`
}

// pointResponse is one grid point's wire response record, per §6's
// GridPointResult schema: grid coordinates, exactly one of
// E_real_per_year (single mode) or max_E_real_per_year (optimize mode),
// and the ten metric scalars, plus the guardrail-trigger-fraction
// diagnostic the SUPPLEMENTED FEATURES section adds to this record.
type pointResponse struct {
	StartPortfolio  float64 `json:"start_portfolio"`
	ReserveYears    float64 `json:"reserve_years"`
	LoanAmount      int     `json:"loan_amount"`
	ERealPerYear    *int    `json:"E_real_per_year,omitempty"`
	MaxERealPerYear *int    `json:"max_E_real_per_year,omitempty"`

	PSuccessDeathWeighted     float64 `json:"p_success_death_weighted"`
	PSuccessToAge99           float64 `json:"p_success_to_age_99"`
	MedianMaxDDRisky          float64 `json:"median_max_dd_risky"`
	MedianMaxDDTotal          float64 `json:"median_max_dd_total"`
	HomeEquityRemainingMedian float64 `json:"home_equity_remaining_median"`
	PAnyRMDraw                float64 `json:"p_any_rm_draw"`
	RMBalanceEndMedian        float64 `json:"rm_balance_end_median"`
	RiskyEndMedian            float64 `json:"risky_end_median"`
	TotalNetEndMedian         float64 `json:"total_net_end_median"`
	NetWorthEndMedian         float64 `json:"net_worth_end_median"`

	GuardrailCut1Frac float64 `json:"guardrail_cut1_frac"`
	GuardrailCut2Frac float64 `json:"guardrail_cut2_frac"`
}

// simulateResponse is the POST /simulate wire response body, per §6.
type simulateResponse struct {
	RunID           string          `json:"run_id,omitempty"`
	Status          string          `json:"status"`
	Results         []pointResponse `json:"results"`
	TotalGridPoints int             `json:"total_grid_points"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg := req.Scenario
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	results, err := sweep.Run(ctx, &cfg)
	if err != nil {
		http.Error(w, "simulation error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	points := make([]pointResponse, 0, len(results))
	for _, res := range results {
		m := res.Metrics
		pr := pointResponse{
			StartPortfolio:            res.Grid.StartPortfolio,
			ReserveYears:              res.Grid.ReserveYears,
			LoanAmount:                int(res.Grid.LoanAmount),
			PSuccessDeathWeighted:     m.PSuccessDeathWeighted,
			PSuccessToAge99:           m.PSuccessToAge99,
			MedianMaxDDRisky:          m.MedianMaxDDRisky,
			MedianMaxDDTotal:          m.MedianMaxDDTotal,
			HomeEquityRemainingMedian: m.HomeEquityRemainingMedian,
			PAnyRMDraw:                m.PAnyRMDraw,
			RMBalanceEndMedian:        m.RMBalanceEndMedian,
			RiskyEndMedian:            m.RiskyEndMedian,
			TotalNetEndMedian:         m.TotalNetEndMedian,
			NetWorthEndMedian:         m.NetWorthEndMedian,
			GuardrailCut1Frac:         m.GuardrailCut1Frac,
			GuardrailCut2Frac:         m.GuardrailCut2Frac,
		}
		eVal := int(res.E)
		if cfg.Mode == scenario.ModeOptimize {
			pr.MaxERealPerYear = &eVal
		} else {
			pr.ERealPerYear = &eVal
		}
		points = append(points, pr)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(simulateResponse{
		RunID:           runID,
		Status:          "completed",
		Results:         points,
		TotalGridPoints: len(points),
	})
}
