package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/retiresim/retiresim-go/internal/scenario"
)

func TestHandleHealth(t *testing.T) {
	s := NewServer()
	mux := http.NewServeMux()
	s.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleSimulateRejectsInvalidScenario(t *testing.T) {
	s := NewServer()
	mux := http.NewServeMux()
	s.Register(mux)

	cfg := scenario.Config{StartAge: 65, DD1: 0.3, DD2: 0.2} // dd1 >= dd2 is invalid
	body, _ := json.Marshal(simulateRequest{Scenario: cfg})

	req := httptest.NewRequest(http.MethodPost, "/simulate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid scenario, got %d", rec.Code)
	}
}

func TestHandleSimulateHappyPath(t *testing.T) {
	s := NewServer()
	mux := http.NewServeMux()
	s.Register(mux)

	cfg := scenario.Config{
		StartAge:             90,
		PartialYearFraction:  1.0,
		Mu:                   0.04,
		Sigma:                0.1,
		Seed:                 1,
		NSims:                20,
		Mode:                 scenario.ModeSingle,
		EFixed:               30000,
		FloorAnnualReal:      20000,
		ReserveCashFraction:  0.5,
		SafeRealReturn:       0.01,
		DD1:                  0.15,
		DD2:                  0.30,
		Cut1:                 0.1,
		Cut2:                 0.25,
		BaselineEForFlex:     1,
		BaselineNetPostSS:    1,
		RMOpenAge:            200,
		PLFAtOpen:            0.5,
		LoanTermYears:        1,
		StartPortfolios:      []float64{500000},
		ReserveYearsList:     []float64{2},
		LoanAmounts:          []float64{0},
	}
	body, _ := json.Marshal(simulateRequest{RunID: "test-run", Scenario: cfg})

	req := httptest.NewRequest(http.MethodPost, "/simulate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp simulateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RunID != "test-run" {
		t.Fatalf("expected run_id to be echoed back, got %q", resp.RunID)
	}
	if resp.Status != "completed" {
		t.Fatalf("expected status completed, got %q", resp.Status)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 grid point, got %d", len(resp.Results))
	}
	if resp.TotalGridPoints != 1 {
		t.Fatalf("expected total_grid_points 1, got %d", resp.TotalGridPoints)
	}
}

func TestHandleSimulateGeneratesRunIDWhenAbsent(t *testing.T) {
	s := NewServer()
	mux := http.NewServeMux()
	s.Register(mux)

	cfg := scenario.Config{
		StartAge:            95,
		PartialYearFraction: 1.0,
		Mu:                  0.04,
		Sigma:               0.1,
		Seed:                2,
		NSims:               5,
		Mode:                scenario.ModeSingle,
		EFixed:              20000,
		FloorAnnualReal:     15000,
		ReserveCashFraction: 0.5,
		DD1:                 0.15,
		DD2:                 0.3,
		BaselineEForFlex:    1,
		BaselineNetPostSS:   1,
		RMOpenAge:           200,
		PLFAtOpen:           0.5,
		LoanTermYears:       1,
	}
	body, _ := json.Marshal(simulateRequest{Scenario: cfg})

	req := httptest.NewRequest(http.MethodPost, "/simulate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp simulateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RunID == "" {
		t.Fatalf("expected a generated run_id")
	}
}
