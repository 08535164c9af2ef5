package mortality

import "testing"

func TestDeathWeightsSumToOne(t *testing.T) {
	weights := DeathWeights()
	if len(weights) != len(Table) {
		t.Fatalf("expected %d weights, got %d", len(Table), len(weights))
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("death weights should sum to 1, got %v", sum)
	}
}

func TestComputeNeverFailed(t *testing.T) {
	horizon := 47
	failIdx := make([]int, 1000)
	for i := range failIdx {
		failIdx[i] = horizon
	}
	agg := Compute(failIdx, 53, horizon)
	if agg.PSuccessToAge99 != 1.0 {
		t.Errorf("expected p99 = 1.0, got %v", agg.PSuccessToAge99)
	}
	if agg.PSuccessDeathWeighted < 0.999 {
		t.Errorf("expected p_dw ~= 1.0, got %v", agg.PSuccessDeathWeighted)
	}
}

func TestComputeAllFailedImmediately(t *testing.T) {
	horizon := 47
	failIdx := make([]int, 1000)
	agg := Compute(failIdx, 53, horizon)
	if agg.PSuccessToAge99 != 0.0 {
		t.Errorf("expected p99 = 0.0, got %v", agg.PSuccessToAge99)
	}
	if agg.PSuccessDeathWeighted != 0.0 {
		t.Errorf("expected p_dw = 0.0, got %v", agg.PSuccessDeathWeighted)
	}
}

func TestComputeIdentityWithFullWeightInRange(t *testing.T) {
	// With every path failing at year 10, ruin_by_age is 0 for ages
	// 53..62 and 1 from age 63 on; every table age is inside the model
	// range, so p_dw is exactly the death weight of ages 53..62.
	horizon := 47
	failIdx := make([]int, 500)
	for i := range failIdx {
		failIdx[i] = 10
	}
	agg := Compute(failIdx, 53, horizon)
	if agg.PSuccessToAge99 != 0.0 {
		t.Errorf("expected p99 = 0 (nobody survives full horizon), got %v", agg.PSuccessToAge99)
	}
	if agg.PSuccessDeathWeighted <= 0 || agg.PSuccessDeathWeighted >= 1 {
		t.Errorf("expected p_dw strictly between 0 and 1, got %v", agg.PSuccessDeathWeighted)
	}
	want := 0.0
	for age, w := range DeathWeights() {
		if age-53 < 10 {
			want += w
		}
	}
	if diff := agg.PSuccessDeathWeighted - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected p_dw = %v (death weight of ages 53..62), got %v", want, agg.PSuccessDeathWeighted)
	}
}
