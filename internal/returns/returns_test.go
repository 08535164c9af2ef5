package returns

import "testing"

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(424242, 50, 10, 0.04, 0.10)
	b := Generate(424242, 50, 10, 0.04, 0.10)
	for i := range a {
		for t := range a[i] {
			if a[i][t] != b[i][t] {
				t.Fatalf("non-deterministic output at [%d][%d]: %v vs %v", i, t, a[i][t], b[i][t])
			}
		}
	}
}

func TestGenerateDifferentSeeds(t *testing.T) {
	a := Generate(1, 20, 10, 0.04, 0.10)
	b := Generate(2, 20, 10, 0.04, 0.10)
	same := true
	for i := range a {
		for t := range a[i] {
			if a[i][t] != b[i][t] {
				same = false
			}
		}
	}
	if same {
		t.Error("expected different seeds to produce different matrices")
	}
}

func TestGenerateClampedAtNeg99(t *testing.T) {
	// Large sigma should produce some very negative draws; none may go below -0.99.
	m := Generate(7, 500, 50, 0.0, 5.0)
	for i := range m {
		for t := range m[i] {
			if m[i][t] < -0.99 {
				t.Fatalf("return below clamp floor at [%d][%d]: %v", i, t, m[i][t])
			}
		}
	}
}

func TestGenerateShape(t *testing.T) {
	m := Generate(1, 7, 3, 0.04, 0.1)
	if len(m) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(m))
	}
	for _, row := range m {
		if len(row) != 3 {
			t.Fatalf("expected 3 columns, got %d", len(row))
		}
	}
}
