package kernel

// Cut returns the flex-cut fraction for a single path's drawdown,
// per spec §4.5: cut2 once dd crosses dd2, cut1 once it crosses dd1,
// otherwise 0. Unlike the Guyton-Klinger ratio-to-initial-rate guardrail
// (_examples/guido4f-PensionForecastDesktop/guardrails.go), the bands
// here are fixed thresholds on drawdown itself, not on a withdrawal-rate
// ratio.
func Cut(dd, dd1, dd2, cut1, cut2 float64) float64 {
	if dd >= dd2 {
		return cut2
	}
	if dd >= dd1 {
		return cut1
	}
	return 0
}

// CutAll applies Cut lane-wise.
func CutAll(dd []float64, dd1, dd2, cut1, cut2 float64) []float64 {
	out := make([]float64, len(dd))
	for i, d := range dd {
		out[i] = Cut(d, dd1, dd2, cut1, cut2)
	}
	return out
}
