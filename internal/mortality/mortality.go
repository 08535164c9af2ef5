// Package mortality holds the fixed SSA-derived life table and turns a
// per-path failure-year vector into death-weighted and horizon success
// probabilities.
package mortality

// Row is one age's entry in the life table: qx is the conditional
// probability of death within the year given alive at the start of it, lx
// is the number alive at the start of the age out of the table's cohort.
type Row struct {
	Age int
	Qx  float64
	Lx  float64
}

// Table is the built-in SSA male 2022 life table, conditional on alive at
// age 53, ages 53..99 inclusive (47 rows).
var Table = []Row{
	{53, .007073, 88825}, {54, .007675, 88196}, {55, .008348, 87520},
	{56, .009051, 86789}, {57, .009822, 86003}, {58, .010669, 85159},
	{59, .011548, 84250}, {60, .012458, 83277}, {61, .013403, 82240},
	{62, .014450, 81138}, {63, .015571, 79965}, {64, .016737, 78720},
	{65, .017897, 77402}, {66, .019017, 76017}, {67, .020213, 74572},
	{68, .021569, 73064}, {69, .023088, 71488}, {70, .024828, 69838},
	{71, .026705, 68104}, {72, .028761, 66285}, {73, .031116, 64379},
	{74, .033861, 62376}, {75, .037088, 60263}, {76, .041126, 58028},
	{77, .045241, 55642}, {78, .049793, 53125}, {79, .054768, 50479},
	{80, .060660, 47715}, {81, .067027, 44820}, {82, .073999, 41816},
	{83, .081737, 38722}, {84, .090458, 35557}, {85, .100525, 32340},
	{86, .111793, 29089}, {87, .124494, 25837}, {88, .138398, 22621},
	{89, .153207, 19490}, {90, .169704, 16504}, {91, .187963, 13703},
	{92, .208395, 11128}, {93, .230808, 8809}, {94, .253914, 6776},
	{95, .277402, 5055}, {96, .300882, 3653}, {97, .324326, 2554},
	{98, .347332, 1726}, {99, .369430, 1126},
}

// DeathWeights returns p_death[age] = dx / sum(dx) across the table, where
// dx = lx * qx.
func DeathWeights() map[int]float64 {
	dx := make(map[int]float64, len(Table))
	total := 0.0
	for _, r := range Table {
		d := r.Lx * r.Qx
		dx[r.Age] = d
		total += d
	}
	weights := make(map[int]float64, len(Table))
	if total <= 0 {
		return weights
	}
	for age, d := range dx {
		weights[age] = d / total
	}
	return weights
}

// Aggregate holds the per-grid-point mortality-weighted outputs.
type Aggregate struct {
	PSuccessDeathWeighted float64
	PSuccessToAge99       float64
}

// Compute computes ruin_by_t, ruin_by_age, p_dw, and p99 from the
// per-path fail-year vector (fail_idx[i] == horizon means path i never
// failed). startAge is the model's age at t=0; horizon is the number of
// simulated years.
func Compute(failIdx []int, startAge, horizon int) Aggregate {
	n := len(failIdx)
	if n == 0 || horizon <= 0 {
		return Aggregate{}
	}

	ruinByT := make([]float64, horizon)
	for t := 0; t < horizon; t++ {
		count := 0
		for _, fi := range failIdx {
			if fi <= t {
				count++
			}
		}
		ruinByT[t] = float64(count) / float64(n)
	}

	weights := DeathWeights()
	pdw := 0.0
	for age, w := range weights {
		t := age - startAge
		if t < 0 || t >= horizon {
			t = horizon - 1
		}
		pdw += w * (1 - ruinByT[t])
	}

	survived := 0
	for _, fi := range failIdx {
		if fi >= horizon {
			survived++
		}
	}
	p99 := float64(survived) / float64(n)

	return Aggregate{
		PSuccessDeathWeighted: pdw,
		PSuccessToAge99:       p99,
	}
}
