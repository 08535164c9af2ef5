package kernel

// TakeFrom implements the §4.4 account primitive across all lanes: for
// lane i, take = min(remainder[i], max(arr[i], 0)); arr[i] -= take;
// remainder[i] -= take. remainder is both the requested amount on entry
// and the shortfall on return. It does not clip arr at 0 — a lane that
// started negative is left untouched (take is 0 for it).
func TakeFrom(arr []float64, remainder []float64) {
	for i := range arr {
		available := arr[i]
		if available < 0 {
			available = 0
		}
		take := remainder[i]
		if take > available {
			take = available
		}
		arr[i] -= take
		remainder[i] -= take
	}
}

// TakeFromWhere is TakeFrom restricted to lanes where mask is true;
// lanes outside the mask keep whatever remainder they already carry.
func TakeFromWhere(arr []float64, remainder []float64, mask []bool) {
	for i := range arr {
		if !mask[i] {
			continue
		}
		available := arr[i]
		if available < 0 {
			available = 0
		}
		take := remainder[i]
		if take > available {
			take = available
		}
		arr[i] -= take
		remainder[i] -= take
	}
}

// Draw is the scalar form of the account primitive, used where the
// funding order itself (not just eligibility) varies lane by lane.
func Draw(balance *float64, amount float64) (shortfall float64) {
	available := *balance
	if available < 0 {
		available = 0
	}
	take := amount
	if take > available {
		take = available
	}
	*balance -= take
	return amount - take
}

// DrawFromRMWhere draws from the reverse-mortgage credit line, capped by
// available headroom (rmLimit - rmBal), for lanes where mask is true.
func DrawFromRMWhere(rmBal, rmLimit []float64, remainder []float64, mask []bool) {
	for i := range rmBal {
		if !mask[i] {
			continue
		}
		avail := rmLimit[i] - rmBal[i]
		if avail < 0 {
			avail = 0
		}
		take := remainder[i]
		if take > avail {
			take = avail
		}
		rmBal[i] += take
		remainder[i] -= take
	}
}

// DrawFromRM is the scalar form used in the partitioned RM-payoff step.
func DrawFromRM(rmBal, rmLimit *float64, amount float64) (shortfall float64) {
	avail := *rmLimit - *rmBal
	if avail < 0 {
		avail = 0
	}
	take := amount
	if take > avail {
		take = avail
	}
	*rmBal += take
	return amount - take
}
