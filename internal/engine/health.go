package engine

import (
	"math"

	"finpulse/internal/core"
)

// Sub-score weights: debt burden dominates, then safe spending, overdue
// state, and liquidity.
const (
	weightDTI       = 0.4
	weightSpend     = 0.3
	weightOverdue   = 0.2
	weightLiquidity = 0.1
)

// composeHealth folds the debt, spending, overdue and liquidity signals into
// a single 0-100 score with up to three explanatory reasons.
func (e *Engine) composeHealth(mdpToday core.Money, income core.IncomeProfile, sts core.Money, spentToday core.Money, debt core.DebtBreakdown, liquid core.Money, statuses []core.PaymentStatus) core.HealthReport {
	dti := dtiScore(mdpToday, income.Monthly, debt.Total)
	spend := spendScore(sts, spentToday)
	overdue := overdueScore(statuses)
	liquidity := liquidityScore(liquid, debt.Total)

	weighted := dti*weightDTI + spend*weightSpend + overdue*weightOverdue + liquidity*weightLiquidity
	score := int(math.Round(weighted))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	status := core.HealthNeedsPlan
	switch {
	case score >= 70:
		status = core.HealthCalm
	case score >= 40:
		status = core.HealthAttention
	}

	// Reasons are prioritized debt burden, then reserves, then spending
	// pace; at most three.
	var reasons []string
	if dti < 100 {
		reasons = append(reasons, "debt payments take a large share of income")
	}
	if liquidity < 100 {
		reasons = append(reasons, "cash reserves are thin relative to debt")
	}
	if spend < 100 {
		reasons = append(reasons, "today's spending is ahead of the safe daily pace")
	}
	if overdue < 100 && len(reasons) < 3 {
		reasons = append(reasons, "an obligation payment looks overdue")
	}
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}

	return core.HealthReport{
		Score:          score,
		Status:         status,
		Reasons:        reasons,
		DTIScore:       dti,
		SpendScore:     spend,
		OverdueScore:   overdue,
		LiquidityScore: liquidity,
	}
}

// dtiScore rates the debt-to-income ratio (MDP over a month against monthly
// income): 100 at or below 0.3, 0 at or above 0.5, linear in between. With no
// income signal the score is 100 when there is no debt to service and 0
// otherwise, the conservative reading of an unknown denominator.
func dtiScore(mdpToday, monthlyIncome, totalDebt core.Money) float64 {
	if !monthlyIncome.IsPositive() {
		if totalDebt.IsPositive() {
			return 0
		}
		return 100
	}
	ratio := mdpToday.MulRate(30).Float() / monthlyIncome.Float()
	return bandScore(ratio, 0.3, 0.5)
}

// spendScore rates how much of today's safe spend is still available.
func spendScore(sts, spent core.Money) float64 {
	if !sts.IsPositive() {
		return 0
	}
	remaining := sts.Sub(spent)
	if remaining.Cents >= sts.Cents {
		return 100
	}
	if !remaining.IsPositive() {
		return 0
	}
	return 100 * remaining.Float() / sts.Float()
}

// overdueScore is the binary overdue signal from the categorizer.
func overdueScore(statuses []core.PaymentStatus) float64 {
	for _, st := range statuses {
		if st.Overdue {
			return 0
		}
	}
	return 100
}

// liquidityScore rates reserves against total debt: 100 at a ratio of 0.3 or
// better, 0 at zero, linear in between. No debt means full marks.
func liquidityScore(liquid, totalDebt core.Money) float64 {
	if !totalDebt.IsPositive() {
		return 100
	}
	ratio := liquid.Float() / totalDebt.Float()
	if ratio >= 0.3 {
		return 100
	}
	if ratio <= 0 {
		return 0
	}
	return 100 * ratio / 0.3
}

// bandScore interpolates linearly from 100 at or below lo to 0 at or above hi.
func bandScore(ratio, lo, hi float64) float64 {
	if ratio <= lo {
		return 100
	}
	if ratio >= hi {
		return 0
	}
	return 100 * (hi - ratio) / (hi - lo)
}
