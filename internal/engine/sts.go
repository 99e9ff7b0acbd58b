package engine

import (
	"finpulse/internal/core"
)

// simulateCashFlow walks the balance forward one day at a time over the
// horizon, subtracting obligation payments on their due dates and adding
// predicted income, and tracks the lowest point reached. Free cash is that
// minimum less the safety buffer and the additional payment, so the
// recommended daily spend never assumes money the account will at some point
// not have.
func (e *Engine) simulateCashFlow(liquid core.Money, income core.IncomeProfile, plans []core.ObligationPlan, adpDaily core.Money, today core.Date) (sts core.Money, status core.SpendStatus, minBalance core.Money, daysUntilIncome int) {
	balance := liquid
	minBalance = balance

	// Payment due dates inside the horizon. A due date within the first few
	// days recurs one month later, still inside a 30-day window.
	dueByDate := make(map[core.Date]core.Money)
	horizonEnd := today.AddDays(e.params.HorizonDays)
	for _, plan := range plans {
		for due := plan.DueDate; !due.After(horizonEnd.Time); due = due.AddMonths(1) {
			if due.After(today.Time) {
				dueByDate[due] = dueByDate[due].Add(plan.MonthlyPayment)
			}
		}
	}

	regular := income.Cadence == core.CadenceMonthly || income.Cadence == core.CadenceBiweekly
	nextIncome := income.NextWindowStart

	for day := 1; day <= e.params.HorizonDays; day++ {
		simDate := today.AddDays(day)
		if due, ok := dueByDate[simDate]; ok {
			balance = balance.Sub(due)
		}
		if regular && !nextIncome.IsZero() && simDate.Equal(nextIncome.Time) {
			balance = balance.Add(income.Monthly)
			if income.Cadence == core.CadenceMonthly {
				nextIncome = nextIncome.AddMonths(1)
			} else {
				nextIncome = nextIncome.AddDays(14)
			}
		}
		minBalance = core.MinMoney(minBalance, balance)
	}

	freeCash := minBalance.Sub(e.params.SafetyBuffer).Sub(adpDaily)

	daysUntilIncome = e.params.HorizonDays
	if regular && !income.NextWindowStart.IsZero() {
		daysUntilIncome = today.DaysUntil(income.NextWindowStart)
		if daysUntilIncome < 1 {
			daysUntilIncome = 1
		}
	}

	if !freeCash.IsPositive() {
		return core.Money{}, core.SpendDanger, minBalance, daysUntilIncome
	}
	return freeCash.Div(daysUntilIncome), core.SpendOK, minBalance, daysUntilIncome
}
