package engine

import (
	"finpulse/internal/core"
)

// plannedPayment is the obligation's expected payment for the current period:
// the explicit schedule figure when present, otherwise interest on the
// outstanding amount plus the configured amortization default. A fully repaid
// obligation plans nothing.
func (e *Engine) plannedPayment(o core.Obligation) core.Money {
	if o.Outstanding.IsZero() {
		return core.Money{}
	}
	if o.MonthlyPayment.IsPositive() {
		return o.MonthlyPayment
	}
	monthlyRate := o.AnnualRatePct / 100 / 12
	interest := o.Outstanding.MulRate(monthlyRate)
	principal := o.Outstanding.MulRate(e.params.MinPrincipalShare)
	return interest.Add(principal)
}

// dueDay is the obligation's payment day of month: the start date's day when
// known, else the configured fallback.
func (e *Engine) dueDay(o core.Obligation) int {
	if !o.StartDate.IsZero() {
		return o.StartDate.Day()
	}
	return e.params.FallbackDueDay
}

// nextDueDate rolls the obligation's due day forward to its next occurrence
// on or after today, clamping to short months.
func (e *Engine) nextDueDate(o core.Obligation, today core.Date) core.Date {
	day := e.dueDay(o)
	clamped := day
	if clamped > today.DaysInMonth() {
		clamped = today.DaysInMonth()
	}
	due := core.NewDate(today.Year(), today.Month(), clamped)
	if due.Before(today.Time) {
		next := core.NewDate(today.Year(), today.Month(), 1).AddMonths(1)
		clamped = day
		if clamped > next.DaysInMonth() {
			clamped = next.DaysInMonth()
		}
		due = core.NewDate(next.Year(), next.Month(), clamped)
	}
	return due
}

// scheduleMandatory computes today's required share of every active
// obligation's payment. The remaining amount collapses to zero once the
// categorizer confirms the period's payment.
func (e *Engine) scheduleMandatory(obligations []core.Obligation, statuses []core.PaymentStatus, today core.Date) (core.Money, []core.ObligationPlan) {
	byID := make(map[string]core.PaymentStatus, len(statuses))
	for _, st := range statuses {
		byID[st.ObligationID] = st
	}

	var total core.Money
	plans := make([]core.ObligationPlan, 0, len(obligations))
	for _, o := range activeObligations(obligations) {
		status, ok := byID[o.ID]
		planned := status.Planned
		if !ok {
			planned = e.plannedPayment(o)
		}

		due := e.nextDueDate(o, today)
		daysLeft := today.DaysUntil(due)
		if daysLeft < 1 {
			daysLeft = 1
		}

		remaining := planned
		if status.PaidInPeriod {
			remaining = core.Money{}
		}
		daily := remaining.Div(daysLeft)
		total = total.Add(daily)

		plans = append(plans, core.ObligationPlan{
			ObligationID:   o.ID,
			BankID:         o.BankID,
			Daily:          daily,
			MonthlyPayment: planned,
			DueDate:        due,
			DaysLeft:       daysLeft,
			Paid:           status.PaidInPeriod,
		})
	}
	return total, plans
}
