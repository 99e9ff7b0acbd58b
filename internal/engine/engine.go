package engine

import (
	"finpulse/internal/core"
)

// ComputeMetrics runs the full derivation pipeline over the snapshot with the
// session overlay folded in and returns the complete recommendation bundle.
// The same snapshot, overlay and settings always produce the same record
// apart from the computation timestamp.
func (e *Engine) ComputeMetrics(snap core.Snapshot, ov Overlay, settings Settings) core.MetricsRecord {
	if !settings.Valid() {
		settings = DefaultSettings()
	}

	now := e.now()
	today := core.DateOf(now)
	eff := ov.Apply(snap)

	obligations := normalizeAgreements(eff.Agreements)
	income, statuses := e.categorize(eff.Transactions, obligations, today)

	debt := aggregateDebt(obligations)
	liquid := liquidBalance(eff.Accounts)

	mdpToday, plans := e.scheduleMandatory(obligations, statuses, today)

	dueDates := make(map[string]core.Date, len(plans))
	for _, plan := range plans {
		dueDates[plan.ObligationID] = plan.DueDate
	}
	adp := e.allocateAdditional(mdpToday, obligations, income, settings, dueDates)

	sts, status, minBalance, daysUntilIncome := e.simulateCashFlow(liquid, income, plans, adp.Daily, today)

	spent := ov.SpentToday()
	health := e.composeHealth(mdpToday, income, sts, spent, debt, liquid, statuses)
	refinance := e.buildRefinance(obligations)

	return core.MetricsRecord{
		ComputedAt: now,

		STSDaily:        sts,
		STSStatus:       status,
		MinBalance:      minBalance,
		DaysUntilIncome: daysUntilIncome,
		SpentToday:      spent,

		MDPToday:      mdpToday,
		PerObligation: plans,

		ADP: adp,

		Debt:            debt,
		LiquidBalance:   liquid,
		DebtByBank:      debtByBank(obligations),
		BalanceByBank:   balanceByBank(eff.Accounts),
		Income:          income,
		PaymentStatuses: statuses,

		Health:    health,
		Refinance: refinance,
	}
}
