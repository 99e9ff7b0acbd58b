package engine

import (
	"sort"
	"strings"

	"finpulse/internal/core"
)

// Raw product feeds disagree on naming; these fragments map free-text product
// types onto the uniform obligation kinds.
var (
	creditCardHints = []string{"credit", "кредитная", "credit_card"}
	mortgageHints   = []string{"mortgage", "ипотека"}
	loanHints       = []string{"loan", "кредит", "заем", "займ"}
	overdraftHints  = []string{"overdraft", "овердрафт"}
)

// normalizeAgreements maps raw agreements onto the uniform loan-like record.
// A "card" product is promoted to credit_card when its name carries a credit
// hint or its outstanding amount is positive; debit cards arrive with a zero
// or negative amount in the source feed.
func normalizeAgreements(agreements []core.Agreement) []core.Obligation {
	obligations := make([]core.Obligation, 0, len(agreements))
	for _, raw := range agreements {
		obligations = append(obligations, normalizeAgreement(raw))
	}
	sort.Slice(obligations, func(i, j int) bool { return obligations[i].ID < obligations[j].ID })
	return obligations
}

func normalizeAgreement(raw core.Agreement) core.Obligation {
	productType := strings.ToLower(strings.TrimSpace(raw.ProductType))
	name := strings.ToLower(raw.Name)

	var kind core.ProductKind
	switch {
	case containsAny(productType, mortgageHints):
		kind = core.KindMortgage
	case containsAny(productType, overdraftHints):
		kind = core.KindOverdraft
	case productType == "credit_card":
		kind = core.KindCreditCard
	case strings.Contains(productType, "card"):
		if containsAny(name, creditCardHints) || raw.Amount.IsPositive() {
			kind = core.KindCreditCard
		} else {
			kind = core.KindCard
		}
	case containsAny(productType, loanHints):
		kind = core.KindLoan
	default:
		kind = core.KindLoan
	}

	status := core.ObligationClosed
	switch strings.ToLower(raw.Status) {
	case "active", "in_arrears":
		status = core.ObligationActive
	}

	return core.Obligation{
		ID:             raw.ID,
		BankID:         raw.BankID,
		Kind:           kind,
		Name:           raw.Name,
		Outstanding:    raw.Amount.NonNegative(),
		AnnualRatePct:  raw.AnnualRatePct,
		MonthlyPayment: raw.MonthlyPayment.NonNegative(),
		TermMonths:     raw.TermMonths,
		StartDate:      raw.StartDate,
		EndDate:        raw.EndDate,
		Status:         status,
	}
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

// activeObligations filters to the obligations that participate in the
// payment pipeline.
func activeObligations(obligations []core.Obligation) []core.Obligation {
	active := make([]core.Obligation, 0, len(obligations))
	for _, o := range obligations {
		if o.Status == core.ObligationActive && o.IsDebt() {
			active = append(active, o)
		}
	}
	return active
}

// aggregateDebt sums outstanding amounts over active debt obligations,
// split into the loan and card subtotals.
func aggregateDebt(obligations []core.Obligation) core.DebtBreakdown {
	var breakdown core.DebtBreakdown
	for _, o := range activeObligations(obligations) {
		if o.Kind == core.KindCreditCard {
			breakdown.Cards = breakdown.Cards.Add(o.Outstanding)
		} else {
			breakdown.Loans = breakdown.Loans.Add(o.Outstanding)
		}
	}
	breakdown.Total = breakdown.Loans.Add(breakdown.Cards)
	return breakdown
}

// liquidBalance sums balances over active checking/savings accounts. Each
// account contributes at most its non-negative balance; an overdrawn account
// never subtracts from spendable money.
func liquidBalance(accounts []core.Account) core.Money {
	var total core.Money
	for _, a := range accounts {
		if a.IsLiquid() {
			total = total.Add(a.Balance.NonNegative())
		}
	}
	return total
}

// debtByBank groups active debt obligations by owning bank.
func debtByBank(obligations []core.Obligation) []core.BankAggregate {
	totals := make(map[string]*core.BankAggregate)
	for _, o := range activeObligations(obligations) {
		agg, ok := totals[o.BankID]
		if !ok {
			agg = &core.BankAggregate{BankID: o.BankID}
			totals[o.BankID] = agg
		}
		agg.Total = agg.Total.Add(o.Outstanding)
		agg.Count++
	}
	return sortAggregates(totals)
}

// balanceByBank groups liquid accounts by owning bank.
func balanceByBank(accounts []core.Account) []core.BankAggregate {
	totals := make(map[string]*core.BankAggregate)
	for _, a := range accounts {
		if !a.IsLiquid() {
			continue
		}
		agg, ok := totals[a.BankID]
		if !ok {
			agg = &core.BankAggregate{BankID: a.BankID}
			totals[a.BankID] = agg
		}
		agg.Total = agg.Total.Add(a.Balance.NonNegative())
		agg.Count++
	}
	return sortAggregates(totals)
}

func sortAggregates(totals map[string]*core.BankAggregate) []core.BankAggregate {
	out := make([]core.BankAggregate, 0, len(totals))
	for _, agg := range totals {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BankID < out[j].BankID })
	return out
}
