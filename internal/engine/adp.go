package engine

import (
	"fmt"
	"sort"

	"finpulse/internal/core"
)

// riskCoefficients scale the mandatory payment into the extra-payment budget.
var riskCoefficients = map[Risk]float64{
	RiskConservative: 0.1,
	RiskBalanced:     0.3,
	RiskAggressive:   0.5,
}

// TargetSelector is the strategy interface for choosing which obligation the
// additional payment goes to. Each implementation encapsulates one payoff
// strategy and must be deterministic under ties.
type TargetSelector interface {
	// Select returns the target obligation and a short reason, or false when
	// no obligation qualifies.
	Select(obligations []core.Obligation, dueDates map[string]core.Date) (core.Obligation, string, bool)
}

// AvalancheSelector targets the highest nominal rate; ties break toward the
// larger outstanding balance, then the lexically smaller identifier.
type AvalancheSelector struct{}

func (AvalancheSelector) Select(obligations []core.Obligation, _ map[string]core.Date) (core.Obligation, string, bool) {
	if len(obligations) == 0 {
		return core.Obligation{}, "", false
	}
	ranked := make([]core.Obligation, len(obligations))
	copy(ranked, obligations)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.AnnualRatePct != b.AnnualRatePct {
			return a.AnnualRatePct > b.AnnualRatePct
		}
		if a.Outstanding.Cents != b.Outstanding.Cents {
			return a.Outstanding.Cents > b.Outstanding.Cents
		}
		return a.ID < b.ID
	})
	return ranked[0], "highest rate", true
}

// SnowballSelector targets the smallest outstanding balance; ties break
// toward the earlier due date, then the lexically smaller identifier.
type SnowballSelector struct{}

func (SnowballSelector) Select(obligations []core.Obligation, dueDates map[string]core.Date) (core.Obligation, string, bool) {
	if len(obligations) == 0 {
		return core.Obligation{}, "", false
	}
	ranked := make([]core.Obligation, len(obligations))
	copy(ranked, obligations)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Outstanding.Cents != b.Outstanding.Cents {
			return a.Outstanding.Cents < b.Outstanding.Cents
		}
		da, db := dueDates[a.ID], dueDates[b.ID]
		if !da.Equal(db.Time) {
			return da.Before(db.Time)
		}
		return a.ID < b.ID
	})
	return ranked[0], "smallest balance", true
}

// targetSelectors maps strategies to their selectors.
var targetSelectors = map[Strategy]TargetSelector{
	StrategyAvalanche: AvalancheSelector{},
	StrategySnowball:  SnowballSelector{},
}

// GetTargetSelector returns the selector for a payoff strategy.
func GetTargetSelector(strategy Strategy) (TargetSelector, error) {
	selector, ok := targetSelectors[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown payoff strategy: %s", strategy)
	}
	return selector, nil
}

// allocateAdditional computes the strategy-driven extra daily payment.
//
// The raw budget is the mandatory total scaled by the risk coefficient,
// capped at IncomeCapShare of monthly income spread over 30 days. With no
// income signal the absolute ceiling applies instead, so a zero income never
// divides or blows the allocation up. In savings mode the same arithmetic
// yields the daily deposit contribution and no obligation is targeted.
func (e *Engine) allocateAdditional(mdpToday core.Money, obligations []core.Obligation, income core.IncomeProfile, st Settings, dueDates map[string]core.Date) core.AllocationResult {
	coeff, ok := riskCoefficients[st.Risk]
	if !ok {
		coeff = riskCoefficients[RiskBalanced]
	}
	raw := mdpToday.MulRate(coeff)

	var capped core.Money
	if income.Monthly.IsPositive() {
		maxDaily := income.Monthly.MulRate(e.params.IncomeCapShare).Div(30)
		capped = core.MinMoney(raw, maxDaily)
	} else {
		capped = core.MinMoney(raw, e.params.ADPCeiling)
	}

	result := core.AllocationResult{
		Daily:    capped,
		Strategy: string(st.Strategy),
		Risk:     string(st.Risk),
	}

	if st.Goal == GoalSaveMoney {
		result.Reason = "daily savings contribution"
		return result
	}

	active := activeObligations(obligations)
	selector, err := GetTargetSelector(st.Strategy)
	if err != nil {
		selector = AvalancheSelector{}
		result.Strategy = string(StrategyAvalanche)
	}
	target, reason, ok := selector.Select(active, dueDates)
	if !ok {
		result.Daily = core.Money{}
		return result
	}

	// Never allocate past the target's remaining balance.
	result.Daily = core.MinMoney(result.Daily, target.Outstanding)
	result.TargetID = target.ID
	result.TargetBankID = target.BankID
	result.Reason = reason
	return result
}
