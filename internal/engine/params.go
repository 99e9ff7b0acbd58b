// Package engine derives the daily recommendation bundle from a snapshot of
// linked-bank data: the mandatory daily payment (MDP), the strategy-driven
// additional payment (ADP), the safe-to-spend figure (STS), the aggregate
// health score, and the refinance insight.
//
// The pipeline is a strict chain — categorize → normalize/aggregate → MDP →
// ADP → STS — followed by the health and refinance composers. Every call
// recomputes from scratch; no stage caches state between calls.
package engine

import (
	"time"

	"finpulse/internal/core"
)

const (
	RiskConservative Risk = "conservative"
	RiskBalanced     Risk = "balanced"
	RiskAggressive   Risk = "aggressive"

	StrategyAvalanche Strategy = "avalanche"
	StrategySnowball  Strategy = "snowball"

	GoalPayDebts  Goal = "pay_debts"
	GoalSaveMoney Goal = "save_money"
)

type (
	Risk     string
	Strategy string
	Goal     string

	// Settings are the per-session policy choices that steer the allocator.
	Settings struct {
		Strategy Strategy
		Risk     Risk
		Goal     Goal
	}

	// Params are the engine's tunable constants. Each one covers a DataGap
	// or DegenerateArithmetic case with a documented default; none of them
	// is authoritative in the source feeds.
	Params struct {
		// HorizonDays is the length of the cash-flow simulation.
		HorizonDays int
		// SafetyBuffer is the minimum reserve the simulator refuses to
		// spend below.
		SafetyBuffer core.Money
		// SalaryKeywords flag a credit transaction as salary-like when one
		// of them appears in its descriptors.
		SalaryKeywords []string
		// AmountTolerance is the relative tolerance used when matching
		// recurring amounts (salary recurrence, payment inference).
		AmountTolerance float64
		// PaymentMatchRatio is the fraction of the planned payment a debit
		// must reach to count as the period's payment.
		PaymentMatchRatio float64
		// MinPrincipalShare is the monthly principal fraction assumed when
		// an obligation has no schedule figure.
		MinPrincipalShare float64
		// FallbackDueDay is the day of month used when an obligation has no
		// start date to anchor its due day.
		FallbackDueDay int
		// IncomeCapShare caps ADP at this share of monthly income, spread
		// over 30 days.
		IncomeCapShare float64
		// ADPCeiling is the absolute daily cap applied when income is
		// unknown, so a zero income never produces an unbounded allocation.
		ADPCeiling core.Money
		// RefiRateDiscount is subtracted from the debt-weighted average rate
		// to propose a consolidated rate, in percentage points.
		RefiRateDiscount float64
		// RefiTermMonths is the consolidation term used for the refinance
		// estimate.
		RefiTermMonths int
		// BreakevenFallbackMonths is reported when the current monthly
		// payment is non-positive and a breakeven cannot be derived.
		BreakevenFallbackMonths int
	}
)

// DefaultParams returns the documented defaults. Deployments override them
// through configuration.
func DefaultParams() Params {
	return Params{
		HorizonDays:             30,
		SafetyBuffer:            core.Money{Cents: 500000},
		SalaryKeywords:          []string{"salary", "payroll", "зарплата", "аванс", "премия", "wage"},
		AmountTolerance:         0.10,
		PaymentMatchRatio:       0.90,
		MinPrincipalShare:       0.01,
		FallbackDueDay:          15,
		IncomeCapShare:          0.20,
		ADPCeiling:              core.Money{Cents: 1000000},
		RefiRateDiscount:        2.0,
		RefiTermMonths:          36,
		BreakevenFallbackMonths: 3,
	}
}

// DefaultSettings is the policy used when a session has not chosen one.
func DefaultSettings() Settings {
	return Settings{
		Strategy: StrategyAvalanche,
		Risk:     RiskBalanced,
		Goal:     GoalPayDebts,
	}
}

// Valid reports whether every field of the settings names a known policy.
func (s Settings) Valid() bool {
	_, strategyOK := targetSelectors[s.Strategy]
	_, riskOK := riskCoefficients[s.Risk]
	goalOK := s.Goal == GoalPayDebts || s.Goal == GoalSaveMoney
	return strategyOK && riskOK && goalOK
}

// Engine computes metrics records. It is stateless apart from its parameters
// and safe for concurrent use.
type Engine struct {
	params Params
	now    func() time.Time
}

// New creates an engine with the given parameters.
func New(params Params) *Engine {
	return &Engine{params: params, now: time.Now}
}

// Params returns the engine's parameters.
func (e *Engine) Params() Params {
	return e.params
}
