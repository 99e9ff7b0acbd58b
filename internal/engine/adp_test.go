package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finpulse/internal/core"
)

func activeLoan(id string, outstanding int64, rate float64) core.Obligation {
	return core.Obligation{
		ID: id, BankID: "alfa", Kind: core.KindLoan, Status: core.ObligationActive,
		Outstanding: cents(outstanding), AnnualRatePct: rate,
	}
}

func TestAvalancheSelector(t *testing.T) {
	obligations := []core.Obligation{
		activeLoan("low-rate", 5_000_000, 12.5),
		activeLoan("high-rate", 450_000, 24.9),
	}

	target, reason, ok := AvalancheSelector{}.Select(obligations, nil)
	require.True(t, ok)
	require.Equal(t, "high-rate", target.ID)
	require.Equal(t, "highest rate", reason)

	// Rate tie breaks toward the larger balance, then the identifier.
	tied := []core.Obligation{
		activeLoan("b", 100, 20),
		activeLoan("a", 100, 20),
		activeLoan("big", 200, 20),
	}
	target, _, _ = AvalancheSelector{}.Select(tied, nil)
	require.Equal(t, "big", target.ID)
}

func TestSnowballSelector(t *testing.T) {
	obligations := []core.Obligation{
		activeLoan("big", 5_000_000, 24.9),
		activeLoan("small", 450_000, 12.5),
	}

	target, reason, ok := SnowballSelector{}.Select(obligations, nil)
	require.True(t, ok)
	require.Equal(t, "small", target.ID)
	require.Equal(t, "smallest balance", reason)

	// Balance tie breaks toward the earlier due date.
	tied := []core.Obligation{
		activeLoan("later", 100, 10),
		activeLoan("sooner", 100, 10),
	}
	dues := map[string]core.Date{
		"later":  core.NewDate(2025, 3, 25),
		"sooner": core.NewDate(2025, 3, 12),
	}
	target, _, _ = SnowballSelector{}.Select(tied, dues)
	require.Equal(t, "sooner", target.ID)
}

func TestGetTargetSelector(t *testing.T) {
	_, err := GetTargetSelector(StrategyAvalanche)
	require.NoError(t, err)
	_, err = GetTargetSelector(StrategySnowball)
	require.NoError(t, err)
	_, err = GetTargetSelector("lottery")
	require.Error(t, err)
}

func TestAllocateAdditionalIncomeCap(t *testing.T) {
	e := New(DefaultParams())
	obligations := []core.Obligation{activeLoan("ob-1", 18_000_000, 12.5)}
	income := core.IncomeProfile{Monthly: cents(300_000), Cadence: core.CadenceMonthly}

	// Raw budget 30_000 is clamped to 20% of income over 30 days.
	got := e.allocateAdditional(cents(100_000), obligations, income, DefaultSettings(), nil)
	require.Equal(t, cents(2_000), got.Daily)
	require.Equal(t, "ob-1", got.TargetID)
}

func TestAllocateAdditionalCeilingWithoutIncome(t *testing.T) {
	e := New(DefaultParams())
	obligations := []core.Obligation{activeLoan("ob-1", 18_000_000, 12.5)}

	got := e.allocateAdditional(cents(100_000), obligations, core.IncomeProfile{}, DefaultSettings(), nil)
	require.Equal(t, cents(30_000), got.Daily)

	// A huge mandatory payment hits the absolute ceiling.
	got = e.allocateAdditional(cents(10_000_000), obligations, core.IncomeProfile{}, DefaultSettings(), nil)
	require.Equal(t, e.params.ADPCeiling, got.Daily)
}

func TestAllocateAdditionalRiskCoefficients(t *testing.T) {
	e := New(DefaultParams())
	obligations := []core.Obligation{activeLoan("ob-1", 18_000_000, 12.5)}

	for risk, want := range map[Risk]int64{
		RiskConservative: 1_000,
		RiskBalanced:     3_000,
		RiskAggressive:   5_000,
	} {
		st := DefaultSettings()
		st.Risk = risk
		got := e.allocateAdditional(cents(10_000), obligations, core.IncomeProfile{}, st, nil)
		require.Equal(t, cents(want), got.Daily, "risk %s", risk)
	}
}

func TestAllocateAdditionalSavingsGoal(t *testing.T) {
	e := New(DefaultParams())
	obligations := []core.Obligation{activeLoan("ob-1", 18_000_000, 12.5)}

	st := DefaultSettings()
	st.Goal = GoalSaveMoney
	got := e.allocateAdditional(cents(10_000), obligations, core.IncomeProfile{}, st, nil)
	require.Equal(t, cents(3_000), got.Daily)
	require.Empty(t, got.TargetID)
	require.Equal(t, "daily savings contribution", got.Reason)
}

func TestAllocateAdditionalNoTargets(t *testing.T) {
	e := New(DefaultParams())

	got := e.allocateAdditional(cents(10_000), nil, core.IncomeProfile{}, DefaultSettings(), nil)
	require.True(t, got.Daily.IsZero())
	require.Empty(t, got.TargetID)
}

func TestAllocateAdditionalCappedAtOutstanding(t *testing.T) {
	e := New(DefaultParams())
	obligations := []core.Obligation{activeLoan("ob-1", 1_000, 12.5)}

	got := e.allocateAdditional(cents(100_000), obligations, core.IncomeProfile{}, DefaultSettings(), nil)
	require.Equal(t, cents(1_000), got.Daily)
}
