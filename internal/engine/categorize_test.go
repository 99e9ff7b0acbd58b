package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finpulse/internal/core"
)

func salaryTx(y, m, d int, amount int64, merchant string) core.Transaction {
	return core.Transaction{
		BankID: "alfa", AccountID: "a1", BookedOn: core.NewDate(y, m, d),
		Amount: cents(amount), Direction: core.Credit, Merchant: merchant,
	}
}

func TestIncomeProfileMonthlyByKeyword(t *testing.T) {
	e := New(DefaultParams())
	today := core.NewDate(2025, 3, 10)
	txs := []core.Transaction{
		salaryTx(2024, 12, 10, 300_000, "ACME Corp Salary"),
		salaryTx(2025, 1, 10, 300_000, "ACME Corp Salary"),
		salaryTx(2025, 2, 10, 300_000, "ACME Corp Salary"),
	}

	profile, _ := e.categorize(txs, nil, today)
	require.Equal(t, cents(300_000), profile.Monthly)
	require.Equal(t, core.CadenceMonthly, profile.Cadence)
	require.True(t, profile.Confident)
	require.Equal(t, core.NewDate(2025, 3, 13), profile.NextWindowStart)
	require.Equal(t, core.NewDate(2025, 3, 16), profile.NextWindowEnd)
}

func TestIncomeProfileRecurringWithoutKeyword(t *testing.T) {
	e := New(DefaultParams())
	today := core.NewDate(2025, 3, 10)

	// Same counterpart, steady amount, monthly spacing. No keyword anywhere.
	txs := []core.Transaction{
		salaryTx(2024, 12, 5, 280_000, "Horizon Consulting LLC"),
		salaryTx(2025, 1, 5, 285_000, "Horizon Consulting LLC"),
		salaryTx(2025, 2, 5, 280_000, "Horizon Consulting LLC"),
	}

	profile, _ := e.categorize(txs, nil, today)
	require.Equal(t, core.CadenceMonthly, profile.Cadence)
	require.Equal(t, cents(280_000), profile.Monthly)
}

func TestIncomeProfileBiweekly(t *testing.T) {
	e := New(DefaultParams())
	today := core.NewDate(2025, 3, 10)
	txs := []core.Transaction{
		salaryTx(2025, 1, 3, 150_000, "Payroll Deposit"),
		salaryTx(2025, 1, 17, 150_000, "Payroll Deposit"),
		salaryTx(2025, 1, 31, 150_000, "Payroll Deposit"),
		salaryTx(2025, 2, 14, 150_000, "Payroll Deposit"),
		salaryTx(2025, 2, 28, 150_000, "Payroll Deposit"),
	}

	profile, _ := e.categorize(txs, nil, today)
	require.Equal(t, core.CadenceBiweekly, profile.Cadence)
	require.Equal(t, core.NewDate(2025, 3, 14), profile.NextWindowStart)
}

func TestIncomeProfileIrregular(t *testing.T) {
	e := New(DefaultParams())
	today := core.NewDate(2025, 3, 10)

	t.Run("no history", func(t *testing.T) {
		profile, _ := e.categorize(nil, nil, today)
		require.Equal(t, core.CadenceIrregular, profile.Cadence)
		require.False(t, profile.Confident)
		require.True(t, profile.Monthly.IsZero())
		require.Equal(t, today.AddDays(1), profile.NextWindowStart)
		require.Equal(t, today.AddDays(30), profile.NextWindowEnd)
	})

	t.Run("noisy spacing", func(t *testing.T) {
		txs := []core.Transaction{
			salaryTx(2024, 12, 2, 100_000, "gig payout salary"),
			salaryTx(2024, 12, 20, 90_000, "gig payout salary"),
			salaryTx(2025, 1, 9, 120_000, "gig payout salary"),
			salaryTx(2025, 2, 25, 80_000, "gig payout salary"),
		}
		profile, _ := e.categorize(txs, nil, today)
		require.Equal(t, core.CadenceIrregular, profile.Cadence)
		require.False(t, profile.Confident)
		// The median of completed-month sums still feeds downstream stages.
		require.True(t, profile.Monthly.IsPositive())
	})
}

func TestPaymentStatusMatchedDebit(t *testing.T) {
	e := New(DefaultParams())
	today := core.NewDate(2025, 3, 10)
	obligation := core.Obligation{
		ID: "ob-loan", BankID: "alfa", Kind: core.KindLoan, Status: core.ObligationActive,
		Name: "Auto Loan", Outstanding: cents(18_000_000), AnnualRatePct: 12.5,
		StartDate: core.NewDate(2024, 6, 25),
	}
	txs := []core.Transaction{
		{
			BankID: "alfa", AccountID: "a1", BookedOn: core.NewDate(2025, 3, 5),
			Amount: cents(367_500), Direction: core.Debit, Merchant: "AUTO LOAN PAYMENT",
		},
	}

	_, statuses := e.categorize(txs, []core.Obligation{obligation}, today)
	require.Len(t, statuses, 1)
	st := statuses[0]
	require.True(t, st.PaidInPeriod)
	require.False(t, st.Overdue)
	require.Equal(t, core.NewDate(2025, 3, 5), st.LastPayment)
	require.Equal(t, core.SignalInferred, st.Source)
}

func TestPaymentStatusRejectsSmallOrUnrelatedDebits(t *testing.T) {
	e := New(DefaultParams())
	today := core.NewDate(2025, 3, 10)
	obligation := core.Obligation{
		ID: "ob-loan", BankID: "alfa", Kind: core.KindLoan, Status: core.ObligationActive,
		Name: "Auto Loan", Outstanding: cents(18_000_000), AnnualRatePct: 12.5,
		StartDate: core.NewDate(2024, 6, 25),
	}
	txs := []core.Transaction{
		// Right descriptor, amount below the match threshold.
		{BankID: "alfa", BookedOn: core.NewDate(2025, 3, 5), Amount: cents(50_000), Direction: core.Debit, Merchant: "AUTO LOAN PAYMENT"},
		// Right amount, unrelated descriptor.
		{BankID: "alfa", BookedOn: core.NewDate(2025, 3, 6), Amount: cents(367_500), Direction: core.Debit, Merchant: "Grocery Megastore"},
	}

	_, statuses := e.categorize(txs, []core.Obligation{obligation}, today)
	require.False(t, statuses[0].PaidInPeriod)
}

func TestPaymentStatusOverdue(t *testing.T) {
	e := New(DefaultParams())
	today := core.NewDate(2025, 3, 10)
	obligation := core.Obligation{
		ID: "ob-loan", BankID: "alfa", Kind: core.KindLoan, Status: core.ObligationActive,
		Name: "Auto Loan", Outstanding: cents(18_000_000), AnnualRatePct: 12.5,
		StartDate: core.NewDate(2024, 6, 5),
	}

	_, statuses := e.categorize(nil, []core.Obligation{obligation}, today)
	require.True(t, statuses[0].Overdue)
	require.False(t, statuses[0].PaidInPeriod)
}

func TestPaymentStatusContractSource(t *testing.T) {
	e := New(DefaultParams())
	obligation := core.Obligation{
		ID: "ob-card", Kind: core.KindCreditCard, Status: core.ObligationActive,
		Outstanding: cents(450_000), MonthlyPayment: cents(25_000),
	}

	_, statuses := e.categorize(nil, []core.Obligation{obligation}, core.NewDate(2025, 3, 10))
	require.Equal(t, core.SignalContract, statuses[0].Source)
	require.Equal(t, cents(25_000), statuses[0].Planned)
}

func TestMedianAndStddev(t *testing.T) {
	require.Equal(t, 0.0, median(nil))
	require.Equal(t, 3.0, median([]float64{3}))
	require.Equal(t, 2.5, median([]float64{1, 2, 3, 4}))
	require.Equal(t, 0.0, stddev([]float64{5}))
	require.InDelta(t, 1.0, stddev([]float64{1, 2, 3}), 1e-9)
}
