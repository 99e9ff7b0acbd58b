package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finpulse/internal/core"
)

func TestApplyPaymentReducesOutstandingAndBalance(t *testing.T) {
	snap := baseSnapshot()

	ov, err := NewOverlay().ApplyPayment(snap, "ob-loan", cents(500_000))
	require.NoError(t, err)
	require.Equal(t, uint64(1), ov.Version())

	eff := ov.Apply(snap)
	require.Equal(t, cents(17_500_000), eff.Agreements[0].Amount)
	require.Equal(t, cents(8_000_000), eff.Accounts[0].Balance)

	// The base snapshot is untouched.
	require.Equal(t, cents(18_000_000), snap.Agreements[0].Amount)
	require.Equal(t, cents(8_500_000), snap.Accounts[0].Balance)
}

func TestApplyPaymentNeverGoesNegative(t *testing.T) {
	snap := baseSnapshot()
	snap.Agreements[0].Amount = cents(300_000)
	snap.Accounts[0].Balance = cents(200_000)

	// Pay more than both the outstanding amount and the available cash.
	ov, err := NewOverlay().ApplyPayment(snap, "ob-loan", cents(1_000_000))
	require.NoError(t, err)

	eff := ov.Apply(snap)
	require.True(t, eff.Agreements[0].Amount.IsZero())
	require.True(t, eff.Accounts[0].Balance.IsZero())
	require.False(t, eff.Accounts[0].Balance.IsNegative())
}

func TestApplyPaymentPrefersObligationBank(t *testing.T) {
	snap := baseSnapshot()
	snap.Banks = append(snap.Banks, core.Bank{ID: "beta", Name: "Beta"})
	snap.Accounts = append(snap.Accounts, core.Account{
		ID: "b1", BankID: "beta", Balance: cents(9_000_000), Currency: "RUB",
		Status: core.AccountActive, Category: core.CategoryChecking,
	})

	// Beta holds more cash, but the loan lives at alfa so alfa pays first.
	ov, err := NewOverlay().ApplyPayment(snap, "ob-loan", cents(100_000))
	require.NoError(t, err)

	eff := ov.Apply(snap)
	require.Equal(t, cents(8_400_000), eff.Accounts[0].Balance)
	require.Equal(t, cents(9_000_000), eff.Accounts[1].Balance)
}

func TestApplyPaymentSpillsAcrossAccounts(t *testing.T) {
	snap := baseSnapshot()
	snap.Accounts[0].Balance = cents(50_000)
	snap.Banks = append(snap.Banks, core.Bank{ID: "beta", Name: "Beta"})
	snap.Accounts = append(snap.Accounts, core.Account{
		ID: "b1", BankID: "beta", Balance: cents(70_000), Currency: "RUB",
		Status: core.AccountActive, Category: core.CategoryChecking,
	})

	ov, err := NewOverlay().ApplyPayment(snap, "ob-loan", cents(90_000))
	require.NoError(t, err)

	eff := ov.Apply(snap)
	require.True(t, eff.Accounts[0].Balance.IsZero())
	require.Equal(t, cents(30_000), eff.Accounts[1].Balance)
}

func TestApplyPaymentErrors(t *testing.T) {
	snap := baseSnapshot()

	_, err := NewOverlay().ApplyPayment(snap, "missing", cents(100))
	require.ErrorIs(t, err, core.ErrUnknownObligation)

	_, err = NewOverlay().ApplyPayment(snap, "ob-loan", core.Money{})
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = NewOverlay().ApplyPayment(snap, "ob-loan", cents(-100))
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	// A disabled bank's obligations cannot be paid.
	off := NewOverlay().SetBankEnabled("alfa", false)
	_, err = off.ApplyPayment(snap, "ob-loan", cents(100))
	require.ErrorIs(t, err, core.ErrUnknownObligation)
}

func TestOverlayValueSemantics(t *testing.T) {
	snap := baseSnapshot()

	base := NewOverlay()
	paid, err := base.ApplyPayment(snap, "ob-loan", cents(100_000))
	require.NoError(t, err)

	// The prior overlay is unaffected by the mutation.
	require.Equal(t, uint64(0), base.Version())
	require.Equal(t, cents(8_500_000), base.Apply(snap).Accounts[0].Balance)
	require.Equal(t, cents(8_400_000), paid.Apply(snap).Accounts[0].Balance)
}

func TestBankDisableFiltersSnapshot(t *testing.T) {
	snap := baseSnapshot()
	snap.Banks = append(snap.Banks, core.Bank{ID: "beta", Name: "Beta"})
	snap.Accounts = append(snap.Accounts, core.Account{
		ID: "b1", BankID: "beta", Balance: cents(100), Status: core.AccountActive, Category: core.CategoryChecking,
	})
	snap.Transactions = append(snap.Transactions, core.Transaction{
		BankID: "beta", AccountID: "b1", BookedOn: core.NewDate(2025, 3, 1),
		Amount: cents(100), Direction: core.Debit, Merchant: "x",
	})

	eff := NewOverlay().SetBankEnabled("beta", false).Apply(snap)
	require.Len(t, eff.Banks, 1)
	require.Len(t, eff.Accounts, 1)
	require.Len(t, eff.Transactions, 3)
	for _, tx := range eff.Transactions {
		require.Equal(t, "alfa", tx.BankID)
	}
}

func TestAddSpend(t *testing.T) {
	ov, err := NewOverlay().AddSpend(cents(1_500))
	require.NoError(t, err)
	ov, err = ov.AddSpend(cents(500))
	require.NoError(t, err)
	require.Equal(t, cents(2_000), ov.SpentToday())

	_, err = ov.AddSpend(core.Money{})
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	cleared := ov.ResetSpend()
	require.True(t, cleared.SpentToday().IsZero())
	require.Equal(t, cents(2_000), ov.SpentToday())
}
