package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finpulse/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testSnapshot(userID string, fetchedAt time.Time) core.Snapshot {
	return core.Snapshot{
		UserID:    userID,
		Source:    "fixture",
		FetchedAt: fetchedAt,
		Banks:     []core.Bank{{ID: "alfa", Name: "Alfa"}},
		Accounts: []core.Account{
			{ID: "a1", BankID: "alfa", Balance: core.Money{Cents: 8_500_000}, Currency: "RUB", Status: core.AccountActive, Category: core.CategoryChecking},
		},
		Agreements: []core.Agreement{
			{
				ID: "ob-loan", BankID: "alfa", ProductType: "loan", Name: "Auto Loan",
				Amount: core.Money{Cents: 18_000_000}, AnnualRatePct: 12.5,
				MonthlyPayment: core.Money{Cents: 367_500}, TermMonths: 60,
				StartDate: core.NewDate(2024, 6, 25), Status: "active",
			},
		},
		Transactions: []core.Transaction{
			{
				BankID: "alfa", AccountID: "a1", BookedOn: core.NewDate(2025, 2, 10),
				Amount: core.Money{Cents: 300_000}, Direction: core.Credit, Merchant: "ACME Corp Salary",
			},
		},
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	want := testSnapshot("user-1", time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC))

	if err := store.SaveSnapshot(ctx, want); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := store.LoadSnapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if got.UserID != want.UserID || got.Source != want.Source {
		t.Errorf("header = %s/%s, want %s/%s", got.UserID, got.Source, want.UserID, want.Source)
	}
	if !got.FetchedAt.Equal(want.FetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, want.FetchedAt)
	}
	if len(got.Banks) != 1 || got.Banks[0].ID != "alfa" {
		t.Errorf("banks = %+v", got.Banks)
	}
	if len(got.Accounts) != 1 || got.Accounts[0].Balance.Cents != 8_500_000 {
		t.Errorf("accounts = %+v", got.Accounts)
	}
	if len(got.Agreements) != 1 {
		t.Fatalf("agreements = %+v", got.Agreements)
	}
	g := got.Agreements[0]
	if g.AnnualRatePct != 12.5 || g.TermMonths != 60 {
		t.Errorf("agreement = %+v", g)
	}
	if !g.StartDate.Equal(core.NewDate(2024, 6, 25).Time) {
		t.Errorf("StartDate = %v", g.StartDate)
	}
	if !g.EndDate.IsZero() {
		t.Errorf("EndDate = %v, want zero", g.EndDate)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].Direction != core.Credit {
		t.Errorf("transactions = %+v", got.Transactions)
	}
}

func TestSaveSnapshotReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testSnapshot("user-1", time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC))
	if err := store.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	second := testSnapshot("user-1", time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC))
	second.Accounts[0].Balance = core.Money{Cents: 1_000}
	second.Transactions = nil
	if err := store.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("SaveSnapshot replace: %v", err)
	}

	got, err := store.LoadSnapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.Accounts[0].Balance.Cents != 1_000 {
		t.Errorf("balance = %d, want replaced 1000", got.Accounts[0].Balance.Cents)
	}
	if len(got.Transactions) != 0 {
		t.Errorf("transactions = %+v, want none", got.Transactions)
	}
}

func TestLoadSnapshotNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadSnapshot(context.Background(), "nobody")
	if !errors.Is(err, core.ErrSnapshotNotFound) {
		t.Errorf("err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSaveSnapshotRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	bad := testSnapshot("user-1", time.Now())
	bad.Accounts[0].BankID = "ghost"
	if err := store.SaveSnapshot(context.Background(), bad); err == nil {
		t.Fatal("expected validation error for unknown bank")
	}
}

func TestListStale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := testSnapshot("user-old", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	fresh := testSnapshot("user-fresh", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	if err := store.SaveSnapshot(ctx, old); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := store.SaveSnapshot(ctx, fresh); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	stale, err := store.ListStale(ctx, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListStale: %v", err)
	}
	if len(stale) != 1 || stale[0] != "user-old" {
		t.Errorf("stale = %v, want [user-old]", stale)
	}
}
