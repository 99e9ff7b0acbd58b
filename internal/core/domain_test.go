package core

import (
	"testing"
	"time"
)

func TestDateAddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name  string
		start Date
		n     int
		want  Date
	}{
		{"plain month", NewDate(2025, 3, 15), 1, NewDate(2025, 4, 15)},
		{"year rollover", NewDate(2025, 12, 10), 1, NewDate(2026, 1, 10)},
		{"clamp to feb", NewDate(2025, 1, 31), 1, NewDate(2025, 2, 28)},
		{"clamp to 30-day month", NewDate(2025, 5, 31), 1, NewDate(2025, 6, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.AddMonths(tt.n)
			if !got.Equal(tt.want.Time) {
				t.Errorf("AddMonths(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestDateDaysUntil(t *testing.T) {
	a := NewDate(2025, 6, 1)
	b := NewDate(2025, 6, 16)
	if got := a.DaysUntil(b); got != 15 {
		t.Errorf("DaysUntil = %d, want 15", got)
	}
	if got := b.DaysUntil(a); got != -15 {
		t.Errorf("reverse DaysUntil = %d, want -15", got)
	}
}

func TestDateOfTruncates(t *testing.T) {
	instant := time.Date(2025, 8, 29, 17, 45, 12, 0, time.UTC)
	d := DateOf(instant)
	if d.Year() != 2025 || d.Month() != 8 || d.Day() != 29 {
		t.Errorf("DateOf = %v", d)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Errorf("DateOf did not truncate to midnight: %v", d.Time)
	}
}

func TestAccountIsLiquid(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    bool
	}{
		{"active checking", Account{Status: AccountActive, Category: CategoryChecking}, true},
		{"enabled savings", Account{Status: AccountEnabled, Category: CategorySavings}, true},
		{"blocked checking", Account{Status: AccountBlocked, Category: CategoryChecking}, false},
		{"closed savings", Account{Status: AccountClosed, Category: CategorySavings}, false},
		{"active other", Account{Status: AccountActive, Category: CategoryOther}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.account.IsLiquid(); got != tt.want {
				t.Errorf("IsLiquid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObligationIsDebt(t *testing.T) {
	for _, kind := range []ProductKind{KindLoan, KindCreditCard, KindMortgage, KindOverdraft} {
		if !(Obligation{Kind: kind}).IsDebt() {
			t.Errorf("kind %s should count as debt", kind)
		}
	}
	if (Obligation{Kind: KindCard}).IsDebt() {
		t.Error("plain card should not count as debt")
	}
}

func TestSnapshotValidate(t *testing.T) {
	valid := Snapshot{
		UserID: "u1",
		Banks:  []Bank{{ID: "alpha"}},
		Accounts: []Account{
			{ID: "acc1", BankID: "alpha", Status: AccountActive, Category: CategoryChecking},
		},
		Agreements: []Agreement{
			{ID: "agr1", BankID: "alpha", ProductType: "loan"},
		},
		Transactions: []Transaction{
			{BankID: "alpha", BookedOn: NewDate(2025, 8, 1), Direction: Debit, Amount: Money{Cents: 100}},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}

	dangling := valid
	dangling.Accounts = []Account{{ID: "acc1", BankID: "ghost", Status: AccountActive, Category: CategoryChecking}}
	if err := dangling.Validate(); err == nil {
		t.Error("account referencing unknown bank should fail validation")
	}

	noUser := valid
	noUser.UserID = ""
	if err := noUser.Validate(); err == nil {
		t.Error("empty user id should fail validation")
	}
}
