package core

import (
	"errors"
	"strings"
	"time"
)

const (
	AccountActive  AccountStatus = "active"
	AccountEnabled AccountStatus = "enabled"
	AccountBlocked AccountStatus = "blocked"
	AccountClosed  AccountStatus = "closed"

	CategoryChecking AccountCategory = "checking"
	CategorySavings  AccountCategory = "savings"
	CategoryOther    AccountCategory = "other"

	KindLoan       ProductKind = "loan"
	KindCreditCard ProductKind = "credit_card"
	KindMortgage   ProductKind = "mortgage"
	KindOverdraft  ProductKind = "overdraft"
	KindCard       ProductKind = "card"

	ObligationActive ObligationStatus = "active"
	ObligationClosed ObligationStatus = "closed"

	Credit Direction = "credit"
	Debit  Direction = "debit"
)

type (
	AccountStatus    string
	AccountCategory  string
	ProductKind      string
	ObligationStatus string
	Direction        string

	// Date is a civil date pinned to UTC midnight. All engine arithmetic
	// works on whole days; there is no timezone beyond "local day".
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Bank identifies a linked institution. The identifier is the grouping
	// key everywhere; display labels are a presentation concern.
	Bank struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Account struct {
		ID       string          `json:"id"`
		BankID   string          `json:"bank_id"`
		Balance  Money           `json:"balance"`
		Currency string          `json:"currency"`
		Status   AccountStatus   `json:"status"`
		Category AccountCategory `json:"category"`
	}

	// Agreement is a raw credit/loan agreement as delivered by a bank feed.
	// The normalizer turns it into an Obligation; nothing downstream of the
	// normalizer reads Agreements directly.
	Agreement struct {
		ID             string  `json:"id"`
		BankID         string  `json:"bank_id"`
		ProductType    string  `json:"product_type"`
		Name           string  `json:"name"`
		Amount         Money   `json:"amount"`
		AnnualRatePct  float64 `json:"annual_rate_pct"`
		MonthlyPayment Money   `json:"monthly_payment"`
		TermMonths     int     `json:"term_months"`
		StartDate      Date    `json:"start_date"`
		EndDate        Date    `json:"end_date"`
		Status         string  `json:"status"`
	}

	// Obligation is the uniform loan-like record produced by the normalizer.
	// Outstanding is never negative.
	Obligation struct {
		ID             string           `json:"id"`
		BankID         string           `json:"bank_id"`
		Kind           ProductKind      `json:"kind"`
		Name           string           `json:"name"`
		Outstanding    Money            `json:"outstanding"`
		AnnualRatePct  float64          `json:"annual_rate_pct"`
		MonthlyPayment Money            `json:"monthly_payment"`
		TermMonths     int              `json:"term_months"`
		StartDate      Date             `json:"start_date"`
		EndDate        Date             `json:"end_date"`
		Status         ObligationStatus `json:"status"`
	}

	// Transaction is read-only input to the categorizer; never mutated.
	Transaction struct {
		BankID    string    `json:"bank_id"`
		AccountID string    `json:"account_id"`
		BookedOn  Date      `json:"booked_on"`
		Amount    Money     `json:"amount"`
		Direction Direction `json:"direction"`
		Merchant  string    `json:"merchant"`
		Category  string    `json:"category"`
		Code      string    `json:"code"`
	}

	// Snapshot is one user's linked-bank data as last fetched. It is
	// immutable once built; simulated changes live in the session overlay.
	Snapshot struct {
		UserID       string        `json:"user_id"`
		Source       string        `json:"source"`
		FetchedAt    time.Time     `json:"fetched_at"`
		Banks        []Bank        `json:"banks"`
		Accounts     []Account     `json:"accounts"`
		Agreements   []Agreement   `json:"agreements"`
		Transactions []Transaction `json:"transactions"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyID           = errors.New("empty identifier")
	ErrEmptyBank         = errors.New("empty bank identifier")
	ErrUnknownBank       = errors.New("unknown bank")
	ErrUnknownObligation = errors.New("unknown obligation")
	ErrSnapshotNotFound  = errors.New("snapshot not found")
)

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// Today returns the current UTC calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonths returns the date n months later, clamped to the last day of the
// target month when the source day does not exist there.
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Time.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// MonthKey returns the calendar month of d in YYYY-MM form, the grouping key
// used for per-month income aggregation.
func (d Date) MonthKey() string {
	return d.Time.Format("2006-01")
}

// SameMonth reports whether both dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// DaysInMonth returns the number of days in d's calendar month.
func (d Date) DaysInMonth() int {
	return time.Date(d.Year(), time.Month(d.Month())+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MarshalJSON encodes the date as "YYYY-MM-DD"; the zero date encodes as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	*d = Date{Time: t.UTC()}
	return nil
}

// IsLiquid reports whether the account's balance counts toward spendable
// money: a checking or savings account that is active or enabled. Credit
// facilities never qualify.
func (a Account) IsLiquid() bool {
	statusOK := a.Status == AccountActive || a.Status == AccountEnabled
	categoryOK := a.Category == CategoryChecking || a.Category == CategorySavings
	return statusOK && categoryOK
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.BankID) == "" {
		return ErrEmptyBank
	}
	return nil
}

// IsDebt reports whether the obligation's outstanding amount counts toward
// total debt. Plain cards (debit) carry no debt.
func (o Obligation) IsDebt() bool {
	switch o.Kind {
	case KindLoan, KindCreditCard, KindMortgage, KindOverdraft:
		return true
	}
	return false
}

// IsLoanLike reports whether the obligation is an installment loan for
// refinance purposes.
func (o Obligation) IsLoanLike() bool {
	return o.Kind == KindLoan || o.Kind == KindMortgage
}

func (g Agreement) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(g.BankID) == "" {
		return ErrEmptyBank
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.BankID) == "" {
		return ErrEmptyBank
	}
	if t.BookedOn.IsZero() {
		return errors.New("transaction date cannot be zero")
	}
	if t.Direction != Credit && t.Direction != Debit {
		return errors.New("invalid transaction direction")
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks referential integrity of a snapshot: every account,
// agreement and transaction must point at a listed bank.
func (s Snapshot) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return errors.New("snapshot user id cannot be empty")
	}
	banks := make(map[string]bool, len(s.Banks))
	for _, b := range s.Banks {
		if strings.TrimSpace(b.ID) == "" {
			return ErrEmptyBank
		}
		banks[b.ID] = true
	}
	for _, a := range s.Accounts {
		if err := a.Validate(); err != nil {
			return err
		}
		if !banks[a.BankID] {
			return ErrUnknownBank
		}
	}
	for _, g := range s.Agreements {
		if err := g.Validate(); err != nil {
			return err
		}
		if !banks[g.BankID] {
			return ErrUnknownBank
		}
	}
	for _, t := range s.Transactions {
		if err := t.Validate(); err != nil {
			return err
		}
		if !banks[t.BankID] {
			return ErrUnknownBank
		}
	}
	return nil
}
