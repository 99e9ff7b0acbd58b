package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finpulse/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists one snapshot per user. Saving replaces the user's
// previous snapshot wholesale; snapshots are immutable rows, never patched.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot replaces the user's stored snapshot in a single transaction.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap core.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("validate snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE user_id = ?", snap.UserID); err != nil {
		return fmt.Errorf("delete previous snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (user_id, source, fetched_at) VALUES (?, ?, ?)",
		snap.UserID, snap.Source, snap.FetchedAt.UTC()); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, b := range snap.Banks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO banks (user_id, id, name) VALUES (?, ?, ?)",
			snap.UserID, b.ID, b.Name); err != nil {
			return fmt.Errorf("insert bank %s: %w", b.ID, err)
		}
	}

	for _, a := range snap.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (user_id, id, bank_id, balance_cents, currency, status, category)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.UserID, a.ID, a.BankID, a.Balance.Cents, a.Currency, string(a.Status), string(a.Category)); err != nil {
			return fmt.Errorf("insert account %s: %w", a.ID, err)
		}
	}

	for _, g := range snap.Agreements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO agreements (user_id, id, bank_id, product_type, name, amount_cents,
			 annual_rate_pct, monthly_payment_cents, term_months, start_date, end_date, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.UserID, g.ID, g.BankID, g.ProductType, g.Name, g.Amount.Cents,
			g.AnnualRatePct, g.MonthlyPayment.Cents, g.TermMonths,
			dateToSQL(g.StartDate), dateToSQL(g.EndDate), g.Status); err != nil {
			return fmt.Errorf("insert agreement %s: %w", g.ID, err)
		}
	}

	for _, t := range snap.Transactions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, bank_id, account_id, booked_on, amount_cents,
			 direction, merchant, category, code)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.UserID, t.BankID, t.AccountID, dateToSQL(t.BookedOn), t.Amount.Cents,
			string(t.Direction), t.Merchant, t.Category, t.Code); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved",
		"user_id", snap.UserID,
		"banks", len(snap.Banks),
		"accounts", len(snap.Accounts),
		"agreements", len(snap.Agreements),
		"transactions", len(snap.Transactions))
	return nil
}

// LoadSnapshot reads the user's stored snapshot. Returns
// core.ErrSnapshotNotFound when the user has none.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	snap := core.Snapshot{UserID: userID}

	var fetchedAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT source, fetched_at FROM snapshots WHERE user_id = ?", userID).
		Scan(&snap.Source, &fetchedAt)
	if err == sql.ErrNoRows {
		return core.Snapshot{}, core.ErrSnapshotNotFound
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load snapshot header: %w", err)
	}
	snap.FetchedAt = fetchedAt.UTC()

	if snap.Banks, err = s.loadBanks(ctx, userID); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Accounts, err = s.loadAccounts(ctx, userID); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Agreements, err = s.loadAgreements(ctx, userID); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Transactions, err = s.loadTransactions(ctx, userID); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

// ListStale returns the users whose snapshot was fetched before the cutoff.
func (s *SQLiteStore) ListStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM snapshots WHERE fetched_at < ? ORDER BY user_id", cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("list stale snapshots: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan stale user: %w", err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) loadBanks(ctx context.Context, userID string) ([]core.Bank, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM banks WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("load banks: %w", err)
	}
	defer rows.Close()

	var banks []core.Bank
	for rows.Next() {
		var b core.Bank
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

func (s *SQLiteStore) loadAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bank_id, balance_cents, currency, status, category
		 FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var status, category string
		if err := rows.Scan(&a.ID, &a.BankID, &a.Balance.Cents, &a.Currency, &status, &category); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Status = core.AccountStatus(status)
		a.Category = core.AccountCategory(category)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *SQLiteStore) loadAgreements(ctx context.Context, userID string) ([]core.Agreement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bank_id, product_type, name, amount_cents, annual_rate_pct,
		 monthly_payment_cents, term_months, start_date, end_date, status
		 FROM agreements WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("load agreements: %w", err)
	}
	defer rows.Close()

	var agreements []core.Agreement
	for rows.Next() {
		var g core.Agreement
		var start, end sql.NullString
		if err := rows.Scan(&g.ID, &g.BankID, &g.ProductType, &g.Name, &g.Amount.Cents,
			&g.AnnualRatePct, &g.MonthlyPayment.Cents, &g.TermMonths, &start, &end, &g.Status); err != nil {
			return nil, fmt.Errorf("scan agreement: %w", err)
		}
		if g.StartDate, err = dateFromSQL(start); err != nil {
			return nil, fmt.Errorf("agreement %s start date: %w", g.ID, err)
		}
		if g.EndDate, err = dateFromSQL(end); err != nil {
			return nil, fmt.Errorf("agreement %s end date: %w", g.ID, err)
		}
		agreements = append(agreements, g)
	}
	return agreements, rows.Err()
}

func (s *SQLiteStore) loadTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bank_id, account_id, booked_on, amount_cents, direction, merchant, category, code
		 FROM transactions WHERE user_id = ? ORDER BY booked_on, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var booked sql.NullString
		var direction string
		if err := rows.Scan(&t.BankID, &t.AccountID, &booked, &t.Amount.Cents,
			&direction, &t.Merchant, &t.Category, &t.Code); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.BookedOn, err = dateFromSQL(booked); err != nil {
			return nil, fmt.Errorf("transaction date: %w", err)
		}
		t.Direction = core.Direction(direction)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func dateToSQL(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Format("2006-01-02")
}

func dateFromSQL(v sql.NullString) (core.Date, error) {
	if !v.Valid || v.String == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", v.String)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(t), nil
}
