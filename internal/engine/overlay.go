package engine

import (
	"fmt"
	"sort"

	"finpulse/internal/core"
)

// Overlay is the session's simulated state on top of an immutable snapshot:
// balance and obligation deltas from simulated payments, per-bank enable
// flags, and today's recorded discretionary spend. The snapshot itself is
// never touched; every mutation returns a new overlay with a bumped version.
type Overlay struct {
	accountDeltas    map[string]int64
	obligationDeltas map[string]int64
	bankEnabled      map[string]bool
	spentToday       int64
	version          uint64
}

// NewOverlay returns an empty overlay. All banks are enabled and nothing is
// simulated.
func NewOverlay() Overlay {
	return Overlay{}
}

// Version identifies the overlay state; it increments on every mutation and
// keys any caching of derived metrics.
func (ov Overlay) Version() uint64 {
	return ov.version
}

// SpentToday returns the recorded discretionary spend.
func (ov Overlay) SpentToday() core.Money {
	return core.Money{Cents: ov.spentToday}
}

// BankEnabled reports whether a bank participates in computations. Banks are
// enabled unless explicitly switched off.
func (ov Overlay) BankEnabled(bankID string) bool {
	enabled, ok := ov.bankEnabled[bankID]
	if !ok {
		return true
	}
	return enabled
}

func (ov Overlay) clone() Overlay {
	next := Overlay{
		spentToday: ov.spentToday,
		version:    ov.version + 1,
	}
	if len(ov.accountDeltas) > 0 {
		next.accountDeltas = make(map[string]int64, len(ov.accountDeltas))
		for k, v := range ov.accountDeltas {
			next.accountDeltas[k] = v
		}
	}
	if len(ov.obligationDeltas) > 0 {
		next.obligationDeltas = make(map[string]int64, len(ov.obligationDeltas))
		for k, v := range ov.obligationDeltas {
			next.obligationDeltas[k] = v
		}
	}
	if len(ov.bankEnabled) > 0 {
		next.bankEnabled = make(map[string]bool, len(ov.bankEnabled))
		for k, v := range ov.bankEnabled {
			next.bankEnabled[k] = v
		}
	}
	return next
}

// SetBankEnabled returns an overlay with the bank switched on or off.
// Disabling removes the bank's accounts, agreements and transactions from
// every computation; re-enabling restores them exactly.
func (ov Overlay) SetBankEnabled(bankID string, enabled bool) Overlay {
	next := ov.clone()
	if next.bankEnabled == nil {
		next.bankEnabled = make(map[string]bool, 1)
	}
	next.bankEnabled[bankID] = enabled
	return next
}

// AddSpend returns an overlay with the amount added to today's discretionary
// spend. The amount must be positive.
func (ov Overlay) AddSpend(amount core.Money) (Overlay, error) {
	if !amount.IsPositive() {
		return ov, fmt.Errorf("spend amount must be positive: %w", core.ErrInvalidAmount)
	}
	next := ov.clone()
	next.spentToday += amount.Cents
	return next, nil
}

// ResetSpend returns an overlay with today's discretionary spend cleared.
// Sessions call it when the calendar day rolls over.
func (ov Overlay) ResetSpend() Overlay {
	next := ov.clone()
	next.spentToday = 0
	return next
}

// ApplyPayment simulates paying the amount toward an obligation: its
// outstanding balance drops (never below zero) and the money is drawn from
// the liquid accounts of enabled banks, the obligation's own bank first, then
// the others by descending available balance. No account goes negative; if
// liquidity runs out the remainder is simply not withdrawn, the payment
// toward the obligation still counts in full.
func (ov Overlay) ApplyPayment(snap core.Snapshot, obligationID string, amount core.Money) (Overlay, error) {
	if !amount.IsPositive() {
		return ov, fmt.Errorf("payment amount must be positive: %w", core.ErrInvalidAmount)
	}

	var agreement *core.Agreement
	for i := range snap.Agreements {
		if snap.Agreements[i].ID == obligationID {
			agreement = &snap.Agreements[i]
			break
		}
	}
	if agreement == nil || !ov.BankEnabled(agreement.BankID) {
		return ov, fmt.Errorf("obligation %s: %w", obligationID, core.ErrUnknownObligation)
	}

	next := ov.clone()
	if next.obligationDeltas == nil {
		next.obligationDeltas = make(map[string]int64, 1)
	}
	if next.accountDeltas == nil {
		next.accountDeltas = make(map[string]int64)
	}

	outstanding := agreement.Amount.Cents + next.obligationDeltas[obligationID]
	if outstanding < 0 {
		outstanding = 0
	}
	reduction := amount.Cents
	if reduction > outstanding {
		reduction = outstanding
	}
	next.obligationDeltas[obligationID] -= reduction

	next.drawFromAccounts(snap, agreement.BankID, amount.Cents)
	return next, nil
}

// drawFromAccounts deducts the amount from liquid accounts of enabled banks,
// clamping each account at zero. Accounts of the preferred bank go first,
// then the rest ordered by descending effective balance with the account
// identifier as tiebreak.
func (ov *Overlay) drawFromAccounts(snap core.Snapshot, preferredBank string, amount int64) {
	type candidate struct {
		id        string
		preferred bool
		available int64
	}
	candidates := make([]candidate, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		if !a.IsLiquid() || !ov.BankEnabled(a.BankID) {
			continue
		}
		available := a.Balance.Cents + ov.accountDeltas[a.ID]
		if available <= 0 {
			continue
		}
		candidates = append(candidates, candidate{
			id:        a.ID,
			preferred: a.BankID == preferredBank,
			available: available,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.preferred != b.preferred {
			return a.preferred
		}
		if a.available != b.available {
			return a.available > b.available
		}
		return a.id < b.id
	})

	remaining := amount
	for _, c := range candidates {
		if remaining <= 0 {
			break
		}
		take := remaining
		if take > c.available {
			take = c.available
		}
		ov.accountDeltas[c.id] -= take
		remaining -= take
	}
}

// Apply materializes the effective snapshot the engine computes on: disabled
// banks are filtered out and the simulated deltas are folded in, with
// balances and outstanding amounts clamped at zero.
func (ov Overlay) Apply(snap core.Snapshot) core.Snapshot {
	eff := core.Snapshot{
		UserID:    snap.UserID,
		Source:    snap.Source,
		FetchedAt: snap.FetchedAt,
	}

	for _, b := range snap.Banks {
		if ov.BankEnabled(b.ID) {
			eff.Banks = append(eff.Banks, b)
		}
	}
	for _, a := range snap.Accounts {
		if !ov.BankEnabled(a.BankID) {
			continue
		}
		if delta, ok := ov.accountDeltas[a.ID]; ok {
			a.Balance = core.Money{Cents: a.Balance.Cents + delta}.NonNegative()
		}
		eff.Accounts = append(eff.Accounts, a)
	}
	for _, g := range snap.Agreements {
		if !ov.BankEnabled(g.BankID) {
			continue
		}
		if delta, ok := ov.obligationDeltas[g.ID]; ok {
			g.Amount = core.Money{Cents: g.Amount.Cents + delta}.NonNegative()
		}
		eff.Agreements = append(eff.Agreements, g)
	}
	for _, tx := range snap.Transactions {
		if !ov.BankEnabled(tx.BankID) {
			continue
		}
		eff.Transactions = append(eff.Transactions, tx)
	}
	return eff
}
