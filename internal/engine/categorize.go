package engine

import (
	"math"
	"sort"
	"strings"

	"finpulse/internal/core"
)

// Income cadence classification windows, in days between salary credits.
// Spacing noisier than maxGapStddev days is treated as irregular.
const (
	monthlyGapMin  = 25
	monthlyGapMax  = 35
	biweeklyGapMin = 12
	biweeklyGapMax = 18
	maxGapStddev   = 5.0
)

// categorize partitions the transaction history into income signal and
// obligation payment evidence. Insufficient history degrades to an irregular,
// unconfident profile instead of failing.
func (e *Engine) categorize(txs []core.Transaction, obligations []core.Obligation, today core.Date) (core.IncomeProfile, []core.PaymentStatus) {
	salary := e.salaryCredits(txs)
	profile := e.incomeProfile(salary, today)

	statuses := make([]core.PaymentStatus, 0, len(obligations))
	for _, o := range obligations {
		if o.Status != core.ObligationActive || !o.IsDebt() {
			continue
		}
		statuses = append(statuses, e.paymentStatus(o, txs, today))
	}
	return profile, statuses
}

// salaryCredits flags credit transactions that look like income: either a
// salary keyword in a descriptor, or the same counterpart paying a recurring
// amount on a roughly monthly spacing.
func (e *Engine) salaryCredits(txs []core.Transaction) []core.Transaction {
	var flagged []core.Transaction
	byMerchant := make(map[string][]core.Transaction)

	for _, tx := range txs {
		if tx.Direction != core.Credit {
			continue
		}
		if e.matchesSalaryKeyword(tx) {
			flagged = append(flagged, tx)
			continue
		}
		key := normalizeDescriptor(tx.Merchant)
		if key != "" {
			byMerchant[key] = append(byMerchant[key], tx)
		}
	}

	for _, group := range byMerchant {
		if isRecurringMonthly(group, e.params.AmountTolerance) {
			flagged = append(flagged, group...)
		}
	}

	sort.Slice(flagged, func(i, j int) bool { return flagged[i].BookedOn.Before(flagged[j].BookedOn.Time) })
	return flagged
}

func (e *Engine) matchesSalaryKeyword(tx core.Transaction) bool {
	haystack := strings.ToLower(tx.Merchant + " " + tx.Category + " " + tx.Code)
	for _, kw := range e.params.SalaryKeywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// isRecurringMonthly reports whether a single counterpart's credits repeat at
// a monthly spacing with amounts inside the tolerance band of their median.
func isRecurringMonthly(group []core.Transaction, tolerance float64) bool {
	if len(group) < 2 {
		return false
	}
	sorted := make([]core.Transaction, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BookedOn.Before(sorted[j].BookedOn.Time) })

	amounts := make([]float64, len(sorted))
	for i, tx := range sorted {
		amounts[i] = math.Abs(tx.Amount.Float())
	}
	mid := median(amounts)
	if mid <= 0 {
		return false
	}
	for _, a := range amounts {
		if math.Abs(a-mid) > mid*tolerance {
			return false
		}
	}
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i-1].BookedOn.DaysUntil(sorted[i].BookedOn)
		if gap < monthlyGapMin || gap > monthlyGapMax {
			return false
		}
	}
	return true
}

// incomeProfile estimates monthly income as the median of completed-month
// salary sums and classifies the arrival cadence from inter-arrival spacing.
func (e *Engine) incomeProfile(salary []core.Transaction, today core.Date) core.IncomeProfile {
	irregular := core.IncomeProfile{
		Cadence:         core.CadenceIrregular,
		NextWindowStart: today.AddDays(1),
		NextWindowEnd:   today.AddDays(e.params.HorizonDays),
	}
	if len(salary) == 0 {
		return irregular
	}

	monthlySums := make(map[string]int64)
	currentMonth := today.MonthKey()
	for _, tx := range salary {
		key := tx.BookedOn.MonthKey()
		if key < currentMonth {
			monthlySums[key] += tx.Amount.Cents
		}
	}
	sums := make([]float64, 0, len(monthlySums))
	for _, cents := range monthlySums {
		sums = append(sums, float64(cents))
	}
	if len(sums) == 0 {
		return irregular
	}
	monthly := core.Money{Cents: int64(math.Round(median(sums)))}
	irregular.Monthly = monthly

	if len(salary) < 2 {
		return irregular
	}

	gaps := make([]float64, 0, len(salary)-1)
	for i := 1; i < len(salary); i++ {
		gaps = append(gaps, float64(salary[i-1].BookedOn.DaysUntil(salary[i].BookedOn)))
	}
	medGap := median(gaps)
	if stddev(gaps) > maxGapStddev {
		return irregular
	}

	var cadence core.IncomeCadence
	switch {
	case medGap >= monthlyGapMin && medGap <= monthlyGapMax:
		cadence = core.CadenceMonthly
	case medGap >= biweeklyGapMin && medGap <= biweeklyGapMax:
		cadence = core.CadenceBiweekly
	default:
		return irregular
	}

	next := salary[len(salary)-1].BookedOn.AddDays(int(math.Round(medGap)))
	for !next.After(today.Time) {
		next = next.AddDays(int(math.Round(medGap)))
	}

	return core.IncomeProfile{
		Monthly:         monthly,
		Cadence:         cadence,
		NextWindowStart: next,
		NextWindowEnd:   next.AddDays(3),
		Confident:       monthly.IsPositive(),
	}
}

// paymentStatus looks for debit evidence that the obligation's current-period
// payment already happened. No match means payment-still-due, the
// conservative default.
func (e *Engine) paymentStatus(o core.Obligation, txs []core.Transaction, today core.Date) core.PaymentStatus {
	planned := e.plannedPayment(o)
	source := core.SignalInferred
	if o.MonthlyPayment.IsPositive() {
		source = core.SignalContract
	}

	status := core.PaymentStatus{
		ObligationID: o.ID,
		Planned:      planned,
		Source:       source,
	}
	if planned.IsZero() {
		return status
	}

	threshold := planned.MulRate(e.params.PaymentMatchRatio)
	hints := []string{strings.ToLower(o.ID), normalizeDescriptor(o.Name)}
	for _, tx := range txs {
		if tx.Direction != core.Debit {
			continue
		}
		if tx.Amount.Cents < threshold.Cents {
			continue
		}
		if !matchesObligation(tx, hints) {
			continue
		}
		if status.LastPayment.IsZero() || tx.BookedOn.After(status.LastPayment.Time) {
			status.LastPayment = tx.BookedOn
		}
	}

	if !status.LastPayment.IsZero() && status.LastPayment.SameMonth(today) {
		status.PaidInPeriod = true
	}
	if !status.PaidInPeriod {
		dueDay := e.dueDay(o)
		if dueDay > today.DaysInMonth() {
			dueDay = today.DaysInMonth()
		}
		status.Overdue = today.Day() > dueDay
	}
	return status
}

func matchesObligation(tx core.Transaction, hints []string) bool {
	haystack := strings.ToLower(tx.Merchant + " " + tx.Category + " " + tx.Code)
	for _, hint := range hints {
		if hint != "" && strings.Contains(haystack, hint) {
			return true
		}
	}
	return false
}

// normalizeDescriptor lowercases and collapses whitespace in a free-text
// counterpart descriptor.
func normalizeDescriptor(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
