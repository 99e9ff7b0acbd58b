package engine

import (
	"math"

	"finpulse/internal/core"
)

// buildRefinance estimates the saving from consolidating the active
// installment loans at a discounted blended rate. Returns nil when no loan
// qualifies.
func (e *Engine) buildRefinance(obligations []core.Obligation) *core.RefinanceInsight {
	var (
		principal      core.Money
		weightedRate   float64
		currentMonthly core.Money
	)
	for _, o := range activeObligations(obligations) {
		if !o.IsLoanLike() || !o.Outstanding.IsPositive() {
			continue
		}
		principal = principal.Add(o.Outstanding)
		weightedRate += o.AnnualRatePct * o.Outstanding.Float()
		currentMonthly = currentMonthly.Add(e.plannedPayment(o))
	}
	if !principal.IsPositive() {
		return nil
	}

	currentRate := weightedRate / principal.Float()
	proposedRate := currentRate - e.params.RefiRateDiscount
	if proposedRate < 0 {
		proposedRate = 0
	}

	term := e.params.RefiTermMonths
	newMonthly := annuityPayment(principal, proposedRate, term)
	savings := currentMonthly.MulRate(float64(term)).Sub(newMonthly.MulRate(float64(term)))

	breakeven := e.params.BreakevenFallbackMonths
	if currentMonthly.IsPositive() {
		gain := currentMonthly.Sub(newMonthly)
		// The gain is floored at one whole unit so a refinance that saves
		// nothing divides by 1.00, not by a single cent.
		divisor := gain.Cents
		if divisor < core.CentsPerUnit {
			divisor = core.CentsPerUnit
		}
		breakeven = int(currentMonthly.Cents / divisor)
		if breakeven < 1 {
			breakeven = 1
		}
	}

	return &core.RefinanceInsight{
		CurrentRatePct:  currentRate,
		ProposedRatePct: proposedRate,
		CurrentMonthly:  currentMonthly,
		NewMonthly:      newMonthly,
		TotalSavings:    savings,
		TermMonths:      term,
		BreakevenMonths: breakeven,
	}
}

// annuityPayment is the standard amortization formula. A zero rate falls back
// to straight-line principal; a zero term plans nothing.
func annuityPayment(principal core.Money, annualRatePct float64, termMonths int) core.Money {
	if !principal.IsPositive() || termMonths <= 0 {
		return core.Money{}
	}
	if annualRatePct <= 0 {
		return principal.Div(termMonths)
	}
	monthlyRate := annualRatePct / 100 / 12
	factor := math.Pow(1+monthlyRate, float64(termMonths))
	denom := factor - 1
	if denom == 0 {
		return principal.Div(termMonths)
	}
	return principal.MulRate(monthlyRate * factor / denom)
}
