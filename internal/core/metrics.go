package core

import "time"

const (
	CadenceMonthly   IncomeCadence = "regular_monthly"
	CadenceBiweekly  IncomeCadence = "regular_biweekly"
	CadenceIrregular IncomeCadence = "irregular"

	SignalContract IncomeSignal = "contract"
	SignalInferred IncomeSignal = "inferred"

	SpendOK     SpendStatus = "OK"
	SpendDanger SpendStatus = "DANGER"

	HealthCalm      HealthStatus = "calm"
	HealthAttention HealthStatus = "attention"
	HealthNeedsPlan HealthStatus = "needs_plan"
)

type (
	IncomeCadence string
	IncomeSignal  string
	SpendStatus   string
	HealthStatus  string

	// IncomeProfile is the categorizer's estimate of how money arrives.
	// Confident is false when history was too thin to classify a cadence;
	// downstream stages still run on the degraded estimate.
	IncomeProfile struct {
		Monthly         Money         `json:"monthly"`
		Cadence         IncomeCadence `json:"cadence"`
		NextWindowStart Date          `json:"next_window_start"`
		NextWindowEnd   Date          `json:"next_window_end"`
		Confident       bool          `json:"confident"`
	}

	// PaymentStatus is the categorizer's view of one obligation's current
	// billing period. Absent evidence defaults to payment-still-due.
	PaymentStatus struct {
		ObligationID string       `json:"obligation_id"`
		Planned      Money        `json:"planned"`
		PaidInPeriod bool         `json:"paid_in_period"`
		LastPayment  Date         `json:"last_payment"`
		Overdue      bool         `json:"overdue"`
		Source       IncomeSignal `json:"source"`
	}

	// ObligationPlan is one obligation's share of today's mandatory payment.
	ObligationPlan struct {
		ObligationID   string `json:"obligation_id"`
		BankID         string `json:"bank_id"`
		Daily          Money  `json:"daily"`
		MonthlyPayment Money  `json:"monthly_payment"`
		DueDate        Date   `json:"due_date"`
		DaysLeft       int    `json:"days_left"`
		Paid           bool   `json:"paid"`
	}

	// AllocationResult is the strategy-driven extra payment and its target.
	AllocationResult struct {
		Daily        Money  `json:"daily"`
		TargetID     string `json:"target_id,omitempty"`
		TargetBankID string `json:"target_bank_id,omitempty"`
		Reason       string `json:"reason,omitempty"`
		Strategy     string `json:"strategy"`
		Risk         string `json:"risk"`
	}

	DebtBreakdown struct {
		Total Money `json:"total"`
		Loans Money `json:"loans"`
		Cards Money `json:"cards"`
	}

	// BankAggregate is a (bank, total, count) tuple keyed by bank identifier.
	BankAggregate struct {
		BankID string `json:"bank_id"`
		Total  Money  `json:"total"`
		Count  int    `json:"count"`
	}

	HealthReport struct {
		Score          int          `json:"score"`
		Status         HealthStatus `json:"status"`
		Reasons        []string     `json:"reasons"`
		DTIScore       float64      `json:"dti_score"`
		SpendScore     float64      `json:"spend_score"`
		OverdueScore   float64      `json:"overdue_score"`
		LiquidityScore float64      `json:"liquidity_score"`
	}

	RefinanceInsight struct {
		CurrentRatePct  float64 `json:"current_rate_pct"`
		ProposedRatePct float64 `json:"proposed_rate_pct"`
		CurrentMonthly  Money   `json:"current_monthly"`
		NewMonthly      Money   `json:"new_monthly"`
		TotalSavings    Money   `json:"total_savings"`
		TermMonths      int     `json:"term_months"`
		BreakevenMonths int     `json:"breakeven_months"`
	}

	// MetricsRecord is the engine's entire output for one computation.
	// It holds no identity of its own and is rebuilt from scratch on every
	// call.
	MetricsRecord struct {
		ComputedAt time.Time `json:"computed_at"`

		STSDaily        Money       `json:"sts_daily"`
		STSStatus       SpendStatus `json:"sts_status"`
		MinBalance      Money       `json:"min_balance"`
		DaysUntilIncome int         `json:"days_until_income"`
		SpentToday      Money       `json:"spent_today"`

		MDPToday      Money            `json:"mdp_today"`
		PerObligation []ObligationPlan `json:"per_obligation"`

		ADP AllocationResult `json:"adp"`

		Debt           DebtBreakdown   `json:"debt"`
		LiquidBalance  Money           `json:"liquid_balance"`
		DebtByBank     []BankAggregate `json:"debt_by_bank"`
		BalanceByBank  []BankAggregate `json:"balance_by_bank"`
		Income         IncomeProfile   `json:"income"`
		PaymentStatuses []PaymentStatus `json:"payment_statuses"`

		Health    HealthReport      `json:"health"`
		Refinance *RefinanceInsight `json:"refinance,omitempty"`
	}
)
