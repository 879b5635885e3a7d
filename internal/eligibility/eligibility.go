// Package eligibility computes loan eligibility and amortization figures from
// an applicant's financial profile. The calculation is deterministic: the
// same inputs always produce the same result.
package eligibility

import (
	"fmt"
	"math"

	"loanflow/internal/common/config"
	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/models"
)

// Risk score weighting. Both ratios push the score up monotonically.
const (
	debtRatioWeight   = 55.0
	amountRatioWeight = 8.0
)

// Calculator holds the eligibility policy knobs.
type Calculator struct {
	multiplier float64
	riskCutoff int
	rateSpread float64
}

func NewCalculator(cfg config.LoanConfig) *Calculator {
	return &Calculator{
		multiplier: cfg.Multiplier,
		riskCutoff: cfg.RiskCutoff,
		rateSpread: cfg.RateSpread,
	}
}

// Calculate produces the full eligibility result for the requested amount.
// It fails with INVALID_INPUT when the amount is not positive or the profile
// has no usable income; a zero income is rejected here rather than letting a
// division produce NaN downstream.
func (c *Calculator) Calculate(requested float64, data models.ApplicationData) (models.EligibilityResult, error) {
	if requested <= 0 {
		return models.EligibilityResult{}, commonerrors.NewInvalidInputError("loan_amount", "must be greater than zero")
	}
	if data.Employment.MonthlyIncome == nil || *data.Employment.MonthlyIncome <= 0 {
		return models.EligibilityResult{}, commonerrors.NewInvalidInputError("monthly_income", "a positive monthly income is required")
	}

	income := *data.Employment.MonthlyIncome
	expenses := 0.0
	if data.Financial.MonthlyExpenses != nil {
		expenses = *data.Financial.MonthlyExpenses
	}
	debt := 0.0
	if data.Financial.ExistingDebt != nil {
		debt = *data.Financial.ExistingDebt
	}

	loanType := data.Loan.Type
	if loanType == "" {
		loanType = models.LoanTypePersonal
	}

	annualIncome := income * 12
	debtRatio := debt / annualIncome
	amountRatio := requested / annualIncome

	risk := clamp(int(math.Round(debtRatioWeight*debtRatio+amountRatioWeight*amountRatio)), 0, 100)

	// Risk-adjusted capacity: disposable annual income times the lending
	// multiplier, less existing obligations, scaled down as risk rises.
	capacity := (income-expenses)*12*c.multiplier - debt
	if capacity < 0 {
		capacity = 0
	}
	adjusted := capacity * float64(100-risk) / 100

	typeMax := loanType.Ceiling()
	ceiling := adjusted
	ceilingBoundByType := false
	if typeMax < ceiling {
		ceiling = typeMax
		ceilingBoundByType = true
	}
	ceiling = roundCents(ceiling)

	eligible := requested <= ceiling && risk < c.riskCutoff

	rate := loanType.BaseRatePct() + float64(risk)/100*c.rateSpread
	rate = roundCents(rate)

	termYears := data.Loan.TermYears
	if termYears <= 0 {
		termYears = loanType.DefaultTermYears()
	}

	principal := requested
	if !eligible {
		principal = ceiling
	}

	result := models.EligibilityResult{
		RequestedAmount: requested,
		EligibleAmount:  ceiling,
		IsEligible:      eligible,
		InterestRatePct: rate,
		TermYears:       termYears,
		RiskScore:       risk,
		Reason:          c.reason(requested, ceiling, risk, eligible, ceilingBoundByType, loanType),
	}

	if principal > 0 {
		monthly, total, interest := amortize(principal, rate, termYears*12)
		result.MonthlyPayment = monthly
		result.TotalPayment = total
		result.TotalInterest = interest
	}

	return result, nil
}

// RiskCutoff exposes the configured eligibility cutoff.
func (c *Calculator) RiskCutoff() int {
	return c.riskCutoff
}

func (c *Calculator) reason(requested, ceiling float64, risk int, eligible, boundByType bool, loanType models.LoanType) string {
	switch {
	case eligible && requested <= ceiling:
		return fmt.Sprintf("Approved: requested $%.2f is within your eligible amount of $%.2f at risk score %d.", requested, ceiling, risk)
	case risk >= c.riskCutoff:
		return fmt.Sprintf("Denied: risk score %d is at or above the eligibility cutoff of %d.", risk, c.riskCutoff)
	case ceiling <= 0:
		return "Denied: your current income, expenses and existing debt leave no lending capacity."
	case boundByType:
		return fmt.Sprintf("Requested $%.2f exceeds the %s maximum of $%.2f; you are eligible for up to $%.2f.", requested, loanType, loanType.Ceiling(), ceiling)
	default:
		return fmt.Sprintf("Requested $%.2f exceeds your risk-adjusted capacity; you are eligible for up to $%.2f.", requested, ceiling)
	}
}

// amortize computes the standard fixed-rate schedule. The monthly payment is
// rounded to cents first so that totalPayment == monthlyPayment * n and
// totalInterest == totalPayment - principal hold exactly.
func amortize(principal, annualRatePct float64, termMonths int) (monthly, total, interest float64) {
	n := float64(termMonths)
	if annualRatePct == 0 {
		monthly = roundCents(principal / n)
	} else {
		r := annualRatePct / 100 / 12
		monthly = roundCents(principal * r * math.Pow(1+r, n) / (math.Pow(1+r, n) - 1))
	}
	total = roundCents(monthly * n)
	interest = roundCents(total - principal)
	return monthly, total, interest
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
