// Package progress derives section-completion flags from an ApplicationData
// snapshot. Evaluation is pure and total: the flags are always recomputed
// from scratch, never updated incrementally, so they cannot drift from the
// data they describe.
package progress

import "loanflow/internal/models"

// UI gating thresholds. Policy constants, not derived values.
const (
	ReviewUnlockPercent = 60
	SubmitUnlockPercent = 80
)

// Evaluate recomputes the five completion flags from the snapshot.
func Evaluate(data models.ApplicationData) models.ProgressFlags {
	return models.ProgressFlags{
		Personal: data.Personal.FullName != "" &&
			(data.Personal.Email != "" || data.Personal.Phone != ""),
		Employment: data.Employment.Employer != "" &&
			data.Employment.MonthlyIncome != nil,
		Loan: data.Loan.Type != "" &&
			data.Loan.AmountRequested != nil,
		// Any financial data at all counts as complete. Lenient on purpose.
		Financial: data.Financial.MonthlyExpenses != nil ||
			data.Financial.ExistingDebt != nil,
		Documents: len(data.Documents) > 0,
	}
}

// Percent returns the overall completion percentage, rounded.
func Percent(flags models.ProgressFlags) int {
	count := 0
	for _, set := range []bool{
		flags.Personal, flags.Employment, flags.Loan, flags.Financial, flags.Documents,
	} {
		if set {
			count++
		}
	}
	return count * 100 / 5
}

// ReviewUnlocked reports whether the review affordance is available.
func ReviewUnlocked(flags models.ProgressFlags) bool {
	return Percent(flags) >= ReviewUnlockPercent
}

// SubmitUnlocked reports whether submission is available.
func SubmitUnlocked(flags models.ProgressFlags) bool {
	return Percent(flags) >= SubmitUnlockPercent
}
