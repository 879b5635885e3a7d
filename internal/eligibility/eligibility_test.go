package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanflow/internal/common/config"
	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/models"
)

func testCalculator() *Calculator {
	return NewCalculator(config.LoanConfig{
		Multiplier: 5,
		RiskCutoff: 70,
		RateSpread: 8.0,
	})
}

func profileData(income, expenses, debt float64, loanType models.LoanType) models.ApplicationData {
	return models.ApplicationData{
		Employment: models.EmploymentInfo{MonthlyIncome: models.Float64(income)},
		Financial: models.FinancialInfo{
			MonthlyExpenses: models.Float64(expenses),
			ExistingDebt:    models.Float64(debt),
		},
		Loan: models.LoanInfo{Type: loanType},
	}
}

func TestCalculateApprovedPersonalLoan(t *testing.T) {
	calc := testCalculator()
	data := profileData(8000, 3000, 20000, models.LoanTypePersonal)

	result, err := calc.Calculate(10000, data)
	require.NoError(t, err)

	// debt ratio 20000/96000, amount ratio 10000/96000
	assert.Equal(t, 12, result.RiskScore)
	assert.True(t, result.IsEligible)
	assert.Equal(t, 50000.0, result.EligibleAmount)
	assert.Equal(t, 11.46, result.InterestRatePct)
	assert.Equal(t, 5, result.TermYears)
	assert.Contains(t, result.Reason, "Approved")
}

func TestCalculateAmortizationIdentities(t *testing.T) {
	calc := testCalculator()
	data := profileData(8000, 3000, 20000, models.LoanTypePersonal)

	result, err := calc.Calculate(10000, data)
	require.NoError(t, err)

	n := float64(result.TermYears * 12)
	assert.Greater(t, result.MonthlyPayment, 0.0)
	assert.InDelta(t, result.MonthlyPayment*n, result.TotalPayment, 0.001)
	assert.InDelta(t, result.TotalPayment-result.RequestedAmount, result.TotalInterest, 0.001)
	assert.Greater(t, result.TotalInterest, 0.0)
}

func TestCalculateRequestAboveTypeCeiling(t *testing.T) {
	calc := testCalculator()
	data := profileData(8000, 3000, 20000, models.LoanTypePersonal)

	result, err := calc.Calculate(600000, data)
	require.NoError(t, err)

	assert.False(t, result.IsEligible)
	assert.Equal(t, 50000.0, result.EligibleAmount)
	assert.Contains(t, result.Reason, "maximum")
	// Amortization figures describe the eligible amount, not the request.
	assert.Greater(t, result.MonthlyPayment, 0.0)
}

func TestCalculateRiskCutoffDenial(t *testing.T) {
	calc := testCalculator()
	data := profileData(3000, 2900, 100000, models.LoanTypePersonal)

	result, err := calc.Calculate(5000, data)
	require.NoError(t, err)

	assert.False(t, result.IsEligible)
	assert.Equal(t, 100, result.RiskScore)
	assert.Contains(t, result.Reason, "cutoff")
	assert.Equal(t, 0.0, result.EligibleAmount)
	assert.Equal(t, 0.0, result.MonthlyPayment)
}

func TestCalculateInvalidInputs(t *testing.T) {
	calc := testCalculator()

	tests := []struct {
		name      string
		requested float64
		data      models.ApplicationData
	}{
		{
			name:      "zero amount",
			requested: 0,
			data:      profileData(8000, 3000, 0, models.LoanTypePersonal),
		},
		{
			name:      "negative amount",
			requested: -500,
			data:      profileData(8000, 3000, 0, models.LoanTypePersonal),
		},
		{
			name:      "missing income",
			requested: 10000,
			data:      models.ApplicationData{},
		},
		{
			name:      "zero income",
			requested: 10000,
			data:      profileData(0, 0, 0, models.LoanTypePersonal),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(tt.requested, tt.data)
			require.Error(t, err)
			assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidInput))
		})
	}
}

func TestCalculateLoanTypeAttributes(t *testing.T) {
	calc := testCalculator()
	data := profileData(20000, 5000, 0, models.LoanTypeHome)

	result, err := calc.Calculate(100000, data)
	require.NoError(t, err)

	assert.True(t, result.IsEligible)
	assert.Equal(t, 30, result.TermYears)
	// Base rate 6.5 plus risk adjustment keeps home loans below personal rates.
	assert.Less(t, result.InterestRatePct, models.LoanTypePersonal.BaseRatePct())
}

func TestCalculateDeterministic(t *testing.T) {
	calc := testCalculator()
	data := profileData(8000, 3000, 20000, models.LoanTypeAuto)

	first, err := calc.Calculate(30000, data)
	require.NoError(t, err)
	second, err := calc.Calculate(30000, data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateDefaultsToPersonal(t *testing.T) {
	calc := testCalculator()
	data := profileData(8000, 3000, 0, "")

	result, err := calc.Calculate(10000, data)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TermYears)
	assert.Equal(t, 50000.0, result.EligibleAmount)
}
