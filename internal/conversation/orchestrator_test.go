package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanflow/internal/common/config"
	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/eligibility"
	"loanflow/internal/llm"
	"loanflow/internal/models"
	"loanflow/internal/profile"
	"loanflow/internal/sanctions"
	"loanflow/internal/session"
)

func newTestOrchestrator(t *testing.T, records ...profile.Record) *Orchestrator {
	if len(records) == 0 {
		records = []profile.Record{
			{UserID: "USR001", Name: "John Doe", MonthlyIncome: 8000, MonthlyExpenses: 3000, ExistingLoan: 20000},
		}
	}

	log := logger.NewTestLogger(t)
	screener := sanctions.NewScreener(config.SanctionsConfig{
		Timeout:         1000,
		SimulatedDelay:  1,
		SanctionedNames: []string{"Stephanie Martin", "Sanctioned Person"},
	}, log)
	calc := eligibility.NewCalculator(config.LoanConfig{Multiplier: 5, RiskCutoff: 70, RateSpread: 8.0})
	// No API key: the LLM client answers from the canned response set.
	llmClient := llm.NewClient(config.LLMConfig{Timeout: 1000}, log)

	return New(
		session.NewMemoryStore(time.Minute),
		profile.NewStaticStore(records...),
		screener,
		llmClient,
		calc,
		log,
	)
}

func TestGreetStartsSession(t *testing.T) {
	o := newTestOrchestrator(t)

	res, err := o.Greet(context.Background(), "USR001", "")
	require.NoError(t, err)

	assert.Contains(t, res.Message, "John Doe")
	assert.Equal(t, models.StepLoanType, res.NextStep)
	assert.Equal(t, models.InputLoanTypeSelect, res.ActiveInput)
	assert.Equal(t, 0, res.Percent)
}

func TestGreetUnknownUser(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.Greet(context.Background(), "USR999", "")
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeUserNotFound))
}

func TestHappyPathToApproval(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Greet(ctx, "USR001", "")
	require.NoError(t, err)

	res, err := o.SelectLoanType(ctx, "USR001", "Personal Loan")
	require.NoError(t, err)
	assert.Equal(t, models.StepConfirmData, res.NextStep)
	assert.True(t, res.OFACClear)
	assert.Equal(t, "OFAC check passed", res.OFACStatus)
	require.NotNil(t, res.Profile)
	assert.Equal(t, "John Doe", res.Profile.Name)

	res, err = o.ConfirmData(ctx, "USR001")
	require.NoError(t, err)
	assert.Equal(t, models.StepLoanAmount, res.NextStep)
	assert.Equal(t, models.InputAmount, res.ActiveInput)

	res, err = o.SubmitAmount(ctx, "USR001", 10000)
	require.NoError(t, err)
	assert.Equal(t, models.StepDocumentReview, res.NextStep)
	assert.Equal(t, models.InputAgreement, res.ActiveInput)
	require.NotNil(t, res.Eligibility)
	assert.True(t, res.Eligibility.IsEligible)

	res, err = o.ReviewAgreement(ctx, "USR001", true)
	require.NoError(t, err)
	assert.Equal(t, models.StepFinalDecision, res.NextStep)
	assert.Contains(t, res.Message, "Congratulations")

	res, err = o.FinalConfirmation(ctx, "USR001")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Congratulations")

	// The session is cleared after final confirmation.
	_, err = o.Chat(ctx, "USR001", "hello again")
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSessionNotFound))
}

func TestSanctionsFailureTerminatesFlow(t *testing.T) {
	o := newTestOrchestrator(t, profile.Record{
		UserID: "USR090", Name: "Stephanie Martin", MonthlyIncome: 9000, MonthlyExpenses: 2000,
	})
	ctx := context.Background()

	_, err := o.Greet(ctx, "USR090", "")
	require.NoError(t, err)

	res, err := o.SelectLoanType(ctx, "USR090", "home")
	require.NoError(t, err)
	assert.False(t, res.OFACClear)
	assert.Equal(t, "Name found on sanctions list", res.OFACStatus)

	res, err = o.ConfirmData(ctx, "USR090")
	require.NoError(t, err)
	assert.Equal(t, models.StepFinalDecision, res.NextStep)
	assert.Contains(t, res.Message, "nearest branch")

	// The failure branch never enters the amount step.
	_, err = o.SubmitAmount(ctx, "USR090", 10000)
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidInput))

	res, err = o.FinalConfirmation(ctx, "USR090")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "nearest branch")
}

func TestIneligibleRequestTerminatesFlow(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Greet(ctx, "USR001", "")
	require.NoError(t, err)
	_, err = o.SelectLoanType(ctx, "USR001", "personal")
	require.NoError(t, err)
	_, err = o.ConfirmData(ctx, "USR001")
	require.NoError(t, err)

	res, err := o.SubmitAmount(ctx, "USR001", 600000)
	require.NoError(t, err)
	assert.Equal(t, models.StepFinalDecision, res.NextStep)
	require.NotNil(t, res.Eligibility)
	assert.False(t, res.Eligibility.IsEligible)
	assert.Contains(t, res.Message, "unable to approve")
}

func TestAgreementRejectionTerminatesFlow(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Greet(ctx, "USR001", "")
	require.NoError(t, err)
	_, err = o.SelectLoanType(ctx, "USR001", "personal")
	require.NoError(t, err)
	_, err = o.ConfirmData(ctx, "USR001")
	require.NoError(t, err)
	_, err = o.SubmitAmount(ctx, "USR001", 10000)
	require.NoError(t, err)

	res, err := o.ReviewAgreement(ctx, "USR001", false)
	require.NoError(t, err)
	assert.Equal(t, models.StepFinalDecision, res.NextStep)
	assert.Contains(t, res.Message, "declined")
}

func TestStepGating(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	// No session yet.
	_, err := o.ConfirmData(ctx, "USR001")
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSessionNotFound))

	_, err = o.Greet(ctx, "USR001", "")
	require.NoError(t, err)

	// Session is at loan_type; other scripted actions are rejected.
	_, err = o.ConfirmData(ctx, "USR001")
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidInput))
	_, err = o.SubmitAmount(ctx, "USR001", 10000)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidInput))
	_, err = o.ReviewAgreement(ctx, "USR001", true)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidInput))
	_, err = o.FinalConfirmation(ctx, "USR001")
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidInput))
}

func TestSelectLoanTypeUnknown(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Greet(ctx, "USR001", "")
	require.NoError(t, err)

	_, err = o.SelectLoanType(ctx, "USR001", "payday loan")
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidInput))
}

func TestSubmitAmountInvalidKeepsStep(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Greet(ctx, "USR001", "")
	require.NoError(t, err)
	_, err = o.SelectLoanType(ctx, "USR001", "personal")
	require.NoError(t, err)
	_, err = o.ConfirmData(ctx, "USR001")
	require.NoError(t, err)

	_, err = o.SubmitAmount(ctx, "USR001", -50)
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidInput))

	// A corrected amount still goes through.
	res, err := o.SubmitAmount(ctx, "USR001", 10000)
	require.NoError(t, err)
	assert.Equal(t, models.StepDocumentReview, res.NextStep)
}

func TestChatExtractsAndTracksProgress(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Greet(ctx, "USR001", "")
	require.NoError(t, err)

	res, err := o.Chat(ctx, "USR001", "my name is John Doe, my email is john@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Message)
	assert.True(t, res.Progress.Personal)
	assert.Equal(t, 20, res.Percent)

	res, err = o.Chat(ctx, "USR001", "I make $8,000 and work at Acme Corp")
	require.NoError(t, err)
	assert.True(t, res.Progress.Employment)
	assert.Equal(t, 40, res.Percent)
}

func TestRecordDocument(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Greet(ctx, "USR001", "")
	require.NoError(t, err)

	res, err := o.RecordDocument(ctx, "USR001", "payslip.pdf", 2048, "application/pdf")
	require.NoError(t, err)
	assert.True(t, res.Progress.Documents)
	assert.Contains(t, res.Message, "payslip.pdf")

	_, err = o.RecordDocument(ctx, "USR001", "", 0, "")
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidInput))
}

func TestParseLoanType(t *testing.T) {
	tests := []struct {
		raw  string
		want models.LoanType
		ok   bool
	}{
		{raw: "Personal Loan", want: models.LoanTypePersonal, ok: true},
		{raw: "personal", want: models.LoanTypePersonal, ok: true},
		{raw: "I'd like a home loan please", want: models.LoanTypeHome, ok: true},
		{raw: "auto", want: models.LoanTypeAuto, ok: true},
		{raw: "Business Loan", want: models.LoanTypeBusiness, ok: true},
		{raw: "home or auto", want: models.LoanTypeAuto, ok: true},
		{raw: "payday", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLoanType(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
