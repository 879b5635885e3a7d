// Package conversation owns the step-gated application flow:
// greeting → loan_type → confirm_data → loan_amount → eligibility_check →
// document_review → final_decision, with explicit terminal failure branches
// for a failed compliance screen, an ineligible request, and a rejected
// agreement. The orchestrator is the only component that mutates session
// state; extraction, progress evaluation and eligibility are pure functions
// it calls.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/common/metrics"
	"loanflow/internal/eligibility"
	"loanflow/internal/extract"
	"loanflow/internal/llm"
	"loanflow/internal/models"
	"loanflow/internal/profile"
	"loanflow/internal/progress"
	"loanflow/internal/sanctions"
	"loanflow/internal/session"
)

// TurnResult is what one processed turn hands back to the transport layer.
type TurnResult struct {
	Message        string                    `json:"message"`
	NextStep       models.Step               `json:"next_step"`
	Progress       models.ProgressFlags      `json:"progress"`
	Percent        int                       `json:"progress_percent"`
	ActiveInput    models.InputMode          `json:"active_input"`
	ReviewUnlocked bool                      `json:"review_unlocked"`
	SubmitUnlocked bool                      `json:"submit_unlocked"`
	Eligibility    *models.EligibilityResult `json:"eligibility,omitempty"`
	Profile        *profile.Record           `json:"profile,omitempty"`
	OFACClear      bool                      `json:"ofac_check"`
	OFACStatus     string                    `json:"ofac_status,omitempty"`
}

type Orchestrator struct {
	sessions session.Store
	profiles *profile.Store
	screener *sanctions.Screener
	llm      *llm.Client
	calc     *eligibility.Calculator
	logger   logger.Logger
}

func New(
	sessions session.Store,
	profiles *profile.Store,
	screener *sanctions.Screener,
	llmClient *llm.Client,
	calc *eligibility.Calculator,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		profiles: profiles,
		screener: screener,
		llm:      llmClient,
		calc:     calc,
		logger:   log.WithFields(map[string]interface{}{"component": "conversation"}),
	}
}

// Greet starts (or restarts) a session and performs the unconditional
// greeting → loan_type transition.
func (o *Orchestrator) Greet(ctx context.Context, userID, name string) (*TurnResult, error) {
	unlock := o.sessions.Lock(userID)
	defer unlock()
	defer o.observeTurn(models.StepGreeting, time.Now())

	rec, err := o.profiles.Get(userID)
	if err != nil {
		return nil, err
	}

	greetName := name
	if greetName == "" {
		greetName = rec.Name
	}

	now := time.Now().UTC()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Step:      models.StepGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	reply := o.agentReply(ctx, sess, fmt.Sprintf(promptGreet, greetName),
		map[string]string{"name": greetName})
	sess.Append(models.RoleAgent, reply)
	sess.Step = models.StepLoanType

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}
	return o.result(sess, reply), nil
}

// SelectLoanType handles the loan_type → confirm_data transition: the
// applicant's profile is fetched and merged into the snapshot, and the
// compliance screen runs. The screen's pass/fail is recorded here and gates
// the branch taken at confirmation.
func (o *Orchestrator) SelectLoanType(ctx context.Context, userID, loanTypeRaw string) (*TurnResult, error) {
	unlock := o.sessions.Lock(userID)
	defer unlock()
	defer o.observeTurn(models.StepLoanType, time.Now())

	sess, err := o.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Step != models.StepLoanType {
		return nil, o.wrongStep("loan_type", sess.Step)
	}

	loanType, ok := ParseLoanType(loanTypeRaw)
	if !ok {
		return nil, commonerrors.NewInvalidInputError("loan_type",
			fmt.Sprintf("unknown loan type %q", loanTypeRaw))
	}

	rec, err := o.profiles.Get(userID)
	if err != nil {
		return nil, err
	}

	clear, status, err := o.screener.Check(ctx, rec.Name)
	if err != nil {
		// Retryable upstream failure; session state is untouched so the
		// same turn can be replayed.
		return nil, err
	}

	sess.Append(models.RoleUser, loanTypeRaw)
	mergeProfile(&sess.Data, rec)
	sess.Data.Loan.Type = loanType
	sess.OFACClear = clear
	sess.OFACStatus = status
	sess.ProfileLoaded = true

	reply := o.agentReply(ctx, sess, promptConfirmData, nil)
	sess.Append(models.RoleAgent, reply)
	sess.Step = models.StepConfirmData

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}

	res := o.result(sess, reply)
	res.Profile = &rec
	res.OFACClear = clear
	res.OFACStatus = status
	return res, nil
}

// ConfirmData branches on the recorded compliance screen: a pass moves to
// loan_amount, a failure terminates the flow with its remediation message and
// no further data collection.
func (o *Orchestrator) ConfirmData(ctx context.Context, userID string) (*TurnResult, error) {
	unlock := o.sessions.Lock(userID)
	defer unlock()
	defer o.observeTurn(models.StepConfirmData, time.Now())

	sess, err := o.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Step != models.StepConfirmData {
		return nil, o.wrongStep("confirm", sess.Step)
	}

	sess.Append(models.RoleUser, "confirm")

	if !sess.OFACClear {
		sess.Step = models.StepFinalDecision
		sess.Outcome = models.OutcomeSanctionsFailed
		sess.OutcomeText = msgSanctionsFailure
		sess.Append(models.RoleAgent, msgSanctionsFailure)
		if err := o.persist(ctx, sess); err != nil {
			return nil, err
		}
		return o.result(sess, msgSanctionsFailure), nil
	}

	reply := o.agentReply(ctx, sess, promptConfirmData, nil)
	sess.Append(models.RoleAgent, reply)
	sess.Step = models.StepLoanAmount

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}
	return o.result(sess, reply), nil
}

// AskLoanAmount produces the amount prompt without advancing the step.
func (o *Orchestrator) AskLoanAmount(ctx context.Context, userID string) (*TurnResult, error) {
	unlock := o.sessions.Lock(userID)
	defer unlock()
	defer o.observeTurn(models.StepLoanAmount, time.Now())

	sess, err := o.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Step != models.StepLoanAmount {
		return nil, o.wrongStep("ask_loan_amount", sess.Step)
	}

	reply := o.agentReply(ctx, sess, promptAskAmount, nil)
	sess.Append(models.RoleAgent, reply)

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}
	return o.result(sess, reply), nil
}

// SubmitAmount runs the eligibility check and branches: eligible requests
// move to document review, ineligible ones terminate with the denial reason.
// An invalid amount keeps the step so the applicant can correct it.
func (o *Orchestrator) SubmitAmount(ctx context.Context, userID string, amount float64) (*TurnResult, error) {
	unlock := o.sessions.Lock(userID)
	defer unlock()
	defer o.observeTurn(models.StepEligibilityCheck, time.Now())

	sess, err := o.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Step != models.StepLoanAmount {
		return nil, o.wrongStep("loan_amount", sess.Step)
	}

	result, err := o.calc.Calculate(amount, sess.Data)
	if err != nil {
		return nil, err
	}

	sess.Append(models.RoleUser, fmt.Sprintf("$%.2f", amount))
	sess.Data.Loan.AmountRequested = models.Float64(amount)
	sess.Eligibility = &result

	var reply string
	if result.IsEligible {
		reply = msgDocumentReview(result.EligibleAmount, result.Reason)
		sess.Step = models.StepDocumentReview
	} else {
		reply = msgDenied(result.Reason)
		sess.Step = models.StepFinalDecision
		sess.Outcome = models.OutcomeNotEligible
		sess.OutcomeText = reply
	}
	sess.Append(models.RoleAgent, reply)

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}

	res := o.result(sess, reply)
	res.Eligibility = &result
	return res, nil
}

// ReviewAgreement completes the document review: acceptance approves the
// application, rejection terminates it on its own failure branch.
func (o *Orchestrator) ReviewAgreement(ctx context.Context, userID string, accepted bool) (*TurnResult, error) {
	unlock := o.sessions.Lock(userID)
	defer unlock()
	defer o.observeTurn(models.StepDocumentReview, time.Now())

	sess, err := o.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Step != models.StepDocumentReview {
		return nil, o.wrongStep("agreement", sess.Step)
	}

	var reply string
	if accepted {
		amount := ""
		if sess.Eligibility != nil {
			amount = fmt.Sprintf("$%.2f", sess.Eligibility.RequestedAmount)
		}
		sess.Append(models.RoleUser, "accept")
		reply = o.agentReply(ctx, sess, promptApproved, map[string]string{"amount": amount})
		sess.Outcome = models.OutcomeApproved
	} else {
		sess.Append(models.RoleUser, "decline")
		reply = msgAgreementRejected
		sess.Outcome = models.OutcomeAgreementRejected
	}
	sess.OutcomeText = reply
	sess.Append(models.RoleAgent, reply)
	sess.Step = models.StepFinalDecision

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}
	return o.result(sess, reply), nil
}

// FinalConfirmation returns the terminal message and clears the session.
func (o *Orchestrator) FinalConfirmation(ctx context.Context, userID string) (*TurnResult, error) {
	unlock := o.sessions.Lock(userID)
	defer unlock()
	defer o.observeTurn(models.StepFinalDecision, time.Now())

	sess, err := o.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sess.Step.IsTerminal() {
		return nil, o.wrongStep("final_confirmation", sess.Step)
	}

	reply := sess.OutcomeText
	if reply == "" {
		reply = llm.Fallback(promptDenied, nil)
	}

	res := o.result(sess, reply)
	if err := o.sessions.Delete(ctx, userID); err != nil {
		return nil, err
	}
	o.updateSessionGauge(ctx)
	return res, nil
}

// Chat processes a free-form utterance: extraction runs first, progress is
// recomputed, and the full conversation log is replayed to the LLM. On an
// upstream failure the turn is not persisted, so the applicant can retry it
// without losing state; the reply is an apology rather than an error.
func (o *Orchestrator) Chat(ctx context.Context, userID, message string) (*TurnResult, error) {
	unlock := o.sessions.Lock(userID)
	defer unlock()
	start := time.Now()

	sess, err := o.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer o.observeTurn(sess.Step, start)

	history := make([]models.Message, len(sess.Log))
	copy(history, sess.Log)

	updated, matchedRules := extract.Extract(message, sess.Data)
	for _, rule := range matchedRules {
		metrics.ExtractionHits.WithLabelValues(rule).Inc()
	}
	sess.Data = updated
	sess.Append(models.RoleUser, message)

	reply, err := o.llm.Complete(ctx, llm.Request{Prompt: message, History: history})
	if err != nil {
		if commonerrors.IsRetryable(err) {
			o.logger.Warn("llm unavailable, turn not persisted", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
			stale, getErr := o.sessions.Get(ctx, userID)
			if getErr != nil {
				return nil, getErr
			}
			return o.result(stale, msgApology), nil
		}
		return nil, err
	}

	sess.Append(models.RoleAgent, reply)
	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}
	return o.result(sess, reply), nil
}

// RecordDocument appends uploaded-document metadata and recomputes progress.
func (o *Orchestrator) RecordDocument(ctx context.Context, userID, name string, sizeBytes int64, mimeType string) (*TurnResult, error) {
	unlock := o.sessions.Lock(userID)
	defer unlock()

	sess, err := o.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, commonerrors.NewInvalidInputError("name", "document name must not be empty")
	}

	sess.Data.Documents = append(sess.Data.Documents, models.DocumentMeta{
		ID:         uuid.NewString(),
		Name:       name,
		SizeBytes:  sizeBytes,
		MimeType:   mimeType,
		UploadedAt: time.Now().UTC(),
	})

	reply := fmt.Sprintf("Received %s. Thank you!", name)
	sess.Append(models.RoleAgent, reply)

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}
	return o.result(sess, reply), nil
}

// ParseLoanType resolves free text to a catalog entry using the same
// scan-order containment match as extraction: the catalog entry latest in
// scan order wins.
func ParseLoanType(raw string) (models.LoanType, bool) {
	lower := strings.ToLower(raw)
	var matched models.LoanType
	ok := false
	for _, t := range models.LoanTypeCatalog {
		full := strings.ToLower(string(t))
		first := strings.Split(full, " ")[0]
		if strings.Contains(lower, full) || strings.Contains(lower, first) {
			matched = t
			ok = true
		}
	}
	return matched, ok
}

// agentReply asks the LLM for a scripted-step reply and falls back to the
// canned response set when the provider is unavailable, so the fixed flow
// never stalls on an upstream outage.
func (o *Orchestrator) agentReply(ctx context.Context, sess *models.Session, prompt string, vars map[string]string) string {
	reply, err := o.llm.Complete(ctx, llm.Request{Prompt: prompt, History: sess.Log, Vars: vars})
	if err != nil {
		o.logger.Warn("llm unavailable, using canned reply", map[string]interface{}{
			"userId": sess.UserID,
			"error":  err.Error(),
		})
		return llm.Fallback(prompt, vars)
	}
	return reply
}

func (o *Orchestrator) result(sess *models.Session, message string) *TurnResult {
	flags := progress.Evaluate(sess.Data)
	return &TurnResult{
		Message:        message,
		NextStep:       sess.Step,
		Progress:       flags,
		Percent:        progress.Percent(flags),
		ActiveInput:    sess.Step.ActiveInput(),
		ReviewUnlocked: progress.ReviewUnlocked(flags),
		SubmitUnlocked: progress.SubmitUnlocked(flags),
	}
}

func (o *Orchestrator) persist(ctx context.Context, sess *models.Session) error {
	if err := o.sessions.Put(ctx, sess); err != nil {
		return err
	}
	o.updateSessionGauge(ctx)
	return nil
}

func (o *Orchestrator) updateSessionGauge(ctx context.Context) {
	if count, err := o.sessions.Count(ctx); err == nil {
		metrics.SessionsActive.Set(float64(count))
	}
}

func (o *Orchestrator) wrongStep(action string, step models.Step) error {
	return commonerrors.NewInvalidInputError(action,
		fmt.Sprintf("not valid at step %q", step))
}

func (o *Orchestrator) observeTurn(step models.Step, start time.Time) {
	metrics.TurnDuration.WithLabelValues(string(step)).Observe(time.Since(start).Seconds())
	metrics.TurnsProcessed.WithLabelValues(string(step), "processed").Inc()
}

func mergeProfile(data *models.ApplicationData, rec profile.Record) {
	if data.Personal.FullName == "" {
		data.Personal.FullName = rec.Name
	}
	data.Employment.MonthlyIncome = models.Float64(rec.MonthlyIncome)
	data.Financial.MonthlyExpenses = models.Float64(rec.MonthlyExpenses)
	data.Financial.ExistingDebt = models.Float64(rec.ExistingLoan)
}
