// internal/models/step.go
package models

// Step is a position in the fixed conversational flow. Progression is forward
// only, except for the explicit failure branches that jump straight to
// StepFinalDecision.
type Step string

const (
	StepGreeting         Step = "greeting"
	StepLoanType         Step = "loan_type"
	StepConfirmData      Step = "confirm_data"
	StepLoanAmount       Step = "loan_amount"
	StepEligibilityCheck Step = "eligibility_check"
	StepDocumentReview   Step = "document_review"
	StepFinalDecision    Step = "final_decision"
)

// StepOrder is the canonical forward sequence.
var StepOrder = []Step{
	StepGreeting,
	StepLoanType,
	StepConfirmData,
	StepLoanAmount,
	StepEligibilityCheck,
	StepDocumentReview,
	StepFinalDecision,
}

// IsTerminal reports whether the flow is exhausted at s.
func (s Step) IsTerminal() bool {
	return s == StepFinalDecision
}

// InputMode names the UI affordance that is active for the current step.
type InputMode string

const (
	InputLoanTypeSelect InputMode = "loan_type_select"
	InputConfirm        InputMode = "confirm"
	InputAmount         InputMode = "amount"
	InputAgreement      InputMode = "agreement"
	InputFreeText       InputMode = "text"
)

// ActiveInput maps a step to the input widget the front end should enable.
// Once the flow is terminal only free-form chat remains.
func (s Step) ActiveInput() InputMode {
	switch s {
	case StepLoanType:
		return InputLoanTypeSelect
	case StepConfirmData:
		return InputConfirm
	case StepLoanAmount, StepEligibilityCheck:
		return InputAmount
	case StepDocumentReview:
		return InputAgreement
	default:
		return InputFreeText
	}
}
