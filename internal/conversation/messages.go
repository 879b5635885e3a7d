// internal/conversation/messages.go
package conversation

import "fmt"

// Instruction prompts handed to the LLM for the scripted steps. The canned
// fallback set keys off these, so mock mode and live mode stay in step.
const (
	promptGreet       = "Greet the user %s and ask what type of loan they're interested in"
	promptConfirmData = "Ask user to confirm their data and explain next step is to enter loan amount"
	promptAskAmount   = "Ask the user to enter their desired loan amount"
	promptApproved    = "Generate an approval message for the loan approved application"
	promptDenied      = "Generate a denial message for the loan denied application"
)

// Terminal failure branches carry specific remediation text, never a generic
// error message.
const (
	msgSanctionsFailure = "We're sorry, but we are unable to proceed with your application at this time due to a compliance screening result. Please visit your nearest branch with valid identification for further assistance."

	msgAgreementRejected = "You have declined the loan agreement, so this application will not proceed. If you change your mind you can start a new application at any time, or contact your nearest branch to speak with an advisor."

	msgApology = "I'm sorry, I'm having trouble responding right now. Please try sending your message again in a moment."
)

func msgDocumentReview(eligibleAmount float64, reason string) string {
	return fmt.Sprintf("Good news! %s Please download the loan agreement, review it carefully, and accept or decline to complete your application. You are approved for up to $%.2f.", reason, eligibleAmount)
}

func msgDenied(reason string) string {
	return fmt.Sprintf("I'm sorry, but based on our current assessment we're unable to approve your loan request at this time. %s Our financial advisors can help you improve your eligibility - would you like to schedule a consultation?", reason)
}
