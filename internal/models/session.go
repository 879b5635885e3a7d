// internal/models/session.go
package models

import "time"

// OutcomeReason distinguishes the terminal branches of the flow. Failure
// branches carry specific remediation messaging, never a generic error.
type OutcomeReason string

const (
	OutcomeApproved          OutcomeReason = "approved"
	OutcomeSanctionsFailed   OutcomeReason = "sanctions_failed"
	OutcomeNotEligible       OutcomeReason = "not_eligible"
	OutcomeAgreementRejected OutcomeReason = "agreement_rejected"
)

// Session is the per-applicant conversational state: the structured snapshot,
// the full log, and the current step. It is owned by the orchestrator; all
// turn processing for a session is serialized through the store's lock.
type Session struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	Step          Step               `json:"step"`
	Data          ApplicationData    `json:"data"`
	Log           []Message          `json:"log"`
	OFACClear     bool               `json:"ofacClear"`
	OFACStatus    string             `json:"ofacStatus,omitempty"`
	ProfileLoaded bool               `json:"profileLoaded"`
	Eligibility   *EligibilityResult `json:"eligibility,omitempty"`
	Outcome       OutcomeReason      `json:"outcome,omitempty"`
	OutcomeText   string             `json:"outcomeText,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Append adds a message to the conversation log and bumps UpdatedAt.
func (s *Session) Append(role Role, content string) {
	now := time.Now().UTC()
	s.Log = append(s.Log, Message{Role: role, Content: content, Timestamp: now})
	s.UpdatedAt = now
}
