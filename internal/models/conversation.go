// internal/models/conversation.go
package models

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one entry in the append-only conversation log.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// EligibilityResult is the computed outcome of an eligibility check. It is
// returned to the caller and snapshotted on the session; it is never stored
// independently.
type EligibilityResult struct {
	RequestedAmount float64 `json:"requested_amount"`
	EligibleAmount  float64 `json:"eligible_amount"`
	IsEligible      bool    `json:"is_eligible"`
	InterestRatePct float64 `json:"interest_rate_pct"`
	TermYears       int     `json:"term_years"`
	MonthlyPayment  float64 `json:"monthly_payment"`
	TotalPayment    float64 `json:"total_payment"`
	TotalInterest   float64 `json:"total_interest"`
	RiskScore       int     `json:"risk_score"`
	Reason          string  `json:"reason"`
}
