// internal/models/application.go
package models

import "time"

// LoanType identifies one of the four loan products on offer.
type LoanType string

const (
	LoanTypePersonal LoanType = "Personal Loan"
	LoanTypeHome     LoanType = "Home Loan"
	LoanTypeAuto     LoanType = "Auto Loan"
	LoanTypeBusiness LoanType = "Business Loan"
)

// LoanTypeCatalog lists the products in their declared scan order. Extraction
// scans the catalog front to back and keeps overwriting, so when an utterance
// mentions more than one product the entry latest in this slice wins.
var LoanTypeCatalog = []LoanType{
	LoanTypePersonal,
	LoanTypeHome,
	LoanTypeAuto,
	LoanTypeBusiness,
}

// Ceiling returns the product's maximum loan amount.
func (t LoanType) Ceiling() float64 {
	switch t {
	case LoanTypeHome:
		return 500_000
	case LoanTypeAuto:
		return 75_000
	case LoanTypeBusiness:
		return 200_000
	default:
		return 50_000
	}
}

// BaseRatePct returns the product's base annual interest rate before risk
// adjustment.
func (t LoanType) BaseRatePct() float64 {
	switch t {
	case LoanTypeHome:
		return 6.5
	case LoanTypeAuto:
		return 7.5
	case LoanTypeBusiness:
		return 9.0
	default:
		return 10.5
	}
}

// DefaultTermYears returns the amortization term used when the applicant has
// not asked for one.
func (t LoanType) DefaultTermYears() int {
	switch t {
	case LoanTypeHome:
		return 30
	case LoanTypeAuto:
		return 6
	case LoanTypeBusiness:
		return 10
	default:
		return 5
	}
}

// PersonalInfo holds contact fields collected from conversation. Empty string
// means not yet extracted.
type PersonalInfo struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// EmploymentInfo holds employer and income fields. A nil income means the
// figure has not been collected yet.
type EmploymentInfo struct {
	Employer      string   `json:"employer,omitempty"`
	MonthlyIncome *float64 `json:"monthlyIncome,omitempty"`
}

// LoanInfo holds the product selection and requested terms.
type LoanInfo struct {
	Type            LoanType `json:"type,omitempty"`
	AmountRequested *float64 `json:"amountRequested,omitempty"`
	Purpose         string   `json:"purpose,omitempty"`
	TermYears       int      `json:"termYears,omitempty"`
}

// FinancialInfo holds the applicant's outgoings and existing obligations.
type FinancialInfo struct {
	MonthlyExpenses *float64 `json:"monthlyExpenses,omitempty"`
	ExistingDebt    *float64 `json:"existingDebt,omitempty"`
}

// DocumentMeta records an uploaded document. Only metadata is kept; the bytes
// live with the storage collaborator.
type DocumentMeta struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"sizeBytes"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ApplicationData is the per-session structured snapshot. Fields are only ever
// set or overwritten by a later extraction match; nothing resets a field back
// to unset.
type ApplicationData struct {
	Personal   PersonalInfo   `json:"personal"`
	Employment EmploymentInfo `json:"employment"`
	Loan       LoanInfo       `json:"loan"`
	Financial  FinancialInfo  `json:"financial"`
	Documents  []DocumentMeta `json:"documents,omitempty"`
}

// ProgressFlags are the five section-completion booleans, always recomputed
// from the ApplicationData snapshot rather than updated incrementally.
type ProgressFlags struct {
	Personal   bool `json:"personal"`
	Employment bool `json:"employment"`
	Loan       bool `json:"loan"`
	Financial  bool `json:"financial"`
	Documents  bool `json:"documents"`
}

// Float64 returns a pointer to v, for populating optional numeric fields.
func Float64(v float64) *float64 {
	return &v
}
