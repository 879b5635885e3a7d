// Package extract scans a single free-text utterance and opportunistically
// populates structured application fields. Extraction never fails: an
// utterance with no recognizable pattern leaves the snapshot untouched.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"loanflow/internal/models"
)

// Rule is one independent extractor. Apply returns the (possibly updated)
// snapshot and whether the rule matched. Rules never unset a field.
type Rule struct {
	Name  string
	Apply func(utterance string, data models.ApplicationData) (models.ApplicationData, bool)
}

// Rules is the fixed application order. All rules run on every turn; within a
// turn a later rule may overwrite what an earlier one set for the same field.
var Rules = []Rule{
	{Name: "name", Apply: applyName},
	{Name: "email", Apply: applyEmail},
	{Name: "phone", Apply: applyPhone},
	{Name: "employer", Apply: applyEmployer},
	{Name: "income", Apply: applyIncome},
	{Name: "loan_type", Apply: applyLoanType},
	{Name: "loan_amount", Apply: applyLoanAmount},
	{Name: "purpose", Apply: applyPurpose},
	{Name: "expenses", Apply: applyExpenses},
}

// Extract applies every rule in order and reports which rules matched.
func Extract(utterance string, data models.ApplicationData) (models.ApplicationData, []string) {
	var matched []string
	for _, r := range Rules {
		var hit bool
		data, hit = r.Apply(utterance, data)
		if hit {
			matched = append(matched, r.Name)
		}
	}
	return data, matched
}

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)my name is\s+([a-zA-Z][a-zA-Z ]*)`),
		regexp.MustCompile(`(?i)\bi'm\s+([a-zA-Z][a-zA-Z ]*)`),
		regexp.MustCompile(`(?i)\bi am\s+([a-zA-Z][a-zA-Z ]*)`),
		regexp.MustCompile(`(?i)\bname:\s*([a-zA-Z][a-zA-Z ]*)`),
	}

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Loose 10-digit pattern allowing separators and parentheses.
	phonePattern = regexp.MustCompile(`\(?[0-9]{3}\)?[\s.\-]?[0-9]{3}[\s.\-]?[0-9]{4}`)

	employerPattern = regexp.MustCompile(`(?i)(?:work at|employed at|employer is|company is)\s+([^,.]+)`)

	incomePattern = regexp.MustCompile(`(?i)(?:make|earn|income is|salary is)\s+\$?([0-9][0-9,]*(?:\.[0-9]+)?)`)

	amountPattern = regexp.MustCompile(`(?i)(?:need|borrow|loan for|amount of)\s+\$?([0-9][0-9,]*(?:\.[0-9]+)?)`)

	moneyPattern = regexp.MustCompile(`\$?[0-9][0-9,]*(?:\.[0-9]+)?`)
)

func applyName(utterance string, data models.ApplicationData) (models.ApplicationData, bool) {
	for _, p := range namePatterns {
		m := p.FindStringSubmatch(utterance)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if len(candidate) > 2 {
			data.Personal.FullName = candidate
			return data, true
		}
	}
	return data, false
}

func applyEmail(utterance string, data models.ApplicationData) (models.ApplicationData, bool) {
	if m := emailPattern.FindString(utterance); m != "" {
		data.Personal.Email = m
		return data, true
	}
	return data, false
}

func applyPhone(utterance string, data models.ApplicationData) (models.ApplicationData, bool) {
	if m := phonePattern.FindString(utterance); m != "" {
		data.Personal.Phone = m
		return data, true
	}
	return data, false
}

func applyEmployer(utterance string, data models.ApplicationData) (models.ApplicationData, bool) {
	m := employerPattern.FindStringSubmatch(utterance)
	if m == nil {
		return data, false
	}
	candidate := strings.TrimSpace(m[1])
	if len(candidate) <= 2 {
		return data, false
	}
	data.Employment.Employer = candidate
	return data, true
}

func applyIncome(utterance string, data models.ApplicationData) (models.ApplicationData, bool) {
	m := incomePattern.FindStringSubmatch(utterance)
	if m == nil {
		return data, false
	}
	v, err := parseMoney(m[1])
	if err != nil {
		return data, false
	}
	data.Employment.MonthlyIncome = models.Float64(v)
	return data, true
}

// applyLoanType scans the product catalog in declared order and keeps
// overwriting, so the catalog entry latest in scan order wins when an
// utterance mentions several products. The tie-break is deliberate policy,
// not a loop accident.
func applyLoanType(utterance string, data models.ApplicationData) (models.ApplicationData, bool) {
	lower := strings.ToLower(utterance)
	matched := false
	for _, t := range models.LoanTypeCatalog {
		full := strings.ToLower(string(t))
		first := strings.Split(full, " ")[0]
		if strings.Contains(lower, full) || strings.Contains(lower, first) {
			data.Loan.Type = t
			matched = true
		}
	}
	return data, matched
}

func applyLoanAmount(utterance string, data models.ApplicationData) (models.ApplicationData, bool) {
	m := amountPattern.FindStringSubmatch(utterance)
	if m == nil {
		return data, false
	}
	v, err := parseMoney(m[1])
	if err != nil {
		return data, false
	}
	data.Loan.AmountRequested = models.Float64(v)
	return data, true
}

// applyPurpose is a mutually exclusive keyword cascade: the first matching
// category wins.
func applyPurpose(utterance string, data models.ApplicationData) (models.ApplicationData, bool) {
	lower := strings.ToLower(utterance)
	switch {
	case containsAny(lower, "car", "vehicle", "auto"):
		data.Loan.Purpose = "Vehicle purchase"
	case containsAny(lower, "house", "home", "property"):
		data.Loan.Purpose = "Home purchase"
	case containsAny(lower, "business", "company"):
		data.Loan.Purpose = "Business expansion"
	default:
		return data, false
	}
	return data, true
}

// applyExpenses takes the first dollar-like number anywhere in the message
// once an expense keyword is present. The number is not anchored to the
// keyword, so an unrelated figure in the same sentence can be captured; that
// looseness is preserved intentionally.
func applyExpenses(utterance string, data models.ApplicationData) (models.ApplicationData, bool) {
	lower := strings.ToLower(utterance)
	if !strings.Contains(lower, "expenses") && !strings.Contains(lower, "spend") {
		return data, false
	}
	m := moneyPattern.FindString(utterance)
	if m == "" {
		return data, false
	}
	v, err := parseMoney(strings.TrimPrefix(m, "$"))
	if err != nil {
		return data, false
	}
	data.Financial.MonthlyExpenses = models.Float64(v)
	return data, true
}

func parseMoney(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
