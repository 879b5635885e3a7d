// internal/llm/fallback.go
package llm

import (
	"fmt"
	"strings"
)

// Fallback selects a canned agent reply keyed on the instruction prompt. It
// backs mock mode (no API key configured) so the whole flow works offline.
func Fallback(prompt string, vars map[string]string) string {
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "greet"):
		name := vars["name"]
		if name == "" {
			name = "valued customer"
		}
		return fmt.Sprintf("Hello %s! Welcome to our loan processing system. I'm here to help you with your loan application. What type of loan are you interested in today? We offer:\n\n- Personal Loans (up to $50,000)\n- Home Loans (up to $500,000)\n- Auto Loans (up to $75,000)\n- Business Loans (up to $200,000)", name)

	case strings.Contains(lower, "confirm") && strings.Contains(lower, "data"):
		return "I've retrieved your information from our system. Please review the details above and confirm if everything looks correct. You can type 'confirm' to proceed or 'edit' if you need to make any changes."

	case strings.Contains(lower, "loan amount"):
		return "Great! Now, please enter the loan amount you'd like to apply for. I'll check your eligibility based on your financial profile."

	case strings.Contains(lower, "approved"):
		amount := vars["amount"]
		if amount == "" {
			amount = "the requested amount"
		}
		return fmt.Sprintf("Congratulations! Your loan application for %s has been approved! Our team will contact you within 24-48 hours to discuss the next steps and finalize the documentation. Thank you for choosing our services!", amount)

	case strings.Contains(lower, "denied"):
		return "I'm sorry, but based on our current assessment, we're unable to approve your loan request at this time. This could be due to various factors including debt-to-income ratio or credit requirements. Our financial advisors can help you improve your eligibility. Would you like to schedule a consultation?"
	}

	return "I'm here to help with your loan application. Please let me know how I can assist you."
}
