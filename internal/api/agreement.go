// internal/api/agreement.go
package api

import (
	_ "embed"
	"net/http"
)

// The agreement document ships inside the binary so the download endpoint
// has no filesystem dependency.
//
//go:embed assets/loan_agreement.md
var loanAgreement []byte

func (s *Server) handleDownloadAgreement(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="loan_agreement.md"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(loanAgreement)
}
