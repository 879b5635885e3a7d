// internal/api/router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires all endpoints behind the logging, CORS and rate-limit
// middleware chain. The metrics endpoint sits outside the rate limiter so
// scrapes are never throttled.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware, s.corsMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	limited := r.NewRoute().Subrouter()
	limited.Use(s.rateLimitMiddleware)

	limited.HandleFunc("/greet_user", s.handleGreetUser).Methods(http.MethodPost)
	limited.HandleFunc("/fetch_user_data", s.handleFetchUserData).Methods(http.MethodPost)
	limited.HandleFunc("/confirm_user_data", s.handleConfirmUserData).Methods(http.MethodPost)
	limited.HandleFunc("/ask_loan_amount", s.handleAskLoanAmount).Methods(http.MethodPost)
	limited.HandleFunc("/calculate_eligibility", s.handleCalculateEligibility).Methods(http.MethodPost)
	limited.HandleFunc("/review_agreement", s.handleReviewAgreement).Methods(http.MethodPost)
	limited.HandleFunc("/final_confirmation", s.handleFinalConfirmation).Methods(http.MethodPost)
	limited.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	limited.HandleFunc("/upload_document", s.handleUploadDocument).Methods(http.MethodPost)
	limited.HandleFunc("/download-loan-agreement", s.handleDownloadAgreement).Methods(http.MethodGet)
	limited.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	// Preflight requests match here so the CORS middleware can answer them.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {})

	return r
}
