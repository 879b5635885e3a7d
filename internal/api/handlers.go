// Package api exposes the conversational loan flow over HTTP. Each scripted
// step has its own endpoint; free-form turns go through /chat. All error
// responses share the JSON envelope from the errors package.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/conversation"
	"loanflow/internal/profile"
	"loanflow/internal/session"
)

type Server struct {
	orch     *conversation.Orchestrator
	sessions session.Store
	profiles *profile.Store
	limiter  *rateLimiter
	logger   logger.Logger

	allowedOrigins []string
	appName        string
	appVersion     string
}

type Options struct {
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   int // seconds
	AppName           string
	AppVersion        string
}

func NewServer(
	orch *conversation.Orchestrator,
	sessions session.Store,
	profiles *profile.Store,
	opts Options,
	log logger.Logger,
) *Server {
	return &Server{
		orch:           orch,
		sessions:       sessions,
		profiles:       profiles,
		limiter:        newRateLimiter(opts.RateLimitRequests, opts.RateLimitWindow),
		logger:         log.WithFields(map[string]interface{}{"component": "api"}),
		allowedOrigins: opts.AllowedOrigins,
		appName:        opts.AppName,
		appVersion:     opts.AppVersion,
	}
}

type greetRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type fetchUserDataRequest struct {
	UserID   string `json:"user_id"`
	LoanType string `json:"loan_type"`
}

type userOnlyRequest struct {
	UserID string `json:"user_id"`
}

type loanAmountRequest struct {
	UserID     string  `json:"user_id"`
	LoanAmount float64 `json:"loan_amount"`
}

type reviewAgreementRequest struct {
	UserID   string `json:"user_id"`
	Accepted bool   `json:"accepted"`
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type uploadDocumentRequest struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
}

func (s *Server) handleGreetUser(w http.ResponseWriter, r *http.Request) {
	var req greetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		commonerrors.WriteError(w, commonerrors.NewInvalidInputError("user_id", "must not be empty"))
		return
	}
	result, err := s.orch.Greet(r.Context(), req.UserID, req.Name)
	s.respond(w, result, err)
}

func (s *Server) handleFetchUserData(w http.ResponseWriter, r *http.Request) {
	var req fetchUserDataRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		commonerrors.WriteError(w, commonerrors.NewInvalidInputError("user_id", "must not be empty"))
		return
	}
	result, err := s.orch.SelectLoanType(r.Context(), req.UserID, req.LoanType)
	s.respond(w, result, err)
}

func (s *Server) handleConfirmUserData(w http.ResponseWriter, r *http.Request) {
	var req userOnlyRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.orch.ConfirmData(r.Context(), req.UserID)
	s.respond(w, result, err)
}

func (s *Server) handleAskLoanAmount(w http.ResponseWriter, r *http.Request) {
	var req userOnlyRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.orch.AskLoanAmount(r.Context(), req.UserID)
	s.respond(w, result, err)
}

func (s *Server) handleCalculateEligibility(w http.ResponseWriter, r *http.Request) {
	var req loanAmountRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.orch.SubmitAmount(r.Context(), req.UserID, req.LoanAmount)
	s.respond(w, result, err)
}

func (s *Server) handleReviewAgreement(w http.ResponseWriter, r *http.Request) {
	var req reviewAgreementRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.orch.ReviewAgreement(r.Context(), req.UserID, req.Accepted)
	s.respond(w, result, err)
}

func (s *Server) handleFinalConfirmation(w http.ResponseWriter, r *http.Request) {
	var req userOnlyRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.orch.FinalConfirmation(r.Context(), req.UserID)
	s.respond(w, result, err)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		commonerrors.WriteError(w, commonerrors.NewInvalidInputError("message", "must not be empty"))
		return
	}
	result, err := s.orch.Chat(r.Context(), req.UserID, req.Message)
	s.respond(w, result, err)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var req uploadDocumentRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.orch.RecordDocument(r.Context(), req.UserID, req.Name, req.SizeBytes, req.MimeType)
	s.respond(w, result, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   s.appName,
		"version":   s.appVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.sessions.Count(r.Context())
	if err != nil {
		commonerrors.WriteError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"active_sessions":    count,
		"profile_cache_size": s.profiles.CacheSize(),
		"status":             "operational",
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		commonerrors.WriteError(w, commonerrors.NewInvalidInputError("body", "malformed JSON"))
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, result *conversation.TurnResult, err error) {
	if err != nil {
		commonerrors.WriteError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", map[string]interface{}{"error": err.Error()})
	}
}
