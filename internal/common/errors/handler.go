// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorResponse is the JSON envelope returned for every non-2xx response.
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	ErrorCode string                 `json:"error_code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details"`
	Timestamp string                 `json:"timestamp"`
}

// HTTPStatus maps an error code to its HTTP status. 4xx responses are
// non-retryable client errors, 429 and 5xx are retryable.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUserNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeLLMTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as the JSON error envelope with the mapped status.
func WriteError(w http.ResponseWriter, err error) {
	se, ok := err.(*StandardError)
	if !ok {
		se = NewInternalError(err)
	}

	resp := ErrorResponse{
		Error:     true,
		ErrorCode: string(se.Code),
		Message:   se.Message,
		Details:   se.Metadata,
		Timestamp: se.Timestamp.Format(time.RFC3339),
	}
	if resp.Details == nil {
		resp.Details = map[string]interface{}{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(se.Code))
	_ = json.NewEncoder(w).Encode(resp)
}
