// Package llm is the chat-completions client behind the conversational agent.
// The provider is treated as an opaque text-completion oracle: system prompt
// plus message history in, free text out. Transient failures (network, 429,
// 5xx) are retried with exponential backoff; client errors are not.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"loanflow/internal/common/config"
	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/common/metrics"
	"loanflow/internal/models"
)

const systemPrompt = `You are a professional loan processing agent working for LoanFlow. Your role is to help customers apply for loans by collecting necessary information through natural conversation.

IMPORTANT GUIDELINES:
1. Be professional, friendly, and helpful
2. Ask follow-up questions to clarify or validate information
3. Provide helpful guidance about loan requirements and processes
4. Keep responses concise but informative
5. Always maintain a conversational tone`

// Request is one completion request: the instruction prompt, the replayed
// conversation history, and template variables for the canned fallbacks.
type Request struct {
	Prompt  string
	History []models.Message
	Vars    map[string]string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg config.LLMConfig, log logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		// No client timeout; the per-request context bounds each call.
		httpClient: &http.Client{},
		logger:     log.WithFields(map[string]interface{}{"component": "llm"}),
	}
}

// Complete generates the agent's reply. Without an API key configured the
// client runs in mock mode and answers from the canned response set.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.cfg.APIKey == "" {
		return Fallback(req.Prompt, req.Vars), nil
	}

	start := time.Now()
	reply, err := c.complete(ctx, req)
	metrics.LLMRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.LLMRequests.WithLabelValues("ok").Inc()
	return reply, nil
}

func (c *Client) complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.Timeout)*time.Millisecond)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    c.buildMessages(req),
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal llm request: %w", err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(c.cfg.RetryBaseDelay*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", commonerrors.NewLLMTimeoutError(ctx.Err())
			}
		}

		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
		if reqErr != nil {
			return "", fmt.Errorf("create llm request: %w", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, lastErr = c.httpClient.Do(httpReq)
		if ctx.Err() != nil {
			return "", commonerrors.NewLLMTimeoutError(ctx.Err())
		}
		if lastErr != nil {
			continue
		}
		if resp.StatusCode == http.StatusOK {
			break
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		resp.Body.Close()
		lastErr = fmt.Errorf("llm status %d", resp.StatusCode)
		resp = nil
		if !retryable {
			// A definitive client error will not improve on retry.
			return "", commonerrors.NewUpstreamUnavailableError("llm", lastErr)
		}
	}

	if lastErr != nil || resp == nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", commonerrors.NewLLMTimeoutError(ctx.Err())
		}
		return "", commonerrors.NewUpstreamUnavailableError("llm", lastErr)
	}
	defer resp.Body.Close()

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", commonerrors.NewUpstreamUnavailableError("llm", fmt.Errorf("decode response: %w", err))
	}
	if len(payload.Choices) == 0 {
		return "", commonerrors.NewUpstreamUnavailableError("llm", fmt.Errorf("no choices in response"))
	}
	return payload.Choices[0].Message.Content, nil
}

// buildMessages replays the conversation log as provider context. Replay is
// unbounded unless max_history_messages is set; bounding it is an explicit
// operator opt-in, not a default.
func (c *Client) buildMessages(req Request) []chatMessage {
	history := req.History
	if c.cfg.MaxHistoryMessages > 0 && len(history) > c.cfg.MaxHistoryMessages {
		history = history[len(history)-c.cfg.MaxHistoryMessages:]
	}

	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	for _, m := range history {
		role := "user"
		if m.Role == models.RoleAgent {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	return messages
}
