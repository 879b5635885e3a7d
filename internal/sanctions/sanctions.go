// Package sanctions implements the compliance screen gating data
// confirmation. The result is an opaque pass/fail with a status message. The
// screen is simulated: a static sanctioned-name list plus a deterministic
// manual-review band derived from the name itself, so the same applicant
// always screens the same way.
package sanctions

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	"loanflow/internal/common/config"
	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
)

// reviewBand: names hashing into the top 5% are flagged for manual review.
const reviewBand = 95

type Screener struct {
	names   map[string]struct{}
	delay   time.Duration
	timeout time.Duration
	logger  logger.Logger
}

func NewScreener(cfg config.SanctionsConfig, log logger.Logger) *Screener {
	names := make(map[string]struct{}, len(cfg.SanctionedNames))
	for _, n := range cfg.SanctionedNames {
		names[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return &Screener{
		names:   names,
		delay:   time.Duration(cfg.SimulatedDelay) * time.Millisecond,
		timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		logger:  log.WithFields(map[string]interface{}{"component": "sanctions"}),
	}
}

// Check screens the given name. A timeout surfaces as a retryable upstream
// error, never as a silent failure result.
func (s *Screener) Check(ctx context.Context, name string) (bool, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Simulated upstream latency.
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return false, "", commonerrors.NewUpstreamUnavailableError("sanctions", ctx.Err())
	}

	normalized := strings.ToLower(strings.TrimSpace(name))
	if _, listed := s.names[normalized]; listed {
		s.logger.Warn("sanctions list match", map[string]interface{}{"name": name})
		return false, "Name found on sanctions list", nil
	}

	if hashBucket(normalized) >= reviewBand {
		s.logger.Info("manual review flagged", map[string]interface{}{"name": name})
		return false, "Potential match found - manual review required", nil
	}

	return true, "OFAC check passed", nil
}

func hashBucket(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % 100)
}
