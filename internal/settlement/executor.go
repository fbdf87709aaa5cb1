// Package settlement executes payout instructions against the external
// custody collaborator. Market state is final before anything here runs: a
// failed payout is recorded and retried, never allowed to touch a RESOLVED
// market.
package settlement

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Executor performs a single payout against the custody collaborator.
type Executor interface {
	ExecutePayout(ctx context.Context, address common.Address, amount float64, sessionRef string) error
}

// payoutRequest is the wire body posted to the settlement endpoint.
type payoutRequest struct {
	Address    common.Address `json:"address"`
	Amount     float64        `json:"amount"`
	SessionRef string         `json:"session_ref"`
}

// HTTPExecutor posts payouts to a settlement endpoint, rate limited so a
// large resolution does not hammer the collaborator.
type HTTPExecutor struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// HTTPConfig holds HTTP executor configuration.
type HTTPConfig struct {
	Endpoint          string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Logger            *zap.Logger
}

// NewHTTP creates an HTTP payout executor.
func NewHTTP(cfg HTTPConfig) *HTTPExecutor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	return &HTTPExecutor{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		logger:   cfg.Logger,
	}
}

// ExecutePayout posts one payout. Any non-2xx response is a failure; the
// response body is carried in the error for the tracker's record.
func (e *HTTPExecutor) ExecutePayout(ctx context.Context, address common.Address, amount float64, sessionRef string) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payoutRequest{
		Address:    address,
		Amount:     amount,
		SessionRef: sessionRef,
	})
	if err != nil {
		return fmt.Errorf("encode payout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build payout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	RequestDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("post payout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("settlement endpoint returned %d: %s", resp.StatusCode, string(snippet))
	}

	e.logger.Debug("payout-executed",
		zap.String("address", address.Hex()),
		zap.Float64("amount", amount),
		zap.String("session-ref", sessionRef))

	return nil
}
