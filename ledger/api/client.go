// Package api implements the relay to the remote finance ledger API:
// one logical mutation per call, bounded retry with exponential
// backoff, and a three-way outcome classification. Callers never see a
// raw protocol error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"finbot/core/logger"
	"finbot/core/telegram/netutil"
	"finbot/ledger"
	"log/slog"
)

// OutcomeKind is the three-way classification of a relay call.
type OutcomeKind int

const (
	// Success means the API confirmed the mutation.
	Success OutcomeKind = iota
	// ApplicationFailure means the API answered but rejected the
	// mutation. Not retried: application rejections are not transient.
	ApplicationFailure
	// TransportFailure means the call never produced a usable answer
	// after the full retry budget.
	TransportFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case ApplicationFailure:
		return "application_failure"
	case TransportFailure:
		return "transport_failure"
	}
	return "unknown"
}

// Outcome is the result of one logical relay call.
type Outcome struct {
	Kind    OutcomeKind
	Payload map[string]any
	Message string
}

// statusField is the discriminator the API sets on every response.
const statusField = "status"

// statusSuccess is the literal the API uses to confirm a mutation.
const statusSuccess = "success"

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
	defaultTimeout  = 10 * time.Second
)

// Config describes one remote ledger API target.
type Config struct {
	// BaseURL without a trailing slash, e.g. "https://ledger.local/api".
	BaseURL string
	// Timeout bounds a single attempt; 0 -> default.
	Timeout time.Duration
	// Attempts is the total attempt budget per logical call; 0 -> 3.
	Attempts int
	// Backoff is the base delay; attempt n sleeps Backoff * 2^n.
	Backoff time.Duration
}

// Client relays mutations to the remote ledger API.
type Client struct {
	cfg  Config
	http *http.Client

	// after is swapped in tests to observe backoff without waiting.
	after func(time.Duration) <-chan time.Time
}

// New builds a relay client, applying defaults for zeroed options.
func New(cfg Config) *Client {
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		after: time.After,
	}
}

// Mutate relays one mutation request and classifies the outcome.
func (c *Client) Mutate(ctx context.Context, req ledger.MutationRequest) Outcome {
	return c.Execute(ctx, req.Method(), req.Endpoint(), req.Query(), req.Body())
}

// Execute performs one logical call against the API. Transport errors
// and 4xx/5xx statuses are retried with exponential backoff; an answer
// whose status discriminator is not "success" is a terminal
// ApplicationFailure.
func (c *Client) Execute(ctx context.Context, method, endpoint string, query url.Values, body any) Outcome {
	var encoded []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Outcome{Kind: TransportFailure, Message: fmt.Sprintf("encode request body: %v", err)}
		}
		encoded = data
	}

	target := c.cfg.BaseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.Attempts; attempt++ {
		if attempt > 0 {
			delay := c.cfg.Backoff * time.Duration(1<<(attempt-1))
			logger.Debug(ctx, "ledger.api", "relay.backoff",
				slog.String("method", method),
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt),
				slog.Int64("backoff_ms", delay.Milliseconds()),
			)
			select {
			case <-ctx.Done():
				return Outcome{Kind: TransportFailure, Message: ctx.Err().Error()}
			case <-c.after(delay):
			}
		}

		payload, err := c.attempt(ctx, method, target, encoded)
		if err != nil {
			lastErr = err
			logger.Warn(ctx, "ledger.api", "relay.retry",
				slog.String("method", method),
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt+1),
				slog.Int("attempts", c.cfg.Attempts),
				slog.String("err", err.Error()),
			)
			continue
		}

		if status, _ := payload[statusField].(string); status == statusSuccess {
			logger.Debug(ctx, "ledger.api", "relay.success",
				slog.String("method", method),
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt+1),
			)
			return Outcome{Kind: Success, Payload: payload}
		}

		logger.Warn(ctx, "ledger.api", "relay.rejected",
			slog.String("method", method),
			slog.String("endpoint", endpoint),
			slog.Int("attempt", attempt+1),
		)
		return Outcome{
			Kind:    ApplicationFailure,
			Payload: payload,
			Message: "ledger api rejected the request",
		}
	}

	msg := fmt.Sprintf("no response after %d attempts", c.cfg.Attempts)
	if lastErr != nil {
		msg = fmt.Sprintf("%s: %v", msg, lastErr)
	}
	logger.Error(ctx, "ledger.api", "relay.fail",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("attempts", c.cfg.Attempts),
		slog.String("err", msg),
		slog.String("err_code", "TRANSPORT_FAILURE"),
	)
	return Outcome{Kind: TransportFailure, Message: msg}
}

// attempt performs a single HTTP exchange. Any error it returns is
// transport-level and eligible for retry.
func (c *Client) attempt(ctx context.Context, method, target string, body []byte) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if netutil.RetryableStatus(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("ledger api status %s", resp.Status)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload, nil
}
