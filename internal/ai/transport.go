package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

// transport runs one logical request with retries shared by every runtime.
// 429 and 5xx responses and transient network errors are retried with
// jittered exponential backoff; a Retry-After header overrides the backoff.
type transport struct {
	client      *http.Client
	host        string
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func newTransport(host string, cfg RuntimeConfig) *transport {
	return &transport{
		client:      &http.Client{Timeout: cfg.HTTPTimeout},
		host:        host,
		maxAttempts: cfg.RetryMax,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
	}
}

// do sends the request produced by build and hands a 2xx response to decode.
// build is called once per attempt so the body can be replayed.
func (t *transport) do(ctx context.Context, build func() (*http.Request, error), decode func(*http.Response) error) error {
	backoff := t.baseDelay
	attempts := max(t.maxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		req, err := build()
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = &UnreachableError{Host: t.host, Err: err}
			if isRetryableNetErr(err) && attempt < attempts {
				if err := sleepCtx(ctx, t.backoff(backoff)); err != nil {
					return err
				}
				backoff *= 2
				continue
			}
			return lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := readAPIError(resp)
			resp.Body.Close()
			lastErr = classifyAPIError(apiErr, resp)
			retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			if !retryable || attempt == attempts {
				return lastErr
			}
			wait := t.backoff(backoff)
			if ra, ok := retryAfter(resp); ok {
				wait = ra
			}
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			backoff *= 2
			continue
		}

		err = decode(resp)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return lastErr
}

func (t *transport) backoff(d time.Duration) time.Duration {
	sleep := withJitter(d)
	if t.maxDelay > 0 && sleep > t.maxDelay {
		sleep = t.maxDelay
	}
	return sleep
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// readAPIError decodes the error body shapes used by the supported providers:
// {"error":{"message","code"|"status"}}, {"error":"..."} and {"message","code"}.
func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: extractRequestID(resp)}
	src := raw
	switch v := raw["error"].(type) {
	case map[string]any:
		src = v
	case string:
		apiErr.Message = v
	}
	if msg, ok := src["message"].(string); ok && apiErr.Message == "" {
		apiErr.Message = msg
	}
	if code, ok := src["code"].(string); ok {
		apiErr.Code = code
	} else if status, ok := src["status"].(string); ok {
		apiErr.Code = status
	}
	return apiErr
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := parseRetryAfterSeconds(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// parseRetryAfterSeconds accepts delta-seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Goog-Request-Id", "X-Amzn-Requestid"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns d with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	f := 0.8 + rand.Float64()*0.4
	if out := time.Duration(float64(d) * f); out > 0 {
		return out
	}
	return d
}
