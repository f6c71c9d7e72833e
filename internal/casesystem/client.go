package casesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"
)

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

// client performs JSON calls with a bounded number of attempts. Exhausting
// the attempts yields ErrUnavailable.
type client struct {
	name     string
	baseURL  string
	http     *http.Client
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

func newClient(name string, cfg Config, logger *slog.Logger) *client {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		name:     name,
		baseURL:  cfg.BaseURL,
		http:     &http.Client{Timeout: timeout},
		attempts: attempts,
		backoff:  cfg.Backoff,
		logger:   logger,
	}
}

// Response bodies end up in logged errors: keep them short and mask
// anything shaped like a national identity number.
const maxErrorBody = 128

var identPattern = regexp.MustCompile(`\d{11}`)

func errorBody(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return identPattern.ReplaceAllString(string(b), "***********")
}

type permanentError struct {
	status int
	body   string
}

func (e *permanentError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

// do sends the request and decodes the response into out. It reports
// found=false on 404.
func (c *client) do(ctx context.Context, method, path string, body, out any) (bool, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("marshal %s request: %w", c.name, err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			c.logger.Warn("retrying case system call", "system", c.name, "attempt", attempt+1, "max", c.attempts, "backoff", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(wait):
			}
		}

		found, err := c.once(ctx, method, path, payload, out)
		if err == nil {
			return found, nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return false, fmt.Errorf("%s %s: %w", c.name, path, err)
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		lastErr = err
	}

	return false, fmt.Errorf("%w: %s after %d attempts: %v", ErrUnavailable, c.name, c.attempts, lastErr)
}

func (c *client) once(ctx context.Context, method, path string, payload []byte, out any) (bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, &permanentError{status: 0, body: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return false, fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return false, &permanentError{status: resp.StatusCode, body: errorBody(b)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return true, nil
}
