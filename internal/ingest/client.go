package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Client fetches chart feeds over HTTP, throttled to a fixed request rate.
type Client struct {
	HTTPClient *http.Client
	// MaxAttempts bounds retries after 429 Too Many Requests.
	MaxAttempts int

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a client that sends at most perSec requests per second.
func NewClient(perSec float64) *Client {
	limit := rate.Inf
	if perSec > 0 {
		limit = rate.Limit(perSec)
	}
	return &Client{
		HTTPClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &throttleTransport{lim: rate.NewLimiter(limit, 1), rt: http.DefaultTransport},
		},
		MaxAttempts: 3,
		sleep:       sleepCtx,
	}
}

// throttleTransport waits for the limiter before each request.
type throttleTransport struct {
	lim *rate.Limiter
	rt  http.RoundTripper
}

func (t *throttleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.lim.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.rt.RoundTrip(req)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetJSON decodes the JSON body at url into v.
// On 429 Too Many Requests it retries with backoff, respecting Retry-After if present.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := c.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusOK {
			err := json.NewDecoder(resp.Body).Decode(v)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", url, err)
			}
			return nil
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("GET %s: %s", url, resp.Status)
		if resp.StatusCode != http.StatusTooManyRequests {
			return lastErr
		}

		wait := 30 * time.Second
		if s := resp.Header.Get("Retry-After"); s != "" {
			if sec, err := strconv.Atoi(s); err == nil && sec >= 0 && sec <= 3600 {
				wait = time.Duration(sec) * time.Second
			}
		}
		if attempt < attempts-1 {
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w (gave up after %d attempts)", lastErr, attempts)
}
