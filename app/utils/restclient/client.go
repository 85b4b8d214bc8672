package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 120 * time.Second
	defaultMaxAttempts = 3
	defaultBaseDelay   = 200 * time.Millisecond
	maxDelay           = 5 * time.Second
)

type RestClient struct {
	baseURL     string
	headers     map[string]string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
}

type Option func(*RestClient)

// WithTimeout bounds every single HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *RestClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetry sets how many attempts a request gets and the first backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *RestClient) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *RestClient) {
		if rps <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewRestClient(baseURL string, headers map[string]string, opts ...Option) *RestClient {
	c := &RestClient{
		baseURL:     baseURL,
		headers:     headers,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RestClient) BaseURL() string {
	return c.baseURL
}

func (c *RestClient) setHeaders(req *http.Request, headers map[string]string) {
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
}

func (c *RestClient) doRequestOnce(ctx context.Context, request *http.Request) ([]byte, int, error) {
	request = request.WithContext(ctx)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, 0, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	return body, response.StatusCode, err
}

// doRequest retries transport failures, 429 and 5xx answers with exponential backoff.
// Any other status is returned to the caller as is.
func (c *RestClient) doRequest(ctx context.Context, method, endpoint string, payload []byte,
	headers map[string]string) ([]byte, int, error) {
	var (
		body   []byte
		status int
		err    error
	)

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err = sleep(ctx, c.retryDelay(attempt)); err != nil {
				return body, status, err
			}
		}
		if c.limiter != nil {
			if err = c.limiter.Wait(ctx); err != nil {
				return body, status, err
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		var request *http.Request
		request, err = http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
		if err != nil {
			return nil, 0, err
		}
		c.setHeaders(request, headers)

		body, status, err = c.doRequestOnce(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return body, status, ctx.Err()
			}
			log.Printf("⚠️ %s %s attempt %d failed: %v", method, endpoint, attempt+1, err)
			continue
		}
		if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
			err = fmt.Errorf("http %d: %s", status, string(body))
			log.Printf("⚠️ %s %s attempt %d failed: HTTP %d", method, endpoint, attempt+1, status)
			continue
		}
		return body, status, nil
	}

	return body, status, fmt.Errorf("%s %s failed after %d attempts: %w", method, endpoint, c.maxAttempts, err)
}

func (c *RestClient) retryDelay(attempt int) time.Duration {
	d := c.baseDelay << (attempt - 1)
	if d > maxDelay || d <= 0 {
		d = maxDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *RestClient) Post(ctx context.Context, endpoint string, body any, headers map[string]string) ([]byte, int, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}
	return c.doRequest(ctx, http.MethodPost, endpoint, jsonBody, headers)
}
