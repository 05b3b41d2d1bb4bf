package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default per-attempt request timeout
	DefaultTimeout = 20 * time.Second

	// DefaultRetryDelay is the initial delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// maxBodySize bounds how much of a response is read
	maxBodySize = 1 << 20
)

// Transport sends one request to a hub and returns the raw response body.
// Implementations must honour ctx cancellation and report failures as *Error.
type Transport interface {
	Send(ctx context.Context, baseURL string, params map[string]string) (string, error)
}

// Option configures an HTTPTransport
type Option func(*HTTPTransport) error

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *HTTPTransport) error {
		if client == nil {
			return fmt.Errorf("http client must not be nil")
		}
		t.client = client
		return nil
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		t.client.Timeout = d
		return nil
	}
}

// WithRetries enables up to n retries of requests that never reached the hub.
func WithRetries(n int, initialDelay time.Duration) Option {
	return func(t *HTTPTransport) error {
		if n < 0 {
			return fmt.Errorf("retries must not be negative, got %d", n)
		}
		if initialDelay <= 0 {
			initialDelay = DefaultRetryDelay
		}
		t.maxRetries = n
		t.retryDelay = initialDelay
		return nil
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(t *HTTPTransport) error {
		if logger != nil {
			t.logger = logger
		}
		return nil
	}
}

// HTTPTransport is a Transport over net/http. It is safe for concurrent use.
type HTTPTransport struct {
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewHTTPTransport creates a transport with DefaultTimeout and no retries.
func NewHTTPTransport(opts ...Option) (*HTTPTransport, error) {
	t := &HTTPTransport{
		client:     &http.Client{Timeout: DefaultTimeout},
		retryDelay: DefaultRetryDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Send performs a GET of baseURL with params as the query string.
func (t *HTTPTransport) Send(ctx context.Context, baseURL string, params map[string]string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", &Error{Kind: KindOther, Message: "invalid hub URL", Err: err}
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	target := u.String()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = t.retryDelay
	policy.MaxInterval = DefaultMaxRetryDelay
	policy.MaxElapsedTime = 0

	var body string
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			t.logger.Debug("Retrying hub request", zap.String("host", u.Host), zap.Int("attempt", attempt))
		}
		b, err := t.do(ctx, target, u.Host)
		if err != nil {
			if IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}

	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(t.maxRetries)), ctx))
	if err != nil {
		t.logger.Debug("Hub request failed", zap.String("host", u.Host), zap.Int("attempts", attempt), zap.Error(err))
		return "", err
	}
	return body, nil
}

// do performs a single attempt
func (t *HTTPTransport) do(ctx context.Context, target, host string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &Error{Kind: KindOther, Message: "failed to create request", Host: host, Err: err}
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return "", Classify(err, host)
	}
	defer func() { _ = resp.Body.Close() }()

	t.logger.Debug("Hub responded",
		zap.String("host", host),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return "", NewHTTPError(resp.StatusCode, host)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", Classify(err, host)
	}
	return string(data), nil
}
