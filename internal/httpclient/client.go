package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/agentx-labs/promptreg/internal/auth"
	"github.com/agentx-labs/promptreg/internal/branding"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 10 << 20
	DefaultRetries  = 3
)

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	URL        string
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// ErrTooLarge is returned when a body exceeds the configured cap.
var ErrTooLarge = errors.New("response body too large")

// Client is the default Fetcher.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxTries   uint
	backoff    func() backoff.BackOff
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxBytes caps response bodies.
func WithMaxBytes(n int64) Option {
	return func(c *Client) { c.maxBytes = n }
}

// WithRetries sets the total number of attempts per request.
func WithRetries(tries uint) Option {
	return func(c *Client) {
		if tries == 0 {
			tries = 1
		}
		c.maxTries = tries
	}
}

// WithBackOff sets the retry schedule factory.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) { c.backoff = f }
}

// WithLogger sets the logger for retry messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Client with sane defaults.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  branding.UserAgent(),
		maxBytes:   DefaultMaxBytes,
		maxTries:   DefaultRetries,
		backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches rawURL, retrying network errors, 429 and 5xx responses.
// Other 4xx responses fail immediately with *HTTPError.
func (c *Client) Get(ctx context.Context, rawURL string, cred auth.Credential) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if u.Scheme == "file" {
		return c.readFile(u)
	}

	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		body, err := c.do(ctx, rawURL, cred)
		if err != nil && attempt < int(c.maxTries) {
			var perm *backoff.PermanentError
			if !errors.As(err, &perm) {
				c.logger.Debug("Retrying fetch", "url", rawURL, "attempt", attempt, "error", err)
			}
		}
		return body, err
	}

	body, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.backoff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, rawURL string, cred auth.Credential) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	cred.Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, URL: rawURL, Status: resp.Status}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
				return nil, backoff.RetryAfter(secs)
			}
			return nil, httpErr
		case resp.StatusCode >= 500:
			return nil, httpErr
		default:
			return nil, backoff.Permanent(httpErr)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, backoff.Permanent(fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, rawURL, c.maxBytes))
	}
	return body, nil
}

func (c *Client) readFile(u *url.URL) ([]byte, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", u.String(), err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", u.String(), err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, u.String(), c.maxBytes)
	}
	return body, nil
}
