package facr

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
)

const (
	defaultBaseURL      = "https://www.fotbal.cz"
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	defaultMaxBodyBytes = 4 << 20
)

var (
	errFetchTransient = crerr.New("match report transient failure")

	// ErrInvalidSource marks a source that is not a fetchable location.
	ErrInvalidSource = crerr.New("invalid match report source")

	// ErrBodyTooLarge is returned instead of a truncated page, which would
	// parse into a report with missing goals.
	ErrBodyTooLarge = crerr.New("match report body exceeds size limit")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	MaxBodyBytes   int64
	Backoff        func(attempt int) time.Duration
	Logger         *logging.Logger
	CircuitBreaker BreakerConfig
}

// Client downloads match report pages from the federation website.
type Client struct {
	httpClient   *http.Client
	baseURL      *url.URL
	userAgent    string
	maxRetries   int
	maxBodyBytes int64
	backoff      func(attempt int) time.Duration
	logger       *logging.Logger
	breaker      *siteBreaker
	flight       singleflight.Group
}

func NewClient(cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	rawBase := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if rawBase == "" {
		rawBase = defaultBaseURL
	}
	baseURL, err := url.Parse(rawBase)
	if err != nil {
		return nil, crerr.Wrapf(err, "parse base url %q", rawBase)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, crerr.Newf("base url %q uses unsupported scheme=%q", rawBase, baseURL.Scheme)
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = func(attempt int) time.Duration {
			return time.Duration(attempt+1) * time.Second
		}
	}

	client := &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		userAgent:    userAgent,
		maxRetries:   max(cfg.MaxRetries, 0),
		maxBodyBytes: maxBody,
		backoff:      backoff,
		logger:       logger,
	}
	if cfg.CircuitBreaker.Enabled {
		client.breaker = newSiteBreaker(cfg.CircuitBreaker, client.logBreakerChange)
	}
	return client, nil
}

// BreakerStats reports the site breaker. A disabled breaker is always closed.
func (c *Client) BreakerStats() BreakerStats {
	if c.breaker == nil {
		return BreakerStats{State: BreakerClosed}
	}
	return c.breaker.stats()
}

func (c *Client) logBreakerChange(from, to BreakerState, stats BreakerStats) {
	args := []any{
		"host", c.baseURL.Host,
		"from", from,
		"to", to,
		"consecutive_failures", stats.ConsecutiveFailures,
	}
	if to == BreakerOpen {
		c.logger.Warn("facr site breaker opened", append(args, "open_until", stats.OpenUntil)...)
		return
	}
	c.logger.Info("facr site breaker changed state", args...)
}

// Fetch downloads one report. source is an absolute http(s) URL or a path
// relative to the configured base URL.
func (c *Client) Fetch(ctx context.Context, source string) ([]byte, error) {
	fullURL, err := c.resolve(source)
	if err != nil {
		return nil, err
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		if c.breaker == nil {
			return c.executeRequest(ctx, fullURL)
		}

		raw, err := c.breaker.do(func() ([]byte, error) {
			return c.executeRequest(ctx, fullURL)
		})
		if stderrors.Is(err, ErrSiteUnavailable) {
			c.logger.WarnContext(ctx, "facr request rejected by site breaker", "url", fullURL, "error", err)
		}
		return raw, err
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) resolve(source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("%w: source is required", ErrInvalidSource)
	}
	ref, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: parse source %q: %v", ErrInvalidSource, source, err)
	}
	resolved := c.baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("%w: source %q uses unsupported scheme=%q", ErrInvalidSource, source, resolved.Scheme)
	}
	return resolved.String(), nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "cs-CZ,cs;q=0.9,en;q=0.8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: send request: %v", errFetchTransient, err)
		} else {
			raw, readErr := readBody(resp.Body, c.maxBodyBytes)
			_ = resp.Body.Close()
			switch {
			case stderrors.Is(readErr, ErrBodyTooLarge):
				return nil, fmt.Errorf("%w: limit=%d bytes", readErr, c.maxBodyBytes)
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errFetchTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: status=%d body=%s", errFetchTransient, resp.StatusCode, abbreviateBody(raw))
				if wait := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); wait > 0 {
					lastErr = &retryAfterError{err: lastErr, wait: wait}
				}
			default:
				return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("match report request failed")
	}
	c.logger.WarnContext(ctx, "facr request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func readBody(body io.Reader, limit int64) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(body, limit+1)); err != nil {
		return nil, err
	}
	if int64(buf.Len()) > limit {
		return nil, ErrBodyTooLarge
	}
	return append([]byte(nil), buf.B...), nil
}

// retryAfterError carries the server's Retry-After hint to the site breaker.
type retryAfterError struct {
	err  error
	wait time.Duration
}

func (e *retryAfterError) Error() string { return e.err.Error() }
func (e *retryAfterError) Unwrap() error { return e.err }

func retryAfterOf(err error) time.Duration {
	var hinted *retryAfterError
	if stderrors.As(err, &hinted) {
		return hinted.wait
	}
	return 0
}

// parseRetryAfter accepts both delay-seconds and HTTP-date forms.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(at.Sub(now), 0)
	}
	return 0
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
