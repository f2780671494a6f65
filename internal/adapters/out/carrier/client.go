package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shipping/internal/pkg/errs"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultRatePerSecond = 10.0
	DefaultBurst         = 5

	maxErrorBody = 4 << 10
)

// ClientConfig bounds the outbound traffic of one carrier adapter.
type ClientConfig struct {
	Carrier       string
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

// Client sends JSON requests to one carrier API, waiting on a token bucket
// before each call. Failures come back as *errs.CarrierError.
type Client struct {
	carrier string
	baseURL string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errs.NewValueIsInvalidErrorWithCause("baseURL", fmt.Errorf("%q is not an absolute URL", cfg.BaseURL))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultRatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		carrier: cfg.Carrier,
		baseURL: base.String(),
		timeout: cfg.Timeout,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}, nil
}

// Request is one call. Exactly one of JSON or Form may be set.
type Request struct {
	Operation string
	Method    string
	Path      string
	Header    http.Header
	JSON      any
	Form      url.Values
}

// Do sends req and decodes a 2xx JSON body into out (when out is non-nil).
// Status mapping: 401/403 authentication, other 4xx rejected, 5xx and
// transport errors transient.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return c.fail(req.Operation, errs.CarrierTransient, 0, err)
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return c.fail(req.Operation, errs.CarrierRejected, 0, err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return c.fail(req.Operation, errs.CarrierTransient, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		cause := errors.New(strings.TrimSpace(string(body)))
		return c.fail(req.Operation, kindForStatus(resp.StatusCode), resp.StatusCode, cause)
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.fail(req.Operation, errs.CarrierTransient, resp.StatusCode, err)
		}
		return c.fail(req.Operation, errs.CarrierRejected, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.JSON != nil:
		raw, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, err
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func (c *Client) fail(operation string, kind errs.CarrierErrorKind, status int, cause error) error {
	return errs.NewCarrierError(c.carrier, operation, kind, status, cause)
}

func kindForStatus(status int) errs.CarrierErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errs.CarrierAuthentication
	case status == http.StatusTooManyRequests || status >= 500:
		return errs.CarrierTransient
	default:
		return errs.CarrierRejected
	}
}

// BearerHeader builds the Authorization header for an access token.
func BearerHeader(accessToken string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+accessToken)
	return h
}

// IsAuthFailure reports whether err is a carrier authentication failure.
func IsAuthFailure(err error) bool {
	return errors.Is(err, errs.ErrCarrierAuthentication)
}
