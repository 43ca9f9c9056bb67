// Package client signs outgoing API requests.
package client

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/signing"
)

// SignRequest signs req with creds at time now and sets the four signing
// headers. body must be the exact bytes sent as the request body. The signed
// path is the escaped path that goes on the wire; any query string is left
// out of the signature.
func SignRequest(req *http.Request, body []byte, creds signing.Credentials, now time.Time) (signing.Signature, error) {
	in := signing.SignatureInput{
		Method:    signing.Method(req.Method),
		Path:      req.URL.EscapedPath(),
		Body:      string(body),
		Timestamp: now.Unix(),
		APIKey:    creds.APIKey,
	}
	if in.Path == "" {
		in.Path = "/"
	}

	sig, err := signing.SignInput(creds.SecretKey, in)
	if err != nil {
		return "", err
	}

	req.Header.Set(signing.HeaderAPIKey, creds.APIKey)
	req.Header.Set(signing.HeaderTimestamp, strconv.FormatInt(in.Timestamp, 10))
	req.Header.Set(signing.HeaderSignature, string(sig))
	req.Header.Set(signing.HeaderContentType, signing.ContentTypeJSON)
	return sig, nil
}

// Client sends signed requests to one API base URL.
type Client struct {
	baseURL    *url.URL
	creds      signing.Credentials
	httpClient *http.Client
	now        func() time.Time
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client with a 30 second timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock replaces time.Now for the X-Timestamp header.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for baseURL. baseURL may carry a path prefix which is
// included in the signed path.
func New(baseURL string, creds signing.Credentials, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("base URL must be absolute").WithContext("base_url", baseURL)
	}
	if creds.APIKey == "" || creds.SecretKey == "" {
		return nil, errors.ConfigError("api key and secret key are required")
	}

	c := &Client{
		baseURL:    u,
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewRequest builds a signed request for method and path relative to the base
// URL. path may contain a query string; only its path part is signed.
func (c *Client) NewRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, errors.ValidationError("invalid request path").WithContext("path", path)
	}

	target := *c.baseURL
	target.Path = strings.TrimSuffix(c.baseURL.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	target.RawPath = strings.TrimSuffix(c.baseURL.EscapedPath(), "/") + "/" + strings.TrimPrefix(ref.EscapedPath(), "/")
	target.RawQuery = ref.RawQuery

	req, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.ValidationError("failed to create request").WithContext("method", method)
	}

	if _, err := SignRequest(req, body, c.creds, c.now()); err != nil {
		return nil, err
	}
	return req, nil
}

// Do signs and sends a request. The caller closes the response body.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ConnectionError("request failed", err).WithContext("url", req.URL.Redacted())
	}

	c.logger.WithContext(ctx).Debug("Signed request sent",
		logging.String("method", method),
		logging.String("path", req.URL.Path),
		logging.String("api_key", c.creds.APIKey),
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", time.Since(start)),
	)
	return resp, nil
}
