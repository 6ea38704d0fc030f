package remote

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/five82/scoop/internal/flavor"
)

const (
	defaultBaseURL        = "http://127.0.0.1:7488"
	defaultCollectionPath = "/collection"
	defaultUserAgent      = "scoop/0.1"
	defaultTimeout        = 5 * time.Second
	maxResponseBytes      = 4 << 20
)

// ErrMalformedPayload reports a response body that does not describe a list of items.
var ErrMalformedPayload = errors.New("malformed payload")

// StatusError reports a non-success HTTP status from the store.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Code)
}

// Options configure a Client.
type Options struct {
	BaseURL        string
	CollectionPath string
	Timeout        time.Duration
	RateLimit      float64 // requests per second; zero disables pacing
	RateBurst      int
	Logger         zerolog.Logger
}

// Client talks to the remote collection store.
type Client struct {
	baseURL    *url.URL
	collection string
	http       *http.Client
	limiter    *rate.Limiter
	userAgent  string
	log        zerolog.Logger
}

// NewClient builds a Client from opts, filling unset fields with defaults.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:    base,
		collection: normalizeCollectionPath(opts.CollectionPath),
		http:       &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
		log:        opts.Logger.With().Str("component", "remote").Logger(),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// List fetches every item in the collection. The store does not filter by owner.
func (c *Client) List(ctx context.Context) ([]flavor.Item, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body, err := c.do(ctx, http.MethodGet, c.collection, nil)
	if err != nil {
		return nil, err
	}
	return decodeItems(body)
}

// Create stores item verbatim. The response body is not read back.
func (c *Client) Create(ctx context.Context, item flavor.Item) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, c.collection, payload)
	return err
}

// Delete removes the item addressed by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("item id required")
	}
	_, err := c.do(ctx, http.MethodDelete, c.collection+"/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	reqURL, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("remote request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	if method != http.MethodGet {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// resolve joins an already-escaped relative path onto the base URL.
func (c *Client) resolve(escaped string) (*url.URL, error) {
	raw := c.baseURL.EscapedPath() + escaped
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", escaped, err)
	}
	u := *c.baseURL
	u.Path = unescaped
	u.RawPath = raw
	return &u, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func normalizeCollectionPath(path string) string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return defaultCollectionPath
	}
	return "/" + trimmed
}
