package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harvestra/corpus/core"
	"github.com/harvestra/corpus/source"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 200 * time.Millisecond
	maxRetryDelay     = 2 * time.Second
)

// Client is a document source backed by a remote knowledge-base API:
//
//	GET /documents/{id}
//	GET /search?q=&limit=&offset=
//	GET /documents?limit=&offset=
//	GET /health
//
// List and search responses carry a paging envelope
// {documents, total_count, page, has_more}.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	http       *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ source.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
// Default is 10s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithAPIKey sets the bearer token sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithMaxRetries sets how many attempts are made for transient failures.
// Default is 3.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// New creates a knowledge-base API client.
func New(name, baseURL string, opts ...Option) (*Client, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", core.ErrValidation)
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: base url must start with http:// or https://", core.ErrValidation)
	}

	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default().With("source", name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the registry name of the source.
func (c *Client) Name() string { return c.name }

// wire types

type apiDocument struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Metadata       map[string]string `json:"metadata"`
	RelevanceScore float64           `json:"relevance_score"`
}

type envelope struct {
	Documents  []apiDocument `json:"documents"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	HasMore    bool          `json:"has_more"`
}

// Retrieve fetches a single document by id.
func (c *Client) Retrieve(ctx context.Context, id string) (*core.Document, error) {
	var doc apiDocument
	err := c.withRetry(ctx, func() error {
		return c.getJSON(ctx, "/documents/"+url.PathEscape(id), nil, &doc)
	})
	if err != nil {
		return nil, err
	}
	out := c.toDocument(doc)
	return &out, nil
}

// Search runs the remote relevance search. Scores from the API are clamped
// to [0,1] so they merge cleanly with other sources.
func (c *Client) Search(ctx context.Context, q core.SearchQuery, limit int) ([]core.Document, error) {
	params := url.Values{}
	params.Set("q", q.Normalized)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", "0")

	var env envelope
	err := c.withRetry(ctx, func() error {
		return c.getJSON(ctx, "/search", params, &env)
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	docs := make([]core.Document, 0, len(env.Documents))
	for _, d := range env.Documents {
		if len(docs) == limit {
			break
		}
		docs = append(docs, c.toDocument(d))
	}
	return docs, nil
}

// List enumerates remote documents for warm-up indexing.
func (c *Client) List(ctx context.Context, limit, offset int) ([]core.Document, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var env envelope
	err := c.withRetry(ctx, func() error {
		return c.getJSON(ctx, "/documents", params, &env)
	})
	if err != nil {
		return nil, err
	}

	docs := make([]core.Document, 0, len(env.Documents))
	for _, d := range env.Documents {
		docs = append(docs, c.toDocument(d))
	}
	return docs, nil
}

// Health probes the /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/health", nil, nil)
}

// withRetry retries transient failures (timeouts, unreachable host, 429/5xx)
// with capped exponential backoff. Permanent failures such as NotFound stop
// the loop immediately.
func (c *Client) withRetry(ctx context.Context, op func() error) error {
	var permanent error
	err := source.RetryWithBackoff(ctx, func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isTransient(err) {
			return err
		}
		permanent = err
		return nil
	}, c.maxRetries, c.retryDelay, maxRetryDelay)
	if err != nil {
		// The retry loop surfaces context expiry directly.
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", core.ErrTimeout, err)
		}
		return err
	}
	return permanent
}

func isTransient(err error) bool {
	return errors.Is(err, core.ErrTimeout) || errors.Is(err, core.ErrSourceUnavailable)
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", core.ErrNotFound, path)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d from %s", core.ErrSourceUnavailable, resp.StatusCode, path)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d from %s", core.ErrValidation, resp.StatusCode, path)
	}

	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", core.ErrSourceUnavailable, path, err)
	}
	return nil
}

// classify maps transport errors onto the engine's error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", core.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", core.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
}

func (c *Client) toDocument(d apiDocument) core.Document {
	score := d.RelevanceScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return core.Document{
		ID:       d.ID,
		Title:    d.Title,
		Content:  d.Content,
		Source:   c.name,
		Metadata: d.Metadata,
		Score:    score,
	}
}
