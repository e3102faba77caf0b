package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/vertexflow/pkg/buildinfo"
	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/httputil"
	"github.com/matzehuels/vertexflow/pkg/observability"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 10 * time.Second

// RequestIDHeader carries a per-request id for correlating client and
// backend logs.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 4 << 10

// Client is the HTTP transport for the graph backend.
type Client struct {
	http    *http.Client
	base    *url.URL
	logger  *log.Logger
	retries int
	delay   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFetchRetry sets how often FetchGraph is attempted and the initial
// delay between attempts.
func WithFetchRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.retries = max(attempts, 1)
		if delay > 0 {
			c.delay = delay
		}
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "backend URL")
	}

	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		base:    u,
		logger:  log.Default(),
		retries: httputil.DefaultAttempts,
		delay:   httputil.DefaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend URL the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

// FetchGraph retrieves the whole graph. Transient failures are retried.
func (c *Client) FetchGraph(ctx context.Context) (GraphDocument, error) {
	var doc GraphDocument
	err := httputil.Retry(ctx, c.retries, c.delay, func() error {
		doc = GraphDocument{}
		return c.do(ctx, http.MethodGet, "/graph", nil, &doc)
	})
	if err != nil {
		return GraphDocument{}, unwrapRetryable(err)
	}
	return doc, nil
}

// ReplaceGraph posts doc as the new graph and returns the accepted graph.
func (c *Client) ReplaceGraph(ctx context.Context, doc GraphDocument) (GraphDocument, error) {
	if err := doc.Validate(); err != nil {
		return GraphDocument{}, err
	}
	var out GraphDocument
	if err := c.do(ctx, http.MethodPost, "/graph", doc, &out); err != nil {
		return GraphDocument{}, unwrapRetryable(err)
	}
	return out, nil
}

// CreateVertex asks the backend for a new vertex. A nil name lets the
// backend choose one.
func (c *Client) CreateVertex(ctx context.Context, name *string, code string) (VertexDescription, error) {
	req := CreateVertexRequest{Name: name, Code: code}
	if err := req.Validate(); err != nil {
		return VertexDescription{}, err
	}
	var resp CreateVertexResponse
	if err := c.do(ctx, http.MethodPost, "/vertex", req, &resp); err != nil {
		return VertexDescription{}, unwrapRetryable(err)
	}
	return resp.Description, nil
}

// DeleteVertex deletes vertex id and, on the backend, its edges.
func (c *Client) DeleteVertex(ctx context.Context, id string) error {
	if err := errors.ValidateVertexID(id); err != nil {
		return err
	}
	return unwrapRetryable(c.do(ctx, http.MethodDelete, vertexPath(id), nil, nil))
}

// RenameVertex sets the display name of vertex id.
func (c *Client) RenameVertex(ctx context.Context, id, name string) (VertexDescription, error) {
	return c.updateVertex(ctx, id, "name", RenameRequest{Name: name})
}

// SetVertexCode replaces the code of vertex id.
func (c *Client) SetVertexCode(ctx context.Context, id, code string) (VertexDescription, error) {
	return c.updateVertex(ctx, id, "code", SetCodeRequest{Code: code})
}

// CreateEdge links the out side of from to the in side of to.
func (c *Client) CreateEdge(ctx context.Context, from, to string) (EdgeDescription, error) {
	req := CreateEdgeRequest{Source: from, Target: to}
	if err := req.Validate(); err != nil {
		return EdgeDescription{}, err
	}
	var resp CreateEdgeResponse
	if err := c.do(ctx, http.MethodPost, "/edge", req, &resp); err != nil {
		return EdgeDescription{}, unwrapRetryable(err)
	}
	return EdgeDescription{ID: resp.ID, From: from, To: to}, nil
}

type validator interface{ Validate() error }

func (c *Client) updateVertex(ctx context.Context, id, field string, body validator) (VertexDescription, error) {
	if err := errors.ValidateVertexID(id); err != nil {
		return VertexDescription{}, err
	}
	if err := body.Validate(); err != nil {
		return VertexDescription{}, err
	}
	var out VertexDescription
	if err := c.do(ctx, http.MethodPut, vertexPath(id)+"/"+field, body, &out); err != nil {
		return VertexDescription{}, unwrapRetryable(err)
	}
	if out.ID != id {
		return VertexDescription{}, errors.New(errors.ErrCodeInvalidResponse, "backend answered for vertex %q, want %q", out.ID, id)
	}
	return out, nil
}

func vertexPath(id string) string { return "/vertex/" + url.PathEscape(id) }

func (c *Client) do(ctx context.Context, method, path string, body any, out validator) error {
	target := c.base.JoinPath(path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode %s %s", method, path)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build %s %s", method, path)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, target.Host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, target.Host, path, err)
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return transportError(ctx, err, method, path)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	hooks.OnResponse(ctx, method, target.Host, path, resp.StatusCode, elapsed)
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", elapsed, "request_id", reqID)

	if err := checkStatus(resp, method, path); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidResponse, err, "decode %s %s", method, path)
	}
	if err := out.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidResponse, err, "%s %s", method, path)
	}
	return nil
}

func transportError(ctx context.Context, err error, method, path string) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "%s %s", method, path)
	}
	if ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeClosed, err, "%s %s cancelled", method, path)
	}
	var netErr interface{ Timeout() bool }
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(errors.ErrCodeTimeout, err, "%s %s", method, path)
	}
	return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, path))
}

func checkStatus(resp *http.Response, method, path string) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	msg := readErrorMessage(resp.Body)
	switch {
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s %s: %s", method, path, msg)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return errors.New(errors.ErrCodeInvalidInput, "%s %s: %s", method, path, msg)
	case code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "%s %s: status %d: %s", method, path, code, msg))
	default:
		return errors.New(errors.ErrCodeNetwork, "%s %s: status %d: %s", method, path, code, msg)
	}
}

func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "no details"
}

func unwrapRetryable(err error) error {
	var re *httputil.RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}
