// Authenticated request execution for the music API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gmusic/internal/auth"
	"github.com/desertthunder/gmusic/internal/shared"
	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of an error response is kept on [shared.ProtocolError].
const maxErrorBody = 64 << 10

// DefaultParams are appended to the query of every API request.
func DefaultParams() url.Values {
	return url.Values{
		"dv":   {"0"},
		"hl":   {"en_US"},
		"tier": {"aa"},
	}
}

// Request describes one API call. URL may already carry query parameters.
type Request struct {
	Method string
	URL    string
	Body   any
	Header http.Header
	Params url.Values
	// DiscardBody skips reading a successful response body; used by the stream endpoint,
	// which redirects to media.
	DiscardBody bool
}

// Response is a successful API response with the URL it was finally served from.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        *url.URL
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}
	return nil
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeUnauthorized
	outcomeFatal
)

func classify(status int) outcome {
	switch {
	case status >= 200 && status < 300:
		return outcomeSuccess
	case status == http.StatusUnauthorized:
		return outcomeUnauthorized
	default:
		return outcomeFatal
	}
}

// Executor sends authenticated requests, refreshing the shared token proactively when it
// is stale and reactively, exactly once, when the server answers 401.
type Executor struct {
	tokens     *auth.TokenCache
	gateway    auth.Gateway
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ExecutorOption configures an [Executor].
type ExecutorOption func(*Executor)

// WithHTTPClient sets the client used to send requests.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *Executor) { e.httpClient = c }
}

// WithRateLimit paces attempts to rps requests per second. Zero or less disables pacing.
func WithRateLimit(rps float64) ExecutorOption {
	return func(e *Executor) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithExecutorLogger sets the logger for request attempts.
func WithExecutorLogger(l *log.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = shared.WithLogger(l, "component", "executor") }
}

// NewExecutor creates an executor sharing tokens with every other collaborator.
func NewExecutor(tokens *auth.TokenCache, gw auth.Gateway, opts ...ExecutorOption) *Executor {
	e := &Executor{tokens: tokens, gateway: gw, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(e)
	}
	if e.httpClient == nil {
		e.httpClient = http.DefaultClient
	}
	if e.logger == nil {
		e.logger = shared.WithLogger(nil, "component", "executor")
	}
	return e
}

// Tokens returns the shared token cache.
func (e *Executor) Tokens() *auth.TokenCache {
	return e.tokens
}

// Execute sends req with at most two network attempts.
//
// A stale token is refreshed before the first attempt; a refresh failure there is returned
// without sending anything. A 401 on the first attempt triggers one unconditional refresh and
// one resend. Any other error status, or an error status on the resend, is a
// [*shared.ProtocolError].
func (e *Executor) Execute(ctx context.Context, req Request) (*Response, error) {
	if e.tokens.RequiresRefresh() {
		e.logger.Debug("token stale, refreshing before request", "url", req.URL)
		if err := e.tokens.Refresh(ctx, e.gateway); err != nil {
			return nil, err
		}
	}

	target, body, err := buildTarget(req)
	if err != nil {
		return nil, err
	}

	resp, result, err := e.attempt(ctx, req, target, body)
	if err != nil {
		return nil, err
	}

	switch result {
	case outcomeSuccess:
		return resp, nil
	case outcomeFatal:
		return nil, &shared.ProtocolError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	e.logger.Debug("request unauthorized, refreshing and retrying", "url", target)
	if err := e.tokens.Refresh(ctx, e.gateway); err != nil {
		return nil, err
	}

	resp, result, err = e.attempt(ctx, req, target, body)
	if err != nil {
		return nil, err
	}
	if result != outcomeSuccess {
		return nil, &shared.ProtocolError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}

// buildTarget merges default, URL and caller query parameters and encodes the body once so
// both attempts send identical bytes.
func buildTarget(req Request) (string, []byte, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid request URL %q: %v", shared.ErrInvalidArgument, req.URL, err)
	}

	query := DefaultParams()
	for k, vs := range u.Query() {
		query[k] = append(query[k], vs...)
	}
	for k, vs := range req.Params {
		query[k] = append(query[k], vs...)
	}
	u.RawQuery = query.Encode()

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}
	return u.String(), body, nil
}

func (e *Executor) attempt(ctx context.Context, req Request, target string, body []byte) (*Response, outcome, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, outcomeFatal, fmt.Errorf("%w: %v", shared.ErrTransport, err)
		}
	}

	authHeader, err := e.tokens.AuthHeader()
	if err != nil {
		return nil, outcomeFatal, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, outcomeFatal, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", authHeader)

	e.logger.Debug("sending request", "method", method, "url", target)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, outcomeFatal, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	result := classify(resp.StatusCode)
	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		URL:        httpReq.URL,
	}
	if resp.Request != nil {
		out.URL = resp.Request.URL
	}

	switch {
	case result == outcomeSuccess && req.DiscardBody:
	case result == outcomeSuccess:
		out.Body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, outcomeFatal, fmt.Errorf("%w: failed to read response: %v", shared.ErrTransport, err)
		}
	default:
		out.Body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	}

	e.logger.Debug("received response", "status", resp.StatusCode, "url", target)
	return out, result, nil
}
