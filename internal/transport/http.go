package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// RequestIDHeader is set on every outbound request that lacks one.
	RequestIDHeader = "X-Request-Id"

	// maxErrorBodySize caps how much of an error response is kept.
	maxErrorBodySize = 64 * 1024
)

// HTTPClient sends requests over net/http.
type HTTPClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.client = c }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPClient) {
		c := *h.client
		c.Timeout = d
		h.client = &c
	}
}

// WithRateLimit throttles outbound requests to perSecond with the given
// burst. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(h *HTTPClient) {
		if perSecond <= 0 {
			h.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewHTTPClient returns a client with a 30s timeout and no rate limit.
func NewHTTPClient(opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{client: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SendRequest implements Client.
func (h *HTTPClient) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, &RequestError{Method: req.Method, URL: req.URL, Err: err}
		}
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := encodeBody(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: req.URL, Err: err}
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		slog.Debug("request failed", "method", req.Method, "url", req.URL, "error", err)
		return nil, &RequestError{Method: req.Method, URL: req.URL, Err: err}
	}
	defer httpResp.Body.Close()

	slog.Debug("request sent",
		"method", req.Method,
		"url", req.URL,
		"status", httpResp.StatusCode,
		"request_id", httpReq.Header.Get(RequestIDHeader),
		"duration", time.Since(start))

	resp := &Response{Status: httpResp.StatusCode, Header: httpResp.Header.Clone()}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 204 {
		resp.Body = readBodyForError(httpResp.Body)
		return resp, CheckStatus(req, resp)
	}

	resp.Body, err = io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: req.URL, Status: httpResp.StatusCode, Err: err}
	}
	return resp, nil
}

// readBodyForError reads a bounded prefix of an error response body.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

func encodeBody(v any) ([]byte, error) {
	if raw, ok := v.([]byte); ok {
		return raw, nil
	}
	return json.MarshalNoEscape(v)
}
