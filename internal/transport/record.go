package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/restq/internal/canonical"
	"github.com/roach88/restq/internal/journal"
)

// ExchangeWriter stores exchanges. *journal.Store implements it.
type ExchangeWriter interface {
	Record(ctx context.Context, ex journal.Exchange) (journal.Exchange, error)
}

// ExchangeSource looks up exchanges by request fingerprint. *journal.Store
// implements it.
type ExchangeSource interface {
	Lookup(ctx context.Context, fingerprint string) (journal.Exchange, error)
}

// Recorder forwards requests to next and journals every exchange, including
// failed ones. Journal write failures are logged and do not fail the call.
type Recorder struct {
	next Client
	out  ExchangeWriter
}

// NewRecorder wraps next.
func NewRecorder(next Client, out ExchangeWriter) *Recorder {
	return &Recorder{next: next, out: out}
}

// SendRequest implements Client.
func (r *Recorder) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, sendErr := r.next.SendRequest(ctx, req)

	fp, err := canonical.RequestFingerprint(req.Method, req.URL, req.Body)
	if err != nil {
		slog.Warn("journal: fingerprint failed", "method", req.Method, "url", req.URL, "error", err)
		return resp, sendErr
	}

	reqBody, err := encodeBody(req.Body)
	if err != nil || req.Body == nil {
		reqBody = nil
	}

	ex := journal.Exchange{
		Fingerprint: fp,
		Method:      req.Method,
		URL:         req.URL,
		RequestBody: reqBody,
		Duration:    time.Since(start),
	}
	if resp != nil {
		ex.Status = resp.Status
		ex.ResponseBody = resp.Body
		ex.ResponseHeader = resp.Header
	}
	if sendErr != nil {
		ex.Error = sendErr.Error()
		if ex.Status == 0 {
			ex.Status = StatusOf(sendErr)
		}
	}

	if _, err := r.out.Record(ctx, ex); err != nil {
		slog.Warn("journal: record failed", "method", req.Method, "url", req.URL, "error", err)
	}
	return resp, sendErr
}

// Replayer answers requests from recorded exchanges without touching the
// network. Recorded failures are replayed as failures.
type Replayer struct {
	src ExchangeSource
}

// NewReplayer returns a replaying client.
func NewReplayer(src ExchangeSource) *Replayer {
	return &Replayer{src: src}
}

// SendRequest implements Client. A request with no recording fails with a
// RequestError wrapping journal.ErrNotFound.
func (r *Replayer) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	fp, err := canonical.RequestFingerprint(req.Method, req.URL, req.Body)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	ex, err := r.src.Lookup(ctx, fp)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			return nil, &RequestError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("no recorded exchange: %w", err)}
		}
		return nil, fmt.Errorf("replay: %w", err)
	}

	slog.Debug("replayed exchange", "method", req.Method, "url", req.URL, "seq", ex.Seq)

	if ex.Status == 0 {
		return nil, &RequestError{Method: req.Method, URL: req.URL, Err: errors.New(ex.Error)}
	}
	resp := NewResponse(ex.Status, ex.ResponseBody, ex.ResponseHeader)
	if err := CheckStatus(req, resp); err != nil {
		return resp, err
	}
	return resp, nil
}
