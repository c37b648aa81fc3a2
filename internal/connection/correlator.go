package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// settledResult is the outcome delivered to a waiting request.
type settledResult struct {
	data json.RawMessage
	err  error
}

// pendingRequest tracks one in-flight request/response exchange.
type pendingRequest struct {
	id        string
	method    string
	ch        chan settledResult // buffered 1; settled exactly once
	createdAt time.Time
}

// correlator issues request ids, tracks pending requests and settles each
// exactly once: by matching response, by timeout, or by connection loss.
// A response arriving after its entry was removed is silently dropped.
type correlator struct {
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

func newCorrelator(timeout time.Duration, logger *slog.Logger) *correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &correlator{
		logger:  logger,
		timeout: timeout,
		pending: make(map[string]*pendingRequest),
	}
}

// newRequestID returns an id unlikely to collide with any pending id:
// millisecond timestamp plus a random suffix.
func newRequestID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// send dispatches a request over the given client and waits for the
// matching response, the per-request timeout, or ctx cancellation.
func (c *correlator) send(ctx context.Context, cli Client, method string, params any) (json.RawMessage, error) {
	req := Request{
		ID:     newRequestID(),
		Method: method,
		Params: params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	p := &pendingRequest{
		id:        req.ID,
		method:    method,
		ch:        make(chan settledResult, 1),
		createdAt: time.Now(),
	}

	c.mu.Lock()
	c.pending[req.ID] = p
	c.mu.Unlock()

	if err := cli.Send(data); err != nil {
		c.remove(req.ID)
		return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		c.remove(req.ID)
		return nil, ctx.Err()
	case <-timer.C:
		c.remove(req.ID)
		c.logger.Warn("request timed out",
			"method", method,
			"id", req.ID,
			"timeout", c.timeout,
		)
		return nil, ErrRequestTimeout
	case res := <-p.ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.data, nil
	}
}

// resolve settles the pending request matching the response id, if any.
// Returns true when the message was request/response traffic (matched or
// late), false when the caller should treat it as a broadcast.
func (c *correlator) resolve(msg inbound) bool {
	if msg.ID == "" {
		return false
	}

	c.mu.Lock()
	p, ok := c.pending[msg.ID]
	if ok {
		delete(c.pending, msg.ID)
	}
	c.mu.Unlock()

	if !ok {
		// Late response after timeout: entry already removed, drop it.
		c.logger.Debug("discarding response with no pending request", "id", msg.ID)
		return true
	}

	if msg.Success {
		p.ch <- settledResult{data: msg.Data}
	} else {
		p.ch <- settledResult{err: &ServerError{Method: p.method, Message: msg.Error}}
	}

	return true
}

// remove deletes a pending entry, if still present.
func (c *correlator) remove(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// failAll settles every pending request with err and clears the table.
// Called when the underlying connection is lost so callers fall back to
// the REST path immediately instead of waiting out their timeouts.
func (c *correlator) failAll(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()

	for _, p := range pending {
		p.ch <- settledResult{err: err}
	}
}

// pendingCount returns the number of in-flight requests.
func (c *correlator) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
