package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeConn implements Client for correlator tests, capturing sent requests.
type fakeConn struct {
	mu   sync.Mutex
	sent []Request

	failSend error
}

func (f *fakeConn) Connect(ctx context.Context) error { return nil }
func (f *fakeConn) Close() error                      { return nil }
func (f *fakeConn) IsConnected() bool                 { return true }

func (f *fakeConn) Send(data []byte) error {
	if f.failSend != nil {
		return f.failSend
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	f.mu.Lock()
	f.sent = append(f.sent, req)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Messages() <-chan TimestampedMessage { return nil }
func (f *fakeConn) Errors() <-chan error                { return nil }

func (f *fakeConn) lastRequest(t *testing.T) Request {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		n := len(f.sent)
		var req Request
		if n > 0 {
			req = f.sent[n-1]
		}
		f.mu.Unlock()
		if n > 0 {
			return req
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no request was sent")
	return Request{}
}

func TestCorrelator_ResolveSuccess(t *testing.T) {
	corr := newCorrelator(5*time.Second, nil)
	conn := &fakeConn{}

	done := make(chan struct{})
	var data json.RawMessage
	var err error
	go func() {
		data, err = corr.send(context.Background(), conn, "getTotalBalance", nil)
		close(done)
	}()

	req := conn.lastRequest(t)
	if req.Method != "getTotalBalance" {
		t.Errorf("unexpected method %q", req.Method)
	}
	if req.ID == "" {
		t.Fatal("request id is empty")
	}

	handled := corr.resolve(inbound{ID: req.ID, Success: true, Data: json.RawMessage(`{"total_usdt":42}`)})
	if !handled {
		t.Error("expected the response to be handled as request traffic")
	}

	<-done
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if string(data) != `{"total_usdt":42}` {
		t.Errorf("unexpected payload %q", data)
	}
	if corr.pendingCount() != 0 {
		t.Errorf("pending count = %d, want 0", corr.pendingCount())
	}
}

func TestCorrelator_ResolveServerRejection(t *testing.T) {
	corr := newCorrelator(5*time.Second, nil)
	conn := &fakeConn{}

	done := make(chan error, 1)
	go func() {
		_, err := corr.send(context.Background(), conn, "closeSession", map[string]any{"session_id": "s1"})
		done <- err
	}()

	req := conn.lastRequest(t)
	corr.resolve(inbound{ID: req.ID, Success: false, Error: "session not found"})

	err := <-done
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if se.Message != "session not found" {
		t.Errorf("unexpected message %q", se.Message)
	}
	if se.Method != "closeSession" {
		t.Errorf("unexpected method %q", se.Method)
	}
}

// Requests issued concurrently each settle with their own response, never
// another's.
func TestCorrelator_ConcurrentRequestsCorrelate(t *testing.T) {
	const n = 20

	corr := newCorrelator(5*time.Second, nil)
	conn := &fakeConn{}

	results := make([]json.RawMessage, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := corr.send(context.Background(), conn, fmt.Sprintf("op%d", i), nil)
			if err != nil {
				t.Errorf("request %d failed: %v", i, err)
				return
			}
			results[i] = data
		}(i)
	}

	// Wait until all requests are registered, then answer each with a
	// payload derived from its own method name.
	deadline := time.Now().Add(2 * time.Second)
	for corr.pendingCount() < n && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if corr.pendingCount() != n {
		t.Fatalf("pending count = %d, want %d", corr.pendingCount(), n)
	}

	conn.mu.Lock()
	sent := append([]Request(nil), conn.sent...)
	conn.mu.Unlock()

	for _, req := range sent {
		payload := json.RawMessage(fmt.Sprintf(`{"echo":%q}`, req.Method))
		corr.resolve(inbound{ID: req.ID, Success: true, Data: payload})
	}

	wg.Wait()

	for i := 0; i < n; i++ {
		want := fmt.Sprintf(`{"echo":"op%d"}`, i)
		if string(results[i]) != want {
			t.Errorf("request %d got %q, want %q", i, results[i], want)
		}
	}
}

// A response arriving after the timeout already fired is a no-op.
func TestCorrelator_LateResponseDropped(t *testing.T) {
	corr := newCorrelator(50*time.Millisecond, nil)
	conn := &fakeConn{}

	_, err := corr.send(context.Background(), conn, "getAllSessions", nil)
	if !errors.Is(err, ErrRequestTimeout) {
		t.Fatalf("expected ErrRequestTimeout, got %v", err)
	}

	req := conn.lastRequest(t)
	handled := corr.resolve(inbound{ID: req.ID, Success: true, Data: json.RawMessage(`[]`)})
	if !handled {
		t.Error("late response should still be consumed as request traffic")
	}
	if corr.pendingCount() != 0 {
		t.Errorf("pending count = %d, want 0", corr.pendingCount())
	}
}

func TestCorrelator_SendFailureUnregisters(t *testing.T) {
	corr := newCorrelator(time.Second, nil)
	conn := &fakeConn{failSend: ErrNotConnected}

	_, err := corr.send(context.Background(), conn, "getAllSessions", nil)
	if !errors.Is(err, ErrTransportUnavailable) {
		t.Fatalf("expected ErrTransportUnavailable, got %v", err)
	}
	if corr.pendingCount() != 0 {
		t.Errorf("pending count = %d, want 0", corr.pendingCount())
	}
}

func TestCorrelator_FailAll(t *testing.T) {
	corr := newCorrelator(5*time.Second, nil)
	conn := &fakeConn{}

	done := make(chan error, 1)
	go func() {
		_, err := corr.send(context.Background(), conn, "getTotalBalance", nil)
		done <- err
	}()

	conn.lastRequest(t)
	corr.failAll(ErrTransportUnavailable)

	if err := <-done; !errors.Is(err, ErrTransportUnavailable) {
		t.Errorf("expected ErrTransportUnavailable, got %v", err)
	}
}

func TestNewRequestID_NonColliding(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := newRequestID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestCorrelator_BroadcastNotHandled(t *testing.T) {
	corr := newCorrelator(time.Second, nil)

	if corr.resolve(inbound{Type: "sessions_update", Data: json.RawMessage(`[]`)}) {
		t.Error("broadcast (no id) must not be treated as request traffic")
	}
}
