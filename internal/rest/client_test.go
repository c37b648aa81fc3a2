package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Yurenko/front-t-bot/internal/model"
)

func testClient(url string) *Client {
	return NewClient(url, WithRetries(2, time.Millisecond))
}

func TestClient_GetSessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sessions":[
			{"id":"s1","symbol":"BTCUSDT","strategy":"grid","status":"open"},
			{"id":"s2","symbol":"ETHUSDT","strategy":"dca","status":"closed"}
		]}`))
	}))
	defer server.Close()

	sessions, err := testClient(server.URL).GetSessions(context.Background())
	if err != nil {
		t.Fatalf("GetSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != "s1" || !sessions[0].IsOpen() {
		t.Errorf("unexpected first session %+v", sessions[0])
	}
	if sessions[1].IsOpen() {
		t.Error("closed session reported as open")
	}
}

func TestClient_OpenSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}

		var req model.OpenSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("unparseable body: %v", err)
		}
		if req.Symbol != "BTCUSDT" || req.Strategy != "grid" || req.Budget != 500 {
			t.Errorf("unexpected request body %+v", req)
		}

		w.Write([]byte(`{"session":{"id":"s9","symbol":"BTCUSDT","strategy":"grid","status":"open"}}`))
	}))
	defer server.Close()

	session, err := testClient(server.URL).OpenSession(context.Background(), model.OpenSessionRequest{
		Symbol:   "BTCUSDT",
		Strategy: "grid",
		Budget:   500,
	})
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	if session.ID != "s9" {
		t.Errorf("session id = %q, want s9", session.ID)
	}
}

func TestClient_GetAnalysisBatchQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analysis" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != "BTCUSDT,ETHUSDT" {
			t.Errorf("symbols query = %q", got)
		}
		w.Write([]byte(`{"analyses":[
			{"symbol":"BTCUSDT","trend":"up","signal":"buy","confidence":0.8},
			{"symbol":"ETHUSDT","trend":"down","signal":"sell","confidence":0.6}
		]}`))
	}))
	defer server.Close()

	analyses, err := testClient(server.URL).GetAnalysisBatch(context.Background(), []string{"BTCUSDT", "ETHUSDT"})
	if err != nil {
		t.Fatalf("GetAnalysisBatch failed: %v", err)
	}
	if len(analyses) != 2 {
		t.Fatalf("got %d analyses, want 2", len(analyses))
	}
	if analyses[0].Signal != "buy" || analyses[1].Signal != "sell" {
		t.Errorf("unexpected analyses %+v", analyses)
	}
}

// The service's own error text is surfaced, not the generic status text.
func TestClient_APIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"session not found"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetSessionStatus(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != "session not found" {
		t.Errorf("message = %q, want the service's error text", apiErr.Message)
	}
	if apiErr.IsRetryable() {
		t.Error("404 must not be retryable")
	}
}

func TestClient_RetryOn500(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"count":7}`))
	}))
	defer server.Close()

	count, err := testClient(server.URL).GetOpenPositionsCount(context.Background())
	if err != nil {
		t.Fatalf("GetOpenPositionsCount failed: %v", err)
	}
	if count != 7 {
		t.Errorf("count = %d, want 7", count)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d calls, want 3", n)
	}
}

func TestClient_NoRetryOn400(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid symbol"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetAnalysis(context.Background(), "BOGUS")
	if err == nil {
		t.Fatal("expected an error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on 400)", n)
	}
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetBalance(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	// Initial attempt plus two retries.
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d calls, want 3", n)
	}
}

func TestClient_SetRiskCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/risk/check" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Enabled {
			t.Errorf("unexpected body (err=%v, enabled=%t)", err, req.Enabled)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	if err := testClient(server.URL).SetRiskCheck(context.Background(), true); err != nil {
		t.Fatalf("SetRiskCheck failed: %v", err)
	}
}

func TestClient_StartPeriodicAnalysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analysis/periodic/start" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req model.PeriodicAnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("unparseable body: %v", err)
		}
		if len(req.Symbols) != 1 || req.Symbols[0] != "BTCUSDT" || req.IntervalMs != 60000 {
			t.Errorf("unexpected body %+v", req)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := testClient(server.URL).StartPeriodicAnalysis(context.Background(), []string{"BTCUSDT"}, time.Minute)
	if err != nil {
		t.Fatalf("StartPeriodicAnalysis failed: %v", err)
	}
}
