package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finbot/ledger"
)

func newTestClient(baseURL string) (*Client, *[]time.Duration) {
	c := New(Config{
		BaseURL:  baseURL,
		Attempts: 3,
		Backoff:  time.Second,
		Timeout:  5 * time.Second,
	})
	sleeps := &[]time.Duration{}
	c.after = func(d time.Duration) <-chan time.Time {
		*sleeps = append(*sleeps, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	return c, sleeps
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv.URL)
	out := c.Execute(context.Background(), http.MethodPost, "/expense/", nil, map[string]any{"amount": 1})

	if out.Kind != Success {
		t.Fatalf("outcome = %s, want success (message: %s)", out.Kind, out.Message)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	if len(*sleeps) != 2 {
		t.Fatalf("sleeps = %d, want 2", len(*sleeps))
	}
	for i := 1; i < len(*sleeps); i++ {
		if (*sleeps)[i] <= (*sleeps)[i-1] {
			t.Errorf("backoff not strictly increasing: %v", *sleeps)
		}
	}
}

func TestExecuteExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv.URL)
	out := c.Execute(context.Background(), http.MethodPost, "/expense/", nil, nil)

	if out.Kind != TransportFailure {
		t.Fatalf("outcome = %s, want transport_failure", out.Kind)
	}
	if out.Message == "" {
		t.Error("transport failure should carry a message")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	if len(*sleeps) != 2 {
		t.Errorf("sleeps = %d, want 2", len(*sleeps))
	}
}

func TestExecuteApplicationFailureIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "detail": "duplicate"})
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv.URL)
	out := c.Execute(context.Background(), http.MethodPost, "/expense/", nil, map[string]any{"amount": 1})

	if out.Kind != ApplicationFailure {
		t.Fatalf("outcome = %s, want application_failure", out.Kind)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (application rejections are not retried)", got)
	}
	if len(*sleeps) != 0 {
		t.Errorf("sleeps = %d, want 0", len(*sleeps))
	}
	if out.Payload["detail"] != "duplicate" {
		t.Errorf("payload not preserved: %v", out.Payload)
	}
}

func TestExecuteConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, sleeps := newTestClient(url)
	out := c.Execute(context.Background(), http.MethodDelete, "/income/5/", nil, nil)

	if out.Kind != TransportFailure {
		t.Fatalf("outcome = %s, want transport_failure", out.Kind)
	}
	if len(*sleeps) != 2 {
		t.Errorf("sleeps = %d, want 2", len(*sleeps))
	}
}

func TestExecuteBackoffHonorsCancellation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c, _ := newTestClient(srv.URL)
	c.after = func(d time.Duration) <-chan time.Time {
		cancel()
		return make(chan time.Time) // never fires
	}

	out := c.Execute(ctx, http.MethodPost, "/expense/", nil, nil)

	if out.Kind != TransportFailure {
		t.Fatalf("outcome = %s, want transport_failure", out.Kind)
	}
	if !strings.Contains(out.Message, context.Canceled.Error()) {
		t.Errorf("message = %q, want cancellation reason", out.Message)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (no attempts after cancellation)", got)
	}
}

func TestMutateRequestShape(t *testing.T) {
	type seen struct {
		method string
		path   string
		chatID string
		body   map[string]any
	}
	var got seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.chatID = r.URL.Query().Get("chat_id")
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&got.body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	out := c.Mutate(context.Background(), ledger.MutationRequest{
		Kind:        ledger.KindExpense,
		Op:          ledger.OpUpdate,
		RecordID:    "7",
		Amount:      decimal.RequireFromString("12.5"),
		Description: "Lunch",
		ChatID:      42,
	})

	if out.Kind != Success {
		t.Fatalf("outcome = %s, want success", out.Kind)
	}
	if got.method != http.MethodPut {
		t.Errorf("method = %s, want PUT", got.method)
	}
	if got.path != "/expense/7/" {
		t.Errorf("path = %s, want /expense/7/", got.path)
	}
	if got.chatID != "42" {
		t.Errorf("chat_id = %q, want 42", got.chatID)
	}
	if amount, ok := got.body["amount"].(float64); !ok || amount != 12.5 {
		t.Errorf("body amount = %v, want 12.5 as a JSON number", got.body["amount"])
	}
	if got.body["description"] != "Lunch" {
		t.Errorf("body description = %v, want Lunch", got.body["description"])
	}
}

func TestDeleteCarriesNoBody(t *testing.T) {
	var hadBody bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := make([]byte, 1)
		n, _ := r.Body.Read(data)
		hadBody = n > 0
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	out := c.Mutate(context.Background(), ledger.MutationRequest{
		Kind:     ledger.KindIncome,
		Op:       ledger.OpDelete,
		RecordID: "3",
		ChatID:   7,
	})
	if out.Kind != Success {
		t.Fatalf("outcome = %s, want success", out.Kind)
	}
	if hadBody {
		t.Error("delete request should not carry a body")
	}
}

func TestOutcomeKindString(t *testing.T) {
	if !strings.Contains(TransportFailure.String(), "transport") {
		t.Errorf("unexpected: %s", TransportFailure)
	}
}
