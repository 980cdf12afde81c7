package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/actiongate/internal/model"
)

func init() {
	retryDelay = func(int) time.Duration { return time.Millisecond }
}

func countingServer(t *testing.T, called *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDispatchMatchesDecision(t *testing.T) {
	var called atomic.Int32
	srv := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: FormatGeneric, Events: []string{"blocked"}},
	}, nil)

	d.Dispatch(AlertEvent{Decision: "blocked", Action: "payment", Level: "critical"})
	d.Wait()

	if called.Load() != 1 {
		t.Errorf("expected 1 call, got %d", called.Load())
	}
}

func TestDispatchSkipsNonMatching(t *testing.T) {
	var called atomic.Int32
	srv := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: FormatGeneric, Events: []string{"blocked", "critical"}},
	}, nil)

	d.Dispatch(AlertEvent{Decision: "approved", Allowed: true, Level: "high"})
	d.Wait()

	if called.Load() != 0 {
		t.Errorf("expected 0 calls for non-matching event, got %d", called.Load())
	}
}

func TestDispatchMatchesLevelAndOutcome(t *testing.T) {
	tests := []struct {
		selector string
		event    AlertEvent
		want     bool
	}{
		{"critical", AlertEvent{Level: "critical", Decision: "approved", Allowed: true}, true},
		{"high", AlertEvent{Level: "critical"}, false},
		{EventDenied, AlertEvent{Decision: "timeout", Allowed: false}, true},
		{EventDenied, AlertEvent{Decision: "approved", Allowed: true}, false},
		{EventAllowed, AlertEvent{Decision: "approved_all", Allowed: true}, true},
	}
	for _, tt := range tests {
		if got := matches([]string{tt.selector}, tt.event); got != tt.want {
			t.Errorf("%s vs %+v: expected %v, got %v", tt.selector, tt.event, tt.want, got)
		}
	}
}

func TestDispatchMultipleWebhooks(t *testing.T) {
	var called atomic.Int32
	srv1 := countingServer(t, &called)
	srv2 := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv1.URL, Format: FormatGeneric, Events: []string{"blocked"}},
		{URL: srv2.URL, Format: FormatSlack, Events: []string{"blocked", "approved"}},
	}, nil)

	d.Dispatch(AlertEvent{Decision: "blocked", Action: "payment"})
	d.Wait()

	if called.Load() != 2 {
		t.Errorf("expected 2 calls (both webhooks match), got %d", called.Load())
	}
}

func TestCallbackSendsMaskedEvent(t *testing.T) {
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- b
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]AlertConfig{{URL: srv.URL, Events: []string{EventAllowed}}}, nil)
	cb := d.Callback()

	err := cb(context.Background(), model.SecurityEvent{
		ID:       "ev-1",
		Kind:     model.KindTypeCardNumber,
		Target:   "4111 1111 1111 1234",
		Risk:     model.NewRiskAssessment(100, []string{"card_data_input"}, nil, 0.8),
		Context:  model.Context{model.KeyCurrentURL: "https://shop.example/pay"},
		Allowed:  true,
		Decision: model.DecisionApproved,
	})
	if err != nil {
		t.Fatal(err)
	}
	d.Wait()

	var got AlertEvent
	if err := json.Unmarshal(<-bodies, &got); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got.Target, "4111 1111 1111 1234") {
		t.Errorf("card number leaked: %s", got.Target)
	}
	if got.EventID != "ev-1" || got.URL != "https://shop.example/pay" || got.Level != "critical" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Send(context.Background(), AlertConfig{URL: srv.URL, Format: FormatGeneric}, AlertEvent{Decision: "blocked"})
	if err != nil {
		t.Errorf("expected success after retries, got: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := Send(context.Background(), AlertConfig{URL: srv.URL, Format: FormatGeneric}, AlertEvent{Decision: "blocked"})
	if err == nil {
		t.Error("expected error on 400, got nil")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt (no retry on 4xx), got %d", attempts.Load())
	}
}

func TestHeadersForwarded(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := AlertConfig{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer t"}}
	if err := Send(context.Background(), cfg, AlertEvent{}); err != nil {
		t.Fatal(err)
	}
	if h := <-got; h != "Bearer t" {
		t.Errorf("expected header forwarded, got %q", h)
	}
}

func TestFormatGenericJSON(t *testing.T) {
	event := AlertEvent{
		Timestamp: "2025-01-15T14:00:00.000Z",
		EventID:   "e-123",
		Action:    "payment",
		Target:    "Buy now",
		Score:     96,
		Level:     "critical",
		Rules:     []string{"payment_click"},
		Decision:  "auto_blocked",
	}

	data, err := FormatPayload(FormatGeneric, event)
	if err != nil {
		t.Fatal(err)
	}

	var parsed AlertEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("generic format is not valid JSON: %v", err)
	}
	if parsed.EventID != "e-123" || parsed.Decision != "auto_blocked" {
		t.Errorf("unexpected round trip: %+v", parsed)
	}
}

func TestFormatSlackBlockKit(t *testing.T) {
	data, err := FormatPayload(FormatSlack, AlertEvent{Action: "delete", Decision: "blocked", Score: 70, Level: "high"})
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("slack format is not valid JSON: %v", err)
	}
	blocks, ok := parsed["blocks"].([]any)
	if !ok || len(blocks) < 2 {
		t.Fatalf("expected at least 2 blocks, got %v", parsed["blocks"])
	}
	header, _ := blocks[0].(map[string]any)
	text, _ := header["text"].(map[string]any)
	if text["text"] != "actiongate: delete blocked" {
		t.Errorf("unexpected header: %v", text["text"])
	}
}

func TestFormatPagerDutySeverity(t *testing.T) {
	tests := map[string]string{
		"critical": "critical",
		"high":     "error",
		"medium":   "warning",
		"low":      "info",
	}
	for level, want := range tests {
		data, err := FormatPayload(FormatPagerDuty, AlertEvent{Level: level})
		if err != nil {
			t.Fatal(err)
		}
		var parsed map[string]any
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatal(err)
		}
		payload, ok := parsed["payload"].(map[string]any)
		if !ok {
			t.Fatal("expected payload object")
		}
		if payload["severity"] != want {
			t.Errorf("%s: expected severity %s, got %v", level, want, payload["severity"])
		}
		if payload["source"] != "actiongate" {
			t.Errorf("expected source actiongate, got %v", payload["source"])
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		cfg  AlertConfig
		fail bool
	}{
		{AlertConfig{URL: "https://hooks.example/x", Events: []string{"blocked"}}, false},
		{AlertConfig{URL: "https://hooks.example/x", Format: FormatPagerDuty, Events: []string{"critical"}}, false},
		{AlertConfig{URL: "ftp://hooks.example/x", Events: []string{"blocked"}}, true},
		{AlertConfig{URL: "https://hooks.example/x", Format: "teams", Events: []string{"blocked"}}, true},
		{AlertConfig{URL: "https://hooks.example/x"}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.fail {
			t.Errorf("%+v: expected fail=%v, got %v", tt.cfg, tt.fail, err)
		}
	}
}

func TestNewDispatcherNilOnEmpty(t *testing.T) {
	if d := NewDispatcher(nil, nil); d != nil {
		t.Error("expected nil dispatcher for empty configs")
	}
	if d := NewDispatcher([]AlertConfig{}, nil); d != nil {
		t.Error("expected nil dispatcher for zero-length configs")
	}
}
