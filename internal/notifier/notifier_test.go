package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julianstephens/cmucal/internal/constants"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{Out: &buf}

	c.Notify(Errorf("Save failed", "could not save %q", "Lecture"))
	c.Notify(Info("Synced", "12 events"))

	out := buf.String()
	if !strings.Contains(out, "Save failed: could not save \"Lecture\"") {
		t.Errorf("missing error notice in %q", out)
	}
	if !strings.Contains(out, "Synced: 12 events") {
		t.Errorf("missing info notice in %q", out)
	}
}

func TestRecorderAndMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	var calls int
	m := Multi{a, nil, b, Func(func(Notice) { calls++ })}

	m.Notify(Info("one", ""))
	m.Notify(Errorf("two", "boom"))

	if len(a.Notices()) != 2 || len(b.Notices()) != 2 {
		t.Fatalf("expected 2 notices each, got %d and %d", len(a.Notices()), len(b.Notices()))
	}
	if calls != 2 {
		t.Errorf("expected 2 func calls, got %d", calls)
	}
	if a.Notices()[1].Level != LevelError {
		t.Errorf("expected error level, got %s", a.Notices()[1].Level)
	}
}

func TestWebhookSend(t *testing.T) {
	// Setup mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Check for secret header
		if r.Header.Get(constants.WebhookSecretHeader) != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}

		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if strings.HasPrefix(payload.Text, "fail") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	ctx := context.Background()

	// Test 1: Success
	if err := NewWebhook(server.URL, "test-secret").Send(ctx, Info("hello", "world")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Test 2: Missing secret
	if err := NewWebhook(server.URL, "").Send(ctx, Info("hello", "world")); err == nil {
		t.Error("expected error for missing secret")
	}

	// Test 3: Wrong secret
	if err := NewWebhook(server.URL, "wrong-secret").Send(ctx, Info("hello", "world")); err == nil {
		t.Error("expected error for wrong secret")
	}

	// Test 4: Server error
	if err := NewWebhook(server.URL, "test-secret").Send(ctx, Info("fail", "now")); err == nil {
		t.Error("expected error for server failure")
	}

	// Notify swallows delivery errors
	NewWebhook(server.URL, "wrong-secret").Notify(Info("hello", "world"))
}
