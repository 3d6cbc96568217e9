package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/agentworkforce/moviebot/internal/moviebot"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []moviebot.Event
}

func (d *recordingDispatcher) Dispatch(ev moviebot.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

const testWebhookPath = "/webhooks/123:abc"

func newTestServer(secret string) (*Server, *recordingDispatcher) {
	d := &recordingDispatcher{}
	return NewServer(d, ServerConfig{WebhookPath: testWebhookPath, SecretToken: secret, MaxBodyBytes: 1024}), d
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer("")
	rec := doRequest(t, server, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decodeStatus(t, rec)["status"] != "ok" {
		t.Fatalf("unexpected health body")
	}
}

func TestWebhookDispatchesMessage(t *testing.T) {
	server, d := newTestServer("")
	body := `{"update_id": 1, "message": {"message_id": 2, "from": {"id": 7, "is_bot": false, "first_name": "A"}, "chat": {"id": 100, "type": "private"}, "text": "Heat"}}`
	rec := doRequest(t, server, http.MethodPost, testWebhookPath, body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeStatus(t, rec)["status"] != "accepted" {
		t.Fatalf("expected accepted")
	}
	if len(d.events) != 1 || d.events[0].Text != "Heat" || d.events[0].ChatID != 100 {
		t.Fatalf("unexpected events %+v", d.events)
	}
}

func TestWebhookIgnoresUnsupportedUpdates(t *testing.T) {
	server, d := newTestServer("")
	rec := doRequest(t, server, http.MethodPost, testWebhookPath, `{"update_id": 3}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decodeStatus(t, rec)["status"] != "ignored" {
		t.Fatalf("expected ignored")
	}
	if len(d.events) != 0 {
		t.Fatalf("expected nothing dispatched")
	}
}

func TestWebhookRejectsBadBody(t *testing.T) {
	server, d := newTestServer("")
	rec := doRequest(t, server, http.MethodPost, testWebhookPath, `{not json`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if decodeStatus(t, rec)["code"] != "bad_request" {
		t.Fatalf("expected bad_request code")
	}
	if len(d.events) != 0 {
		t.Fatalf("expected nothing dispatched")
	}
}

func TestWebhookRejectsOversizedBody(t *testing.T) {
	server, _ := newTestServer("")
	body := `{"update_id": 1, "message": {"chat": {"id": 1}, "text": "` + strings.Repeat("x", 2048) + `"}}`
	rec := doRequest(t, server, http.MethodPost, testWebhookPath, body, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestWebhookRequiresSecretWhenConfigured(t *testing.T) {
	server, d := newTestServer("s3cret")
	body := `{"update_id": 1, "message": {"message_id": 2, "chat": {"id": 100, "type": "private"}, "text": "Heat"}}`

	rec := doRequest(t, server, http.MethodPost, testWebhookPath, body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", rec.Code)
	}
	rec = doRequest(t, server, http.MethodPost, testWebhookPath, body, map[string]string{secretTokenHeader: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong secret, got %d", rec.Code)
	}
	rec = doRequest(t, server, http.MethodPost, testWebhookPath, body, map[string]string{secretTokenHeader: "s3cret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", rec.Code)
	}
	if len(d.events) != 1 {
		t.Fatalf("expected one dispatched event, got %d", len(d.events))
	}
}

func TestWebhookMethodAndRouting(t *testing.T) {
	server, _ := newTestServer("")
	if rec := doRequest(t, server, http.MethodGet, testWebhookPath, "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec := doRequest(t, server, http.MethodPost, "/webhooks/other-token", `{}`, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another token, got %d", rec.Code)
	}
}
