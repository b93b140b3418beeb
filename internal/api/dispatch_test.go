package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cliniks/academy-notify/internal/dispatch"
	"github.com/cliniks/academy-notify/internal/domain"
)

func TestDispatch_InvalidBody(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDispatch_MissingEventType(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch", strings.NewReader(`{"data":{"x":1}}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("error response should carry a message")
	}
}

func TestDispatch_SubscriptionLoadError(t *testing.T) {
	env := setupTestRouter(t)
	env.subs.err = errors.New("db down")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch",
		strings.NewReader(`{"eventType":"course_purchase","data":{}}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestDispatch_EndToEnd(t *testing.T) {
	var receivedBody []byte
	var receivedSig string

	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedBody, _ = io.ReadAll(r.Body)
		receivedSig = r.Header.Get("X-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer endpoint.Close()

	env := setupTestRouter(t)
	env.subs.webhooks = []domain.Webhook{{
		ID:       "wh-1",
		URL:      endpoint.URL,
		Events:   []string{"course_purchase"},
		Secret:   "s3cr3t",
		IsActive: true,
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch",
		strings.NewReader(`{"eventType":"course_purchase","data":{"orderId":"o1"}}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Sent    int                       `json:"sent"`
		Results []dispatch.DeliveryResult `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}

	if resp.Sent != 1 {
		t.Errorf("sent = %d, want 1", resp.Sent)
	}
	if len(resp.Results) != 1 || !resp.Results[0].Success || resp.Results[0].WebhookID != "wh-1" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}

	// Destination saw a signed envelope carrying the caller payload
	if want := dispatch.Sign(receivedBody, "s3cr3t"); receivedSig != want {
		t.Errorf("X-Signature = %q, want %q", receivedSig, want)
	}
	if !strings.Contains(string(receivedBody), `"data":{"orderId":"o1"}`) {
		t.Errorf("envelope body missing caller data: %s", receivedBody)
	}
	if !strings.Contains(string(receivedBody), `"event":"course_purchase"`) {
		t.Errorf("envelope body missing event name: %s", receivedBody)
	}
}

func TestDispatch_NoSubscribers(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch",
		strings.NewReader(`{"eventType":"course_purchase","data":{}}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Sent    int               `json:"sent"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Sent != 0 {
		t.Errorf("sent = %d, want 0", resp.Sent)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("results should be an empty array, got %v", resp.Results)
	}
}
