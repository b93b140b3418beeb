package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/cliniks/academy-notify/internal/dispatch"
	"github.com/cliniks/academy-notify/internal/domain"
	"github.com/cliniks/academy-notify/internal/notify"
	"github.com/cliniks/academy-notify/internal/store"
	ws "github.com/cliniks/academy-notify/internal/websocket"
)

type fakeWebhookStore struct {
	webhooks map[string]*domain.Webhook
	nextID   int
	err      error
}

func newFakeWebhookStore() *fakeWebhookStore {
	return &fakeWebhookStore{webhooks: map[string]*domain.Webhook{}}
}

func (f *fakeWebhookStore) CreateWebhook(ctx context.Context, req domain.CreateWebhookRequest) (*domain.Webhook, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	wh := &domain.Webhook{
		ID:        fmt.Sprintf("wh-%d", f.nextID),
		Name:      req.Name,
		URL:       req.URL,
		Events:    req.Events,
		Secret:    "whsec_test",
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.webhooks[wh.ID] = wh
	return wh, nil
}

func (f *fakeWebhookStore) GetWebhook(ctx context.Context, id string) (*domain.Webhook, error) {
	if f.err != nil {
		return nil, f.err
	}
	wh, ok := f.webhooks[id]
	if !ok {
		return nil, nil
	}
	copied := *wh
	return &copied, nil
}

func (f *fakeWebhookStore) ListWebhooks(ctx context.Context) ([]domain.Webhook, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Webhook{}
	for _, wh := range f.webhooks {
		out = append(out, *wh)
	}
	return out, nil
}

func (f *fakeWebhookStore) UpdateWebhook(ctx context.Context, id string, req domain.UpdateWebhookRequest) (*domain.Webhook, error) {
	if f.err != nil {
		return nil, f.err
	}
	wh, ok := f.webhooks[id]
	if !ok {
		return nil, nil
	}
	if req.IsActive != nil {
		wh.IsActive = *req.IsActive
	}
	if req.Name != nil {
		wh.Name = *req.Name
	}
	copied := *wh
	return &copied, nil
}

type fakeNotificationStore struct {
	notifications []domain.Notification
	unread        map[string]int
}

func (f *fakeNotificationStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	out := []domain.Notification{}
	for _, n := range f.notifications {
		if n.UserID == userID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkNotificationRead(ctx context.Context, id, userID string) (bool, error) {
	for i, n := range f.notifications {
		if n.ID == id && n.UserID == userID && !n.Read {
			f.notifications[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationStore) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	return f.unread[userID], nil
}

// fakeDirectory backs the fan-out service in handler tests.
type fakeDirectory struct {
	users    []string
	inserted []store.NotificationRow
}

func (f *fakeDirectory) InsertNotifications(ctx context.Context, rows []store.NotificationRow) (int, error) {
	f.inserted = append(f.inserted, rows...)
	return len(rows), nil
}

func (f *fakeDirectory) ListUserIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	var page []string
	for _, id := range f.users {
		if id > afterID {
			page = append(page, id)
			if len(page) == limit {
				break
			}
		}
	}
	return page, nil
}

type fakeSubs struct {
	webhooks []domain.Webhook
	err      error
}

func (f *fakeSubs) ListActiveWebhooks(ctx context.Context, event string) ([]domain.Webhook, error) {
	if f.err != nil {
		return nil, f.err
	}
	var matched []domain.Webhook
	for _, wh := range f.webhooks {
		if !wh.IsActive {
			continue
		}
		for _, e := range wh.Events {
			if e == event {
				matched = append(matched, wh)
				break
			}
		}
	}
	return matched, nil
}

type testEnv struct {
	router       http.Handler
	webhookStore *fakeWebhookStore
	notifStore   *fakeNotificationStore
	directory    *fakeDirectory
	subs         *fakeSubs
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := ws.NewHub(logger)
	go hub.Run()

	webhookStore := newFakeWebhookStore()
	notifStore := &fakeNotificationStore{unread: map[string]int{}}
	directory := &fakeDirectory{}
	subs := &fakeSubs{}

	dispatcher := dispatch.NewDispatcher(subs, nil, hub, logger, 5*time.Second, 4)
	fanout := notify.NewFanout(directory, nil, hub, logger, 100)

	router := NewRouter(webhookStore, notifStore, dispatcher, fanout, nil, hub)

	return &testEnv{
		router:       router,
		webhookStore: webhookStore,
		notifStore:   notifStore,
		directory:    directory,
		subs:         subs,
	}
}

func TestRouter_PreflightAnswered(t *testing.T) {
	env := setupTestRouter(t)

	for _, path := range []string{"/api/v1/dispatch", "/api/v1/notifications"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("OPTIONS %s status = %d, want 200", path, rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("OPTIONS %s missing permissive CORS origin header", path)
		}
		if rec.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Errorf("OPTIONS %s missing CORS methods header", path)
		}
	}
}

func TestRouter_DispatchRequiresPost(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dispatch", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/v1/dispatch status = %d, want 405", rec.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
