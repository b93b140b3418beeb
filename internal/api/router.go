package api

import (
	"net/http"

	"github.com/cliniks/academy-notify/internal/dispatch"
	"github.com/cliniks/academy-notify/internal/notify"
	ws "github.com/cliniks/academy-notify/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(webhooks WebhookStore, notifications NotificationStore, dispatcher *dispatch.Dispatcher, fanout *notify.Fanout, cache *notify.UnreadCache, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// CORS for the dashboard and the browser app
	r.Use(corsMiddleware)

	// Handlers
	webhookHandler := NewWebhookHandler(webhooks)
	dispatchHandler := NewDispatchHandler(dispatcher)
	notificationHandler := NewNotificationHandler(notifications, fanout, cache)

	// Realtime activity feed
	r.Get("/ws", hub.HandleWebSocket)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())

		r.Post("/dispatch", dispatchHandler.Dispatch)

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", webhookHandler.Create)
			r.Get("/", webhookHandler.List)
			r.Get("/{id}", webhookHandler.Get)
			r.Patch("/{id}", webhookHandler.Update)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/", notificationHandler.Create)
			r.Get("/", notificationHandler.List)
			r.Get("/unread-count", notificationHandler.UnreadCount)
			r.Post("/{id}/read", notificationHandler.MarkRead)
		})
	})

	return r
}

// corsMiddleware adds a fixed permissive CORS header set and answers
// preflight requests directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
