package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cliniks/academy-notify/internal/domain"
	"github.com/go-chi/chi/v5"
)

// WebhookStore is the registry surface the admin API needs.
type WebhookStore interface {
	CreateWebhook(ctx context.Context, req domain.CreateWebhookRequest) (*domain.Webhook, error)
	GetWebhook(ctx context.Context, id string) (*domain.Webhook, error)
	ListWebhooks(ctx context.Context) ([]domain.Webhook, error)
	UpdateWebhook(ctx context.Context, id string, req domain.UpdateWebhookRequest) (*domain.Webhook, error)
}

type WebhookHandler struct {
	store WebhookStore
}

func NewWebhookHandler(s WebhookStore) *WebhookHandler {
	return &WebhookHandler{store: s}
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	if len(req.Events) == 0 {
		respondError(w, http.StatusBadRequest, "at least one event is required")
		return
	}

	wh, err := h.store.CreateWebhook(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create webhook")
		return
	}

	respondJSON(w, http.StatusCreated, domain.CreateWebhookResponse{
		ID:     wh.ID,
		Name:   wh.Name,
		Secret: wh.Secret,
	})
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	webhooks, err := h.store.ListWebhooks(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list webhooks")
		return
	}

	respondJSON(w, http.StatusOK, webhooks)
}

func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wh, err := h.store.GetWebhook(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get webhook")
		return
	}
	if wh == nil {
		respondError(w, http.StatusNotFound, "webhook not found")
		return
	}

	// The secret is only returned once, on create
	wh.Secret = ""

	respondJSON(w, http.StatusOK, wh)
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req domain.UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wh, err := h.store.UpdateWebhook(r.Context(), id, req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update webhook")
		return
	}
	if wh == nil {
		respondError(w, http.StatusNotFound, "webhook not found")
		return
	}

	respondJSON(w, http.StatusOK, wh)
}
