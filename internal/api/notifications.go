package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cliniks/academy-notify/internal/domain"
	"github.com/cliniks/academy-notify/internal/notify"
	"github.com/go-chi/chi/v5"
)

// NotificationStore is the read/update surface for recipients.
type NotificationStore interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) (bool, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
}

type NotificationHandler struct {
	store  NotificationStore
	fanout *notify.Fanout
	cache  *notify.UnreadCache
}

func NewNotificationHandler(s NotificationStore, f *notify.Fanout, cache *notify.UnreadCache) *NotificationHandler {
	return &NotificationHandler{store: s, fanout: f, cache: cache}
}

type createNotificationResponse struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	NotificationsCreated int    `json:"notifications_created"`
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.fanout.Send(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrTitleRequired),
			errors.Is(err, notify.ErrMessageRequired),
			errors.Is(err, notify.ErrInvalidType),
			errors.Is(err, notify.ErrAmbiguousTarget):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, notify.ErrNoRecipients):
			respondError(w, http.StatusInternalServerError, "no recipients resolved")
		default:
			respondError(w, http.StatusInternalServerError, "failed to create notifications")
		}
		return
	}

	respondJSON(w, http.StatusOK, createNotificationResponse{
		Success:              true,
		Message:              fmt.Sprintf("notification sent to %d recipient(s)", created),
		NotificationsCreated: created,
	})
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	notifications, err := h.store.ListNotifications(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	respondJSON(w, http.StatusOK, notifications)
}

type markReadRequest struct {
	UserID string `json:"user_id"`
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	updated, err := h.store.MarkNotificationRead(r.Context(), id, req.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	if !updated {
		respondError(w, http.StatusNotFound, "notification not found or already read")
		return
	}

	if h.cache != nil {
		h.cache.DecrUnread(r.Context(), req.UserID)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	type unreadResponse struct {
		UserID string `json:"user_id"`
		Unread int    `json:"unread"`
	}

	if h.cache != nil {
		if count, ok := h.cache.GetUnread(r.Context(), userID); ok {
			respondJSON(w, http.StatusOK, unreadResponse{UserID: userID, Unread: count})
			return
		}
	}

	count, err := h.store.CountUnreadNotifications(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count unread notifications")
		return
	}

	if h.cache != nil {
		h.cache.Seed(r.Context(), userID, count)
	}

	respondJSON(w, http.StatusOK, unreadResponse{UserID: userID, Unread: count})
}
