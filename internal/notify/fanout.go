package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cliniks/academy-notify/internal/domain"
	"github.com/cliniks/academy-notify/internal/store"
	ws "github.com/cliniks/academy-notify/internal/websocket"
)

// Validation errors, surfaced before any directory lookup or write.
var (
	ErrTitleRequired   = errors.New("title is required")
	ErrMessageRequired = errors.New("message is required")
	ErrInvalidType     = errors.New("invalid notification type")
	ErrAmbiguousTarget = errors.New("user_id and user_ids are mutually exclusive")
	ErrNoRecipients    = errors.New("no recipients resolved")
)

// Store is the persistence surface fan-out needs. Satisfied by
// store.PostgresStore; swapped for a fake in tests.
type Store interface {
	InsertNotifications(ctx context.Context, rows []store.NotificationRow) (int, error)
	ListUserIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

// Fanout replicates one message into per-recipient notification records.
// The bulk write is all-or-nothing: on failure nothing is persisted.
type Fanout struct {
	store    Store
	cache    *UnreadCache
	hub      *ws.Hub
	logger   *slog.Logger
	pageSize int
}

// NewFanout creates the fan-out service. pageSize bounds each user
// directory page during broadcast resolution. cache and hub may be nil.
func NewFanout(s Store, cache *UnreadCache, hub *ws.Hub, logger *slog.Logger, pageSize int) *Fanout {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Fanout{
		store:    s,
		cache:    cache,
		hub:      hub,
		logger:   logger,
		pageSize: pageSize,
	}
}

// Send resolves the target set and persists one notification per
// recipient. Returns the number of records created.
func (f *Fanout) Send(ctx context.Context, req domain.CreateNotificationRequest) (int, error) {
	if req.Title == "" {
		return 0, ErrTitleRequired
	}
	if req.Message == "" {
		return 0, ErrMessageRequired
	}
	if req.UserID != "" && len(req.UserIDs) > 0 {
		return 0, ErrAmbiguousTarget
	}

	if req.Type == "" {
		req.Type = domain.TypeInfo
	}
	if !domain.ValidType(req.Type) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidType, req.Type)
	}

	targets, err := f.resolveTargets(ctx, req)
	if err != nil {
		return 0, err
	}
	if len(targets) == 0 {
		return 0, ErrNoRecipients
	}

	rows := make([]store.NotificationRow, 0, len(targets))
	for _, userID := range targets {
		rows = append(rows, store.NotificationRow{
			UserID:    userID,
			Title:     req.Title,
			Message:   req.Message,
			Type:      req.Type,
			Category:  req.Category,
			ActionURL: req.ActionURL,
			Metadata:  req.Metadata,
			ExpiresAt: req.ExpiresAt,
		})
	}

	created, err := f.store.InsertNotifications(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("inserting notifications: %w", err)
	}

	if f.cache != nil {
		for _, userID := range targets {
			f.cache.IncrUnread(ctx, userID)
		}
	}

	if f.hub != nil {
		f.hub.Broadcast(ws.ActivityEvent{
			Type:       ws.ActivityNotificationsCreated,
			Recipients: created,
			Timestamp:  time.Now().UTC(),
		})
	}

	f.logger.Info("notification fan-out complete",
		"recipients", len(targets),
		"created", created,
		"type", req.Type,
	)

	return created, nil
}

// resolveTargets turns the request's target spec into recipient ids.
// Broadcast walks the user directory page by page; no single query ever
// reads more than pageSize ids.
func (f *Fanout) resolveTargets(ctx context.Context, req domain.CreateNotificationRequest) ([]string, error) {
	if req.UserID != "" {
		return []string{req.UserID}, nil
	}
	if len(req.UserIDs) > 0 {
		return req.UserIDs, nil
	}

	var targets []string
	afterID := ""
	for {
		page, err := f.store.ListUserIDs(ctx, afterID, f.pageSize)
		if err != nil {
			return nil, fmt.Errorf("resolving broadcast recipients: %w", err)
		}
		if len(page) == 0 {
			break
		}
		targets = append(targets, page...)
		if len(page) < f.pageSize {
			break
		}
		afterID = page[len(page)-1]
	}

	return targets, nil
}
