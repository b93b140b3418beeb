package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cliniks/academy-notify/internal/domain"
	"github.com/jackc/pgx/v5"
)

// NotificationRow holds the data for one notification insert. Every row in
// a single fan-out shares the same content and differs only by recipient.
type NotificationRow struct {
	UserID    string
	Title     string
	Message   string
	Type      string
	Category  string
	ActionURL string
	Metadata  []byte
	ExpiresAt *time.Time
}

// InsertNotifications writes all rows inside a single transaction. The
// write is all-or-nothing: any failure rolls back every row.
func (s *PostgresStore) InsertNotifications(ctx context.Context, rows []NotificationRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range rows {
		var category, actionURL *string
		if row.Category != "" {
			category = &row.Category
		}
		if row.ActionURL != "" {
			actionURL = &row.ActionURL
		}

		var metadata []byte
		if len(row.Metadata) > 0 {
			metadata = row.Metadata
		}

		batch.Queue(`
			INSERT INTO notifications (user_id, title, message, type, category, action_url, metadata, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, row.UserID, row.Title, row.Message, row.Type, category, actionURL, metadata, row.ExpiresAt)
	}

	results := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("inserting notification: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	return len(rows), nil
}

// ListNotifications returns a recipient's unexpired notifications, newest
// first.
func (s *PostgresStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, message, type, category, action_url, metadata, read, expires_at, created_at
		FROM notifications
		WHERE user_id = $1
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var category *string
		err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type,
			&category, &n.ActionURL, &n.Metadata, &n.Read, &n.ExpiresAt, &n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if category != nil {
			n.Category = *category
		}
		notifications = append(notifications, n)
	}

	if notifications == nil {
		notifications = []domain.Notification{}
	}

	return notifications, nil
}

// MarkNotificationRead flags one notification as read. Returns false when
// no unread notification matched the id/recipient pair.
func (s *PostgresStore) MarkNotificationRead(ctx context.Context, id, userID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = true
		WHERE id = $1 AND user_id = $2 AND read = false
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountUnreadNotifications counts a recipient's unread, unexpired
// notifications.
func (s *PostgresStore) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND read = false
		  AND (expires_at IS NULL OR expires_at > NOW())
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}
