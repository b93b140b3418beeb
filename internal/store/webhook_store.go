package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cliniks/academy-notify/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (s *PostgresStore) CreateWebhook(ctx context.Context, req domain.CreateWebhookRequest) (*domain.Webhook, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generating webhook secret: %w", err)
	}

	var wh domain.Webhook
	err = s.pool.QueryRow(ctx, `
		INSERT INTO webhooks (name, url, events, secret)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, url, events, secret, is_active, rate_limit_per_second, created_at, updated_at
	`, req.Name, req.URL, req.Events, secret).Scan(
		&wh.ID, &wh.Name, &wh.URL, &wh.Events, &wh.Secret,
		&wh.IsActive, &wh.RateLimitPerSecond, &wh.CreatedAt, &wh.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting webhook: %w", err)
	}

	return &wh, nil
}

func (s *PostgresStore) GetWebhook(ctx context.Context, id string) (*domain.Webhook, error) {
	var wh domain.Webhook
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, url, events, secret, is_active, rate_limit_per_second, created_at, updated_at
		FROM webhooks WHERE id = $1
	`, id).Scan(
		&wh.ID, &wh.Name, &wh.URL, &wh.Events, &wh.Secret,
		&wh.IsActive, &wh.RateLimitPerSecond, &wh.CreatedAt, &wh.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying webhook: %w", err)
	}
	return &wh, nil
}

func (s *PostgresStore) ListWebhooks(ctx context.Context) ([]domain.Webhook, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, url, events, is_active, rate_limit_per_second, created_at, updated_at
		FROM webhooks
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []domain.Webhook
	for rows.Next() {
		var wh domain.Webhook
		err := rows.Scan(
			&wh.ID, &wh.Name, &wh.URL, &wh.Events,
			&wh.IsActive, &wh.RateLimitPerSecond, &wh.CreatedAt, &wh.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning webhook: %w", err)
		}
		webhooks = append(webhooks, wh)
	}

	if webhooks == nil {
		webhooks = []domain.Webhook{}
	}

	return webhooks, nil
}

// ListActiveWebhooks returns every active webhook whose event set contains
// the given event name.
func (s *PostgresStore) ListActiveWebhooks(ctx context.Context, event string) ([]domain.Webhook, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, url, events, secret, is_active, rate_limit_per_second, created_at, updated_at
		FROM webhooks
		WHERE is_active = true AND $1 = ANY(events)
	`, event)
	if err != nil {
		return nil, fmt.Errorf("querying active webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []domain.Webhook
	for rows.Next() {
		var wh domain.Webhook
		err := rows.Scan(
			&wh.ID, &wh.Name, &wh.URL, &wh.Events, &wh.Secret,
			&wh.IsActive, &wh.RateLimitPerSecond, &wh.CreatedAt, &wh.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning webhook: %w", err)
		}
		webhooks = append(webhooks, wh)
	}

	if webhooks == nil {
		webhooks = []domain.Webhook{}
	}

	return webhooks, nil
}

func (s *PostgresStore) UpdateWebhook(ctx context.Context, id string, req domain.UpdateWebhookRequest) (*domain.Webhook, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *req.Name)
		argIdx++
	}
	if req.URL != nil {
		setClauses = append(setClauses, fmt.Sprintf("url = $%d", argIdx))
		args = append(args, *req.URL)
		argIdx++
	}
	if req.Events != nil {
		setClauses = append(setClauses, fmt.Sprintf("events = $%d", argIdx))
		args = append(args, *req.Events)
		argIdx++
	}
	if req.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *req.IsActive)
		argIdx++
	}
	if req.RateLimitPerSecond != nil {
		setClauses = append(setClauses, fmt.Sprintf("rate_limit_per_second = $%d", argIdx))
		args = append(args, *req.RateLimitPerSecond)
		argIdx++
	}

	if len(setClauses) == 0 {
		return s.GetWebhook(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE webhooks SET %s
		WHERE id = $%d
		RETURNING id, name, url, events, is_active, rate_limit_per_second, created_at, updated_at
	`, strings.Join(setClauses, ", "), argIdx)
	args = append(args, id)

	var wh domain.Webhook
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&wh.ID, &wh.Name, &wh.URL, &wh.Events,
		&wh.IsActive, &wh.RateLimitPerSecond, &wh.CreatedAt, &wh.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("updating webhook: %w", err)
	}

	return &wh, nil
}

func generateSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(bytes), nil
}
