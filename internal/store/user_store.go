package store

import (
	"context"
	"fmt"
)

// ListUserIDs returns up to limit user identifiers greater than afterID,
// in ascending id order. Passing the last id of one page as afterID of the
// next walks the whole directory without ever materializing it.
func (s *PostgresStore) ListUserIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM users
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
