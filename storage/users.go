package storage

import (
	"context"

	"taskboard/domain"
)

// EnsureUser records u, refreshing name and email when they are known.
func (s *Storage) EnsureUser(ctx context.Context, u domain.User) error {
	return ensureUser(ctx, s.db, u, s.timestamp())
}

func ensureUser(ctx context.Context, ex execer, u domain.User, now string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO users (id, name, email, avatar, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE users.name END,
			email = CASE WHEN excluded.email <> '' THEN excluded.email ELSE users.email END`,
		u.ID, u.Name, u.Email, nullIfEmpty(u.Avatar), now)
	return err
}
