package database

import (
	"context"
	"fmt"

	"appeal-bot/model"
)

// RevokeAccessCode adds a code to the denylist. Revoking twice keeps the first record.
func (s *Store) RevokeAccessCode(ctx context.Context, r model.AccessCodeRevocation) error {
	r.IssuedAt = r.IssuedAt.UTC()
	query := `INSERT OR IGNORE INTO access_code_blacklist (access_code, issued_by, issued_at) VALUES (:access_code, :issued_by, :issued_at)`
	if _, err := s.db.NamedExecContext(ctx, query, r); err != nil {
		return fmt.Errorf("failed to revoke access code: %w", err)
	}
	return nil
}

func (s *Store) IsAccessCodeRevoked(ctx context.Context, code string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM access_code_blacklist WHERE access_code = ?`, code); err != nil {
		return false, fmt.Errorf("failed to check access code denylist: %w", err)
	}
	return n > 0, nil
}
