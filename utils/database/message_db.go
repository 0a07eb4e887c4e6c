package database

import (
	"context"
	"fmt"
	"time"

	"appeal-bot/model"
)

func (s *Store) InsertMessage(ctx context.Context, m model.MessageMirror) error {
	m.CreatedAt = m.CreatedAt.UTC()
	query := `INSERT OR IGNORE INTO message_logs (message_id, case_id, author_id, author_name, content, created_at, edited_at)
		VALUES (:message_id, :case_id, :author_id, :author_name, :content, :created_at, :edited_at)`
	if _, err := s.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to insert message %s: %w", m.MessageID, err)
	}
	return nil
}

// UpdateMessage records an edit. It reports ErrNotFound for messages that were never mirrored.
func (s *Store) UpdateMessage(ctx context.Context, messageID, content string, editedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE message_logs SET content = ?, edited_at = ? WHERE message_id = ?`, content, editedAt.UTC(), messageID)
	if err != nil {
		return fmt.Errorf("failed to update message %s: %w", messageID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMessage(ctx context.Context, messageID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM message_logs WHERE message_id = ?`, messageID); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", messageID, err)
	}
	return nil
}

func (s *Store) MessagesOfCase(ctx context.Context, caseID string) ([]model.MessageMirror, error) {
	var messages []model.MessageMirror
	if err := s.db.SelectContext(ctx, &messages, `SELECT * FROM message_logs WHERE case_id = ? ORDER BY created_at ASC`, caseID); err != nil {
		return nil, fmt.Errorf("failed to list messages of case %s: %w", caseID, err)
	}
	return messages, nil
}
