package database

import (
	"context"
	"fmt"
	"time"

	"appeal-bot/model"
)

// FindGuildConfig returns the value stored for (guildID, key), or ErrNotFound.
func (s *Store) FindGuildConfig(ctx context.Context, guildID string, key model.GuildConfigKey) (string, error) {
	var value string
	query := `SELECT config_value FROM guild_configs WHERE guild_id = ? AND config_key = ?`
	if err := s.db.GetContext(ctx, &value, query, guildID, key); err != nil {
		return "", notFound(err, fmt.Sprintf("failed to get %s for guild %s", key, guildID))
	}
	return value, nil
}

func (s *Store) UpsertGuildConfig(ctx context.Context, guildID string, key model.GuildConfigKey, value string) error {
	entry := model.GuildConfigEntry{GuildID: guildID, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	query := `INSERT INTO guild_configs (guild_id, config_key, config_value, updated_at)
		VALUES (:guild_id, :config_key, :config_value, :updated_at)
		ON CONFLICT (guild_id, config_key) DO UPDATE SET config_value = excluded.config_value, updated_at = excluded.updated_at`
	if _, err := s.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to upsert %s for guild %s: %w", key, guildID, err)
	}
	return nil
}

func (s *Store) GuildConfigs(ctx context.Context, guildID string) ([]model.GuildConfigEntry, error) {
	var entries []model.GuildConfigEntry
	if err := s.db.SelectContext(ctx, &entries, `SELECT * FROM guild_configs WHERE guild_id = ? ORDER BY config_key`, guildID); err != nil {
		return nil, fmt.Errorf("failed to list config for guild %s: %w", guildID, err)
	}
	return entries, nil
}
