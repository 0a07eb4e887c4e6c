package router

import (
	"context"
	"errors"
	"fmt"

	"appeal-bot/model"
	"appeal-bot/utils/apperr"
	"appeal-bot/utils/database"
)

// RoleResolver maps abstract staff roles to concrete guild role ids.
type RoleResolver struct {
	config model.ConfigProvider
	guilds GuildConfigReader
}

func NewRoleResolver(config model.ConfigProvider, guilds GuildConfigReader) *RoleResolver {
	return &RoleResolver{config: config, guilds: guilds}
}

// ResolveRole maps an abstract role to the guild's concrete role id. A GuildConfig entry wins
// over the game configuration of the appeal server.
func (r *RoleResolver) ResolveRole(ctx context.Context, guildID string, role model.AppRole) (string, error) {
	id, err := r.guilds.FindGuildConfig(ctx, guildID, role.ConfigKey())
	switch {
	case err == nil && id != "":
		return id, nil
	case err != nil && !errors.Is(err, database.ErrNotFound):
		return "", fmt.Errorf("failed to read role mapping for %s: %w", role, err)
	}

	if game, ok := r.config.GetConfig().GameByAppealServer(guildID); ok {
		if id := role.FallbackID(game); id != "" {
			return id, nil
		}
	}
	return "", apperr.ApplicationMisconfigured(fmt.Sprintf("no %s role mapped for guild %s", role, guildID))
}
