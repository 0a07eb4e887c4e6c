// Package admin holds the guild administration commands: setup, appeals, panel and status.
package admin

import (
	"context"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils/apperr"
	"appeal-bot/utils/database"
)

// GuildConfigStore reads and writes per-guild settings.
type GuildConfigStore interface {
	FindGuildConfig(ctx context.Context, guildID string, key model.GuildConfigKey) (string, error)
	UpsertGuildConfig(ctx context.Context, guildID string, key model.GuildConfigKey, value string) error
}

// CaseCounter summarises stored cases.
type CaseCounter interface {
	CaseStats(ctx context.Context) (database.CaseStats, error)
}

// RoleResolver maps abstract staff roles to guild role ids.
type RoleResolver interface {
	ResolveRole(ctx context.Context, guildID string, role model.AppRole) (string, error)
}

var overseerOnly = []model.AppRole{model.RoleOverseer}

// requireAppealGuild is the shared precondition of commands that only make sense in an appeal server.
func requireAppealGuild(rc *router.Context) error {
	if !rc.HasGame {
		return apperr.NotAppealGuild(rc.GuildID)
	}
	return nil
}
