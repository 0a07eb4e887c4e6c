package admin

import (
	"context"
	"fmt"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils/apperr"

	"github.com/bwmarrin/discordgo"
)

const (
	OpenAppealsCategory   = "Open Appeals"
	ClosedAppealsCategory = "Closed Appeals"
)

// Setup creates the open and closed appeal categories of an appeal server.
type Setup struct {
	discord model.Discord
	store   GuildConfigStore
	roles   RoleResolver
}

func NewSetup(discord model.Discord, store GuildConfigStore, roles RoleResolver) *Setup {
	return &Setup{discord: discord, store: store, roles: roles}
}

func (c *Setup) Name() string                   { return "setup" }
func (c *Setup) RequiredRoles() []model.AppRole { return overseerOnly }
func (c *Setup) Guildless() bool                { return false }

func (c *Setup) Check(ctx context.Context, rc *router.Context) error {
	if err := requireAppealGuild(rc); err != nil {
		return err
	}
	channels, err := c.discord.GuildChannels(rc.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return apperr.ExternalService("Failed to list server channels.", err)
	}
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildCategory {
			continue
		}
		if ch.Name == OpenAppealsCategory || ch.Name == ClosedAppealsCategory {
			return apperr.CategoryAlreadySetup()
		}
	}
	return nil
}

func (c *Setup) Execute(ctx context.Context, rc *router.Context) error {
	judgeRoleID, err := c.roles.ResolveRole(ctx, rc.GuildID, model.RoleJudge)
	if err != nil {
		return err
	}
	overseerRoleID, err := c.roles.ResolveRole(ctx, rc.GuildID, model.RoleOverseer)
	if err != nil {
		return err
	}

	categories := []struct {
		name string
		key  model.GuildConfigKey
		open bool
	}{
		{OpenAppealsCategory, model.OpenAppealsCategoryID, true},
		{ClosedAppealsCategory, model.ClosedAppealsCategoryID, false},
	}
	for _, cat := range categories {
		created, err := c.discord.GuildChannelCreateComplex(rc.GuildID, discordgo.GuildChannelCreateData{
			Name: cat.name,
			Type: discordgo.ChannelTypeGuildCategory,
			PermissionOverwrites: []*discordgo.PermissionOverwrite{
				model.EveryoneDenied(rc.GuildID),
				model.JudgeOverwrite(judgeRoleID, cat.open),
				model.OverseerOverwrite(overseerRoleID, cat.open),
			},
		}, discordgo.WithContext(ctx))
		if err != nil {
			return apperr.ExternalService(fmt.Sprintf("Failed to create the %s category.", cat.name), err)
		}
		if err := c.store.UpsertGuildConfig(ctx, rc.GuildID, cat.key, created.ID); err != nil {
			return fmt.Errorf("failed to save %s: %w", cat.key, err)
		}
	}

	rc.Reply("Server has been successfully configured")
	return nil
}
