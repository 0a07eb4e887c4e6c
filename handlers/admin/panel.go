package admin

import (
	"context"
	"strings"

	"appeal-bot/handlers/crossroads"
	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils/apperr"
	"appeal-bot/utils/embeds"

	"github.com/bwmarrin/discordgo"
)

const panelTypeCrossroads = "crossroads"

// Panel posts the crossroads entry message into the current channel.
type Panel struct {
	discord model.Discord
}

func NewPanel(discord model.Discord) *Panel {
	return &Panel{discord: discord}
}

func (c *Panel) Name() string                   { return "panel" }
func (c *Panel) RequiredRoles() []model.AppRole { return overseerOnly }
func (c *Panel) Guildless() bool                { return false }

func (c *Panel) Check(_ context.Context, rc *router.Context) error {
	return requireAppealGuild(rc)
}

func (c *Panel) Execute(ctx context.Context, rc *router.Context) error {
	sub, opts := rc.Subcommand()
	if sub != "create" {
		rc.Reply("Please provide a valid option for the panel command.")
		return nil
	}
	panelType := panelTypeCrossroads
	if opt, ok := opts["type"]; ok {
		panelType = strings.ToLower(opt.StringValue())
	}
	if panelType != panelTypeCrossroads {
		rc.Reply("Unknown panel type: " + panelType)
		return nil
	}

	tag := rc.Game.Tag()
	msg := embeds.Panel(rc.Game, crossroads.DiscordButtonID(tag), crossroads.GameButtonID(tag))
	if _, err := c.discord.ChannelMessageSendComplex(rc.ChannelID, msg, discordgo.WithContext(ctx)); err != nil {
		return apperr.ExternalService("Failed to create panel.", err)
	}
	rc.Reply("Panel has been created")
	return nil
}
