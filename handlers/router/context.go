package router

import (
	"appeal-bot/model"
	"appeal-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// Context carries one deferred slash command through its guard and handler.
type Context struct {
	Interaction *discordgo.InteractionCreate
	GuildID     string
	ChannelID   string
	User        *discordgo.User
	// Game is the game whose appeal server the command runs in.
	Game    model.GameConfig
	HasGame bool

	responder utils.Responder
}

// NewContext builds a Context. Router does this for every command; tests of individual
// commands call it directly.
func NewContext(s utils.Responder, i *discordgo.InteractionCreate, cfg *model.Config) *Context {
	c := &Context{
		Interaction: i,
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
		User:        utils.InteractionUser(i),
		responder:   s,
	}
	if i.GuildID != "" && cfg != nil {
		c.Game, c.HasGame = cfg.GameByAppealServer(i.GuildID)
	}
	return c
}

// Options maps the top-level options by name.
func (c *Context) Options() map[string]*discordgo.ApplicationCommandInteractionDataOption {
	return optionMap(c.Interaction.ApplicationCommandData().Options)
}

// Subcommand returns the invoked subcommand name and its options.
func (c *Context) Subcommand() (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	opts := c.Interaction.ApplicationCommandData().Options
	if len(opts) == 0 || opts[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", nil
	}
	return opts[0].Name, optionMap(opts[0].Options)
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func (c *Context) Reply(message string) {
	utils.SendFollowUp(c.responder, c.Interaction.Interaction, message)
}

func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) {
	utils.SendFollowUpEmbed(c.responder, c.Interaction.Interaction, embed)
}

// UserID is the invoking user's id, or "" for a malformed interaction.
func (c *Context) UserID() string {
	if c.User == nil {
		return ""
	}
	return c.User.ID
}
