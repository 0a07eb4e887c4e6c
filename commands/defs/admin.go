package defs

import "github.com/bwmarrin/discordgo"

var Setup = &discordgo.ApplicationCommand{
	Name:        "setup",
	Description: "Create the appeal categories for this server",
}

var Appeals = &discordgo.ApplicationCommand{
	Name:        "appeals",
	Description: "Configure the appeal system",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "accepting",
			Description: "Open or close the server for new appeals",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "boolean",
					Description: "Whether new appeals are accepted",
					Required:    true,
				},
			},
		},
	},
}

var Panel = &discordgo.ApplicationCommand{
	Name:        "panel",
	Description: "Post appeal panels",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "create",
			Description: "Post a panel in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Panel type",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Crossroads", Value: "crossroads"},
					},
				},
			},
		},
	},
}

var Status = &discordgo.ApplicationCommand{
	Name:        "status",
	Description: "Display bot and system status information",
}
