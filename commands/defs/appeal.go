package defs

import "github.com/bwmarrin/discordgo"

var Verdict = &discordgo.ApplicationCommand{
	Name:        "verdict",
	Description: "Issue a verdict on the appeal in this channel",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "decision",
			Description: "Accept or reject the appeal",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Accept", Value: "accept"},
				{Name: "Reject", Value: "reject"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason shown to the appealer",
			Required:    true,
			MaxLength:   1024,
		},
	},
}

var Code = &discordgo.ApplicationCommand{
	Name:        "code",
	Description: "Manage case access codes",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "generate",
			Description: "Send yourself an access link for a case",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "case_id",
					Description: "Case ID",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "info",
			Description: "Show who requested an access code and when",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "access_code",
					Description: "Access code",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "revoke",
			Description: "Revoke an access code",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "access_code",
					Description: "Access code",
					Required:    true,
				},
			},
		},
	},
}
