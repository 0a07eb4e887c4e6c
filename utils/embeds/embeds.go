// Package embeds renders the messages the appeal workflows post to Discord.
package embeds

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"appeal-bot/model"
	"appeal-bot/utils"
	"appeal-bot/utils/accesscode"
	"appeal-bot/utils/roblox"

	"github.com/bwmarrin/discordgo"
)

const historyLimit = 10

func mention(userID string) string {
	return "<@" + userID + ">"
}

func longDateTime(t time.Time) string {
	return fmt.Sprintf("<t:%d:F>", t.Unix())
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// AccessLink is the public URL an access code opens. Codes are base64 and may contain '/'.
func AccessLink(domain, code string) string {
	return fmt.Sprintf("https://%s/appeals/%s", domain, url.PathEscape(code))
}

// CaseInfo is the first message of a case channel.
func CaseInfo(c *model.Case, game model.GameConfig) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Case ID", Value: "`" + c.ID + "`"},
		{Name: "Game", Value: game.Name, Inline: true},
		{Name: "Platform", Value: string(c.Platform), Inline: true},
		{Name: "Punishment Type", Value: string(c.PunishmentType), Inline: true},
		{Name: "Punishment Reason", Value: c.PunishmentReason},
		{Name: "Appeal Reason", Value: c.AppealReason},
	}
	if c.VideoURL != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Evidence", Value: *c.VideoURL})
	}
	return &discordgo.MessageEmbed{
		Title:       "CASE DETAILS",
		Description: fmt.Sprintf("Appeal submitted by %s on %s", mention(c.AppealerDiscordID), longDateTime(c.AppealedAt)),
		Color:       utils.ParseHexColor(utils.ColorInfo),
		Fields:      fields,
		Timestamp:   c.AppealedAt.Format(time.RFC3339),
	}
}

// RobloxProfile renders a Roblox account with a link button to its profile page.
func RobloxProfile(p roblox.Profile, a roblox.Avatar) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title: "ROBLOX PROFILE",
		Color: utils.ParseHexColor(utils.ColorNeutral),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: p.ID, Inline: true},
			{Name: "Username", Value: p.Name, Inline: true},
			{Name: "Display Name", Value: orNone(p.DisplayName), Inline: true},
			{Name: "Premium", Value: yesNo(p.Premium), Inline: true},
			{Name: "ID Verified", Value: yesNo(p.IDVerified), Inline: true},
			{Name: "Account Creation", Value: accountCreation(p.CreateTime), Inline: true},
		},
	}
	if a.Response.ImageURI != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: a.Response.ImageURI}
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label: "View Profile",
					Style: discordgo.LinkButton,
					URL:   fmt.Sprintf("https://roblox.com/users/%s/profile", p.ID),
				},
			}},
		},
	}
}

func accountCreation(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return longDateTime(t)
}

// CaseHistory lists the most recent cases of an appealer, newest first.
func CaseHistory(cases []model.Case, robloxID, robloxName string) *discordgo.MessageEmbed {
	var b strings.Builder
	for i, c := range cases {
		if i == historyLimit {
			break
		}
		fmt.Fprintf(&b, "`%s` | %s | %s | %s | %s\n",
			c.ID, c.Game, c.PunishmentType, c.Verdict, c.AppealedAt.Format("2006-01-02"))
	}
	description := b.String()
	if description == "" {
		description = "No appeal found for this user."
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("CASE HISTORY OF %s (%s)", robloxName, robloxID),
		Description: description,
		Color:       utils.ParseHexColor(utils.ColorNeutral),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Showing up to %d most recent cases", historyLimit)},
	}
}

// CaseLog summarizes a verdict for the case channel and the game's log channel.
func CaseLog(c *model.Case, game model.GameConfig, p roblox.Profile, a roblox.Avatar) *discordgo.MessageEmbed {
	title, color := "APPEAL REJECTED", utils.ColorRejected
	if c.Verdict == model.VerdictAccepted {
		title, color = "APPEAL ACCEPTED", utils.ColorAccepted
	}

	closedBy, closedOn, reason := "Unknown", "Unknown", "None"
	if c.VerdictBy != nil {
		closedBy = mention(*c.VerdictBy)
	}
	if c.ClosedAt != nil {
		closedOn = longDateTime(*c.ClosedAt)
	}
	if c.VerdictReason != nil {
		reason = orNone(*c.VerdictReason)
	}

	robloxAccount := c.AppealerRobloxID
	if p.Name != "" {
		robloxAccount = fmt.Sprintf("[%s](https://roblox.com/users/%s/profile) (%s)", p.Name, c.AppealerRobloxID, c.AppealerRobloxID)
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: utils.ParseHexColor(color),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Appeal ID", Value: "`" + c.ID + "`"},
			{Name: "Appealer", Value: mention(c.AppealerDiscordID), Inline: true},
			{Name: "Roblox Account", Value: robloxAccount, Inline: true},
			{Name: "Game", Value: game.Name, Inline: true},
			{Name: "Type", Value: fmt.Sprintf("%s (%s)", c.PunishmentType, c.Platform), Inline: true},
			{Name: "Closed by", Value: closedBy, Inline: true},
			{Name: "Closed on", Value: closedOn, Inline: true},
			{Name: "Reason", Value: reason},
		},
	}
	if a.Response.ImageURI != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: a.Response.ImageURI}
	}
	return embed
}

// CaseClosed is the DM an appealer receives once a verdict is issued.
func CaseClosed(c *model.Case, link string) *discordgo.MessageEmbed {
	reason := "None"
	if c.VerdictReason != nil {
		reason = orNone(*c.VerdictReason)
	}
	color := utils.ColorRejected
	if c.Verdict == model.VerdictAccepted {
		color = utils.ColorAccepted
	}
	return &discordgo.MessageEmbed{
		Title: "Case Closed",
		Color: utils.ParseHexColor(color),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: string(c.Verdict), Inline: true},
			{Name: "Access Link", Value: fmt.Sprintf("[Here](%s)", link), Inline: true},
			{Name: "Reason", Value: reason},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "ID: " + c.ID},
	}
}

// CaseAccess carries a freshly generated access link.
func CaseAccess(caseID, link string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Case Access Details",
		Description: "**Do not share these information**, they are for your eyes only.",
		Color:       utils.ParseHexColor(utils.ColorInfo),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Access Link", Value: fmt.Sprintf("[Here](%s)", link)},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Case ID: " + caseID},
	}
}

// AccessCodeDetails describes what an access code resolves to.
func AccessCodeDetails(d accesscode.Details) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "ACCESS DETAILS",
		Color: utils.ParseHexColor(utils.ColorInfo),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Case ID", Value: "`" + d.CaseID + "`"},
			{Name: "Belongs to", Value: mention(d.RequestedBy), Inline: true},
			{Name: "Created at", Value: longDateTime(d.CreatedAt), Inline: true},
		},
	}
}

// Panel is the crossroads entry message of a game.
func Panel(game model.GameConfig, discordButtonID, gameButtonID string) *discordgo.MessageSend {
	lines := game.CrossroadDescription
	if len(lines) > 3 {
		lines = lines[:3]
	}
	embed := &discordgo.MessageEmbed{
		Title:       game.Name + " Appeals",
		Description: strings.Join(lines, "\n"),
		Color:       utils.ParseHexColor(utils.ColorInfo),
	}
	if game.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: game.Image}
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Appeal Discord", Style: discordgo.PrimaryButton, CustomID: discordButtonID},
				discordgo.Button{Label: "Appeal In-Game", Style: discordgo.SecondaryButton, CustomID: gameButtonID},
			}},
		},
	}
}
