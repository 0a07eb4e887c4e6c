package model

import "github.com/bwmarrin/discordgo"

// AppRole is an abstract staff role mapped to a concrete role per guild.
type AppRole string

const (
	RoleOverseer AppRole = "OVERSEER"
	RoleJudge    AppRole = "JUDGE"
)

// ConfigKey is the GuildConfig key that can override the role id.
func (r AppRole) ConfigKey() GuildConfigKey {
	if r == RoleJudge {
		return JudgeRoleID
	}
	return OverseerRoleID
}

// FallbackID returns the role id from the static game configuration.
func (r AppRole) FallbackID(game GameConfig) string {
	if r == RoleJudge {
		return game.JudgeRoleID
	}
	return game.OverseerRoleID
}

const (
	readOnly = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory

	overseerOpen = discordgo.PermissionAllChannel
	judgeOpen    = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory | discordgo.PermissionUseSlashCommands |
		discordgo.PermissionAddReactions | discordgo.PermissionAttachFiles
	memberOpen = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory | discordgo.PermissionAddReactions |
		discordgo.PermissionAttachFiles
)

// EveryoneDenied hides a channel or category from @everyone. The everyone role id equals the guild id.
func EveryoneDenied(guildID string) *discordgo.PermissionOverwrite {
	return &discordgo.PermissionOverwrite{
		ID:   guildID,
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: discordgo.PermissionAllChannel,
	}
}

func OverseerOverwrite(roleID string, open bool) *discordgo.PermissionOverwrite {
	allow := int64(readOnly)
	if open {
		allow = overseerOpen
	}
	return &discordgo.PermissionOverwrite{ID: roleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: allow}
}

func JudgeOverwrite(roleID string, open bool) *discordgo.PermissionOverwrite {
	allow := int64(readOnly)
	if open {
		allow = judgeOpen
	}
	return &discordgo.PermissionOverwrite{ID: roleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: allow}
}

// MemberOverwrite grants the appealer access; closed revokes write access.
func MemberOverwrite(userID string, open bool) *discordgo.PermissionOverwrite {
	allow := int64(readOnly)
	deny := int64(0)
	if open {
		allow = memberOpen
	} else {
		deny = discordgo.PermissionSendMessages | discordgo.PermissionAddReactions | discordgo.PermissionAttachFiles
	}
	return &discordgo.PermissionOverwrite{ID: userID, Type: discordgo.PermissionOverwriteTypeMember, Allow: allow, Deny: deny}
}

// CaseChannelOverwrites builds the overwrites of a case channel.
func CaseChannelOverwrites(guildID, appealerID, judgeRoleID, overseerRoleID string, open bool) []*discordgo.PermissionOverwrite {
	return []*discordgo.PermissionOverwrite{
		EveryoneDenied(guildID),
		MemberOverwrite(appealerID, open),
		JudgeOverwrite(judgeRoleID, open),
		OverseerOverwrite(overseerRoleID, open),
	}
}
