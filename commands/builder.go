// Package commands declares the slash commands registered in every appeal server.
package commands

import (
	"appeal-bot/commands/defs"

	"github.com/bwmarrin/discordgo"
)

var adminPermission int64 = discordgo.PermissionManageServer

// GenerateCommands returns the command set for an appeal server. Role checks happen in
// the router; setup and panel are additionally hidden from members without Manage Server.
func GenerateCommands() []*discordgo.ApplicationCommand {
	setup := *defs.Setup
	setup.DefaultMemberPermissions = &adminPermission
	panel := *defs.Panel
	panel.DefaultMemberPermissions = &adminPermission

	return []*discordgo.ApplicationCommand{
		defs.Verdict,
		defs.Code,
		&setup,
		defs.Appeals,
		&panel,
		defs.Status,
	}
}
