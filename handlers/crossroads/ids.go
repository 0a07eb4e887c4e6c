package crossroads

import (
	"strings"

	"appeal-bot/model"
)

const (
	Prefix = "crossroads:"

	discordButtonPrefix = Prefix + "discord_btn_"
	gameButtonPrefix    = Prefix + "in-game_btn_"
	discordMenuPrefix   = Prefix + "discord_select_menu:"
	discordModalPrefix  = Prefix + "discord_modal_"
	gameModalPrefix     = Prefix + "in-game_modal_"

	FieldPunishmentReason = "punishment_reason"
	FieldAppealReason     = "appeal_reason"
	FieldVideo            = "appeal_video"

	menuBan     = "ban"
	menuWarning = "warning"
)

func DiscordButtonID(tag string) string { return discordButtonPrefix + tag }
func GameButtonID(tag string) string    { return gameButtonPrefix + tag }
func menuID(tag string) string          { return discordMenuPrefix + tag }

// ModalID encodes platform, punishment and game into a modal custom id,
// e.g. "crossroads:discord_modal_BAN:blox_fruits".
func ModalID(platform model.Platform, punishment model.PunishmentType, tag string) string {
	prefix := discordModalPrefix
	if platform == model.PlatformGame {
		prefix = gameModalPrefix
	}
	return prefix + string(punishment) + ":" + tag
}

type modalKey struct {
	Platform   model.Platform
	Punishment model.PunishmentType
	Tag        string
}

func parseModalID(id string) (modalKey, bool) {
	var key modalKey
	rest, ok := strings.CutPrefix(id, discordModalPrefix)
	key.Platform = model.PlatformDiscord
	if !ok {
		if rest, ok = strings.CutPrefix(id, gameModalPrefix); !ok {
			return modalKey{}, false
		}
		key.Platform = model.PlatformGame
	}

	kind, tag, ok := strings.Cut(rest, ":")
	if !ok || tag == "" {
		return modalKey{}, false
	}
	key.Punishment, ok = model.ParsePunishmentType(kind)
	if !ok {
		return modalKey{}, false
	}
	// Game appeals only cover bans.
	if key.Platform == model.PlatformGame && key.Punishment != model.PunishmentBan {
		return modalKey{}, false
	}
	key.Tag = tag
	return key, true
}
