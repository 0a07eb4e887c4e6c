package model

import (
	"strings"
	"time"
)

// Platform is where the appealed punishment was issued.
type Platform string

const (
	PlatformDiscord Platform = "DISCORD"
	PlatformGame    Platform = "GAME"
)

// Slug is the lower-case form used in custom ids and channel names.
func (p Platform) Slug() string {
	if p == PlatformGame {
		return "in-game"
	}
	return "discord"
}

type Verdict string

const (
	VerdictPending  Verdict = "PENDING"
	VerdictAccepted Verdict = "ACCEPTED"
	VerdictRejected Verdict = "REJECTED"
)

type PunishmentType string

const (
	PunishmentBan  PunishmentType = "BAN"
	PunishmentWarn PunishmentType = "WARN"
)

// ParsePunishmentType accepts BAN or WARN in any case.
func ParsePunishmentType(s string) (PunishmentType, bool) {
	switch PunishmentType(strings.ToUpper(s)) {
	case PunishmentBan:
		return PunishmentBan, true
	case PunishmentWarn:
		return PunishmentWarn, true
	}
	return "", false
}

// Case is one submitted appeal. Rows are never deleted.
// The database table is named 'cases'.
type Case struct {
	ID                string         `db:"id" json:"id"`
	Game              string         `db:"game" json:"game"`
	AppealerDiscordID string         `db:"appealer_discord_id" json:"appealerDiscordId"`
	AppealerRobloxID  string         `db:"appealer_roblox_id" json:"appealerRobloxId"`
	Platform          Platform       `db:"appeal_platform" json:"appealPlatform"`
	Verdict           Verdict        `db:"appeal_verdict" json:"appealVerdict"`
	AppealReason      string         `db:"appeal_reason" json:"appealReason"`
	PunishmentType    PunishmentType `db:"punishment_type" json:"punishmentType"`
	PunishmentReason  string         `db:"punishment_reason" json:"punishmentReason"`
	VideoURL          *string        `db:"video_url" json:"videoUrl,omitempty"`
	ChannelID         string         `db:"channel_id" json:"channelId"`
	AppealedAt        time.Time      `db:"appealed_at" json:"appealedAt"`
	ClosedAt          *time.Time     `db:"closed_at" json:"closedAt,omitempty"`
	CleanedUpAt       *time.Time     `db:"cleaned_up_at" json:"cleanedUpAt,omitempty"`
	VerdictReason     *string        `db:"verdict_reason" json:"verdictReason,omitempty"`
	VerdictBy         *string        `db:"verdict_by" json:"verdictBy,omitempty"`
}

func (c *Case) IsPending() bool {
	return c.Verdict == VerdictPending
}

// VerdictDecision is what a staff member submits to close a case.
type VerdictDecision struct {
	Verdict  Verdict
	Reason   string
	IssuedBy string
	IssuedAt time.Time
}
