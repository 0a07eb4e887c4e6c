package model

import "time"

// GuildConfigKey is the closed set of per-guild settings.
type GuildConfigKey string

const (
	OpenAppealsCategoryID   GuildConfigKey = "OPEN_APPEALS_CATEGORY_ID"
	ClosedAppealsCategoryID GuildConfigKey = "CLOSED_APPEALS_CATEGORY_ID"
	AppealEnabled           GuildConfigKey = "APPEAL_ENABLED"
	JudgeRoleID             GuildConfigKey = "JUDGE_ROLE_ID"
	OverseerRoleID          GuildConfigKey = "OVERSEER_ROLE_ID"
)

// GuildConfigEntry is one (guild, key) setting. The value is interpreted per key.
type GuildConfigEntry struct {
	GuildID   string         `db:"guild_id"`
	Key       GuildConfigKey `db:"config_key"`
	Value     string         `db:"config_value"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// MessageMirror is a copy of a message posted in a case channel.
type MessageMirror struct {
	MessageID string     `db:"message_id" json:"messageId"`
	CaseID    string     `db:"case_id" json:"-"`
	AuthorID  string     `db:"author_id" json:"authorId"`
	Author    string     `db:"author_name" json:"author"`
	Content   string     `db:"content" json:"content"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	EditedAt  *time.Time `db:"edited_at" json:"editedAt,omitempty"`
}

// AccessCodeRevocation blocks an issued access code.
type AccessCodeRevocation struct {
	AccessCode string    `db:"access_code"`
	IssuedBy   string    `db:"issued_by"`
	IssuedAt   time.Time `db:"issued_at"`
}
