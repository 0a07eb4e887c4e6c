package model

import (
	"fmt"
	"strings"
	"time"
)

// ServerRole identifies which guild of a game a Rover credential belongs to.
type ServerRole string

const (
	AppealServer    ServerRole = "appeal"
	CommunityServer ServerRole = "community"
)

// CredentialKey indexes the Rover token map.
type CredentialKey struct {
	Game string
	Role ServerRole
}

// RoverTokens is how a game lists its two Rover credentials in the games file.
type RoverTokens struct {
	Appeal    string `mapstructure:"appeal"`
	Community string `mapstructure:"community"`
}

// GameConfig describes one game served by the appeal system.
type GameConfig struct {
	Name                 string      `mapstructure:"name"`
	CrossroadDescription []string    `mapstructure:"crossroad_description"`
	Image                string      `mapstructure:"image"`
	AppealServerID       string      `mapstructure:"appeal_server_id"`
	CommunityServerID    string      `mapstructure:"community_server_id"`
	JudgeRoleID          string      `mapstructure:"appeal_judge_role_id"`
	OverseerRoleID       string      `mapstructure:"appeal_overseer_role_id"`
	LogChannelID         string      `mapstructure:"log_channel_id"`
	UniverseID           string      `mapstructure:"universe_id"`
	RoverTokens          RoverTokens `mapstructure:"rover_tokens"`
}

// Tag is the normalized game name used in custom ids and storage.
func (g GameConfig) Tag() string {
	return NormalizeGameName(g.Name)
}

func NormalizeGameName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Config stores the application configuration.
type Config struct {
	BotToken      string
	AccessDomain  string
	AESSecretKey  string
	AESSalt       string
	OpenCloudKey  string
	DBPath        string
	HTTPAddr      string
	RedisURL      string
	LogWebhookURL string

	CleanupInterval time.Duration
	CleanupGrace    time.Duration
	IntakeTimeout   time.Duration

	Games       []GameConfig
	Credentials map[CredentialKey]string
}

func (c *Config) GameByTag(tag string) (GameConfig, bool) {
	for _, g := range c.Games {
		if g.Tag() == tag {
			return g, true
		}
	}
	return GameConfig{}, false
}

func (c *Config) GameByAppealServer(guildID string) (GameConfig, bool) {
	for _, g := range c.Games {
		if g.AppealServerID == guildID {
			return g, true
		}
	}
	return GameConfig{}, false
}

func (c *Config) GameByCommunityServer(guildID string) (GameConfig, bool) {
	for _, g := range c.Games {
		if g.CommunityServerID == guildID {
			return g, true
		}
	}
	return GameConfig{}, false
}

// IsRegisteredGuild reports whether the guild belongs to any configured game.
func (c *Config) IsRegisteredGuild(guildID string) bool {
	if _, ok := c.GameByAppealServer(guildID); ok {
		return true
	}
	_, ok := c.GameByCommunityServer(guildID)
	return ok
}

// Credential returns the Rover token for a game's server.
func (c *Config) Credential(game string, role ServerRole) (string, bool) {
	token, ok := c.Credentials[CredentialKey{Game: game, Role: role}]
	return token, ok && token != ""
}

// Validate fails on a game that cannot be served.
func (c *Config) Validate() error {
	if len(c.Games) == 0 {
		return fmt.Errorf("no games configured")
	}
	seenAppeal := make(map[string]string, len(c.Games))
	seenTag := make(map[string]struct{}, len(c.Games))
	for _, g := range c.Games {
		tag := g.Tag()
		if tag == "" {
			return fmt.Errorf("game with empty name")
		}
		if _, dup := seenTag[tag]; dup {
			return fmt.Errorf("game %s is configured twice", tag)
		}
		seenTag[tag] = struct{}{}

		if g.AppealServerID == "" || g.CommunityServerID == "" {
			return fmt.Errorf("game %s: appeal_server_id and community_server_id are required", tag)
		}
		if g.JudgeRoleID == "" || g.OverseerRoleID == "" {
			return fmt.Errorf("game %s: appeal_judge_role_id and appeal_overseer_role_id are required", tag)
		}
		if other, dup := seenAppeal[g.AppealServerID]; dup {
			return fmt.Errorf("games %s and %s share appeal server %s", other, tag, g.AppealServerID)
		}
		seenAppeal[g.AppealServerID] = tag

		for _, role := range []ServerRole{AppealServer, CommunityServer} {
			if _, ok := c.Credential(tag, role); !ok {
				return fmt.Errorf("game %s: missing %s rover token", tag, role)
			}
		}
	}
	return nil
}
