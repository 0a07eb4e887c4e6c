package roblox

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const RoverBaseURL = "https://registry.rover.link/api"

// RoverUser is the discord-to-roblox link stored by Rover.
type RoverUser struct {
	RobloxID       int64  `json:"robloxId"`
	CachedUsername string `json:"cachedUsername"`
	DiscordID      string `json:"discordId"`
	GuildID        string `json:"guildId"`
}

type RoverDiscordUsers struct {
	RobloxID int64 `json:"robloxId"`
	Discord  []struct {
		ID string `json:"id"`
	} `json:"discordUsers"`
	GuildID string `json:"guildId"`
}

// RoverBan is a registry-level ban record.
type RoverBan struct {
	CreatedAt  time.Time `json:"createdAt"`
	DiscordIDs []string  `json:"discordIds"`
	Reason     string    `json:"reason"`
	RobloxID   int64     `json:"robloxId"`
}

// RoverClient talks to the Rover registry API.
type RoverClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewRoverClient limits outgoing calls to perSecond requests with a small burst.
func NewRoverClient(httpClient *http.Client, baseURL string, perSecond float64) *RoverClient {
	if baseURL == "" {
		baseURL = RoverBaseURL
	}
	return &RoverClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 5),
	}
}

func (c *RoverClient) call(ctx context.Context, method, path, token string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rover rate limiter: %w", err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return doJSON(ctx, c.http, method, c.baseURL+path, header, nil, out)
}

func (c *RoverClient) DiscordToRoblox(ctx context.Context, guildID, discordUserID, token string) (RoverUser, error) {
	var user RoverUser
	path := fmt.Sprintf("/guilds/%s/discord-to-roblox/%s", url.PathEscape(guildID), url.PathEscape(discordUserID))
	err := c.call(ctx, http.MethodGet, path, token, &user)
	return user, err
}

func (c *RoverClient) RobloxToDiscord(ctx context.Context, guildID, robloxUserID, token string) (RoverDiscordUsers, error) {
	var users RoverDiscordUsers
	path := fmt.Sprintf("/guilds/%s/roblox-to-discord/%s", url.PathEscape(guildID), url.PathEscape(robloxUserID))
	err := c.call(ctx, http.MethodGet, path, token, &users)
	return users, err
}

func (c *RoverClient) Ban(ctx context.Context, guildID, robloxUserID, token string) (RoverBan, error) {
	var ban RoverBan
	path := fmt.Sprintf("/guilds/%s/bans/%s", url.PathEscape(guildID), url.PathEscape(robloxUserID))
	err := c.call(ctx, http.MethodGet, path, token, &ban)
	return ban, err
}

func (c *RoverClient) DeleteBan(ctx context.Context, guildID, robloxUserID, token string) error {
	path := fmt.Sprintf("/guilds/%s/bans/%s", url.PathEscape(guildID), url.PathEscape(robloxUserID))
	return c.call(ctx, http.MethodDelete, path, token, nil)
}
