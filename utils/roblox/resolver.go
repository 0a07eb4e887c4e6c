package roblox

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"appeal-bot/model"
	"appeal-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/go-redis/cache/v9"
	"golang.org/x/sync/errgroup"
)

// ErrNotLinked means the Discord user has no Rover-verified Roblox account.
var ErrNotLinked = errors.New("discord account is not linked to a roblox account")

// BanLookup is the part of the Discord session used for community bans.
type BanLookup interface {
	GuildBan(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.GuildBan, error)
	GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error
}

// Resolver maps Discord identities to Roblox identities and queries or lifts bans.
type Resolver struct {
	rover  *RoverClient
	cloud  *OpenCloudClient
	cache  *cache.Cache
	bans   BanLookup
	config model.ConfigProvider
}

func NewResolver(rover *RoverClient, cloud *OpenCloudClient, profileCache *cache.Cache, bans BanLookup, config model.ConfigProvider) *Resolver {
	return &Resolver{rover: rover, cloud: cloud, cache: profileCache, bans: bans, config: config}
}

func (r *Resolver) credential(game model.GameConfig, role model.ServerRole) (string, error) {
	token, ok := r.config.GetConfig().Credential(game.Tag(), role)
	if !ok {
		return "", fmt.Errorf("no %s rover credential for game %s", role, game.Tag())
	}
	return token, nil
}

// RobloxUser resolves the Roblox account linked to a member of the game's appeal server.
func (r *Resolver) RobloxUser(ctx context.Context, game model.GameConfig, discordUserID string) (RoverUser, error) {
	token, err := r.credential(game, model.AppealServer)
	if err != nil {
		return RoverUser{}, err
	}
	user, err := r.rover.DiscordToRoblox(ctx, game.AppealServerID, discordUserID, token)
	if err != nil {
		if IsNotFound(err) {
			return RoverUser{}, ErrNotLinked
		}
		return RoverUser{}, err
	}
	if user.RobloxID == 0 {
		return RoverUser{}, ErrNotLinked
	}
	return user, nil
}

// Profile returns the cached Open Cloud profile of a Roblox user.
func (r *Resolver) Profile(ctx context.Context, robloxID string) (Profile, error) {
	var p Profile
	err := r.cache.Once(&cache.Item{
		Ctx:   ctx,
		Key:   profileKey(robloxID),
		Value: &p,
		TTL:   profileTTL,
		Do: func(*cache.Item) (interface{}, error) {
			return r.cloud.Profile(ctx, robloxID)
		},
	})
	return p, err
}

func (r *Resolver) Avatar(ctx context.Context, robloxID string) (Avatar, error) {
	var a Avatar
	err := r.cache.Once(&cache.Item{
		Ctx:   ctx,
		Key:   avatarKey(robloxID),
		Value: &a,
		TTL:   profileTTL,
		Do: func(*cache.Item) (interface{}, error) {
			return r.cloud.Avatar(ctx, robloxID)
		},
	})
	return a, err
}

// ProfileWithAvatar fetches both in parallel. A missing avatar is not an error.
func (r *Resolver) ProfileWithAvatar(ctx context.Context, robloxID string) (Profile, Avatar, error) {
	var (
		profile Profile
		avatar  Avatar
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = r.Profile(gctx, robloxID)
		return err
	})
	g.Go(func() error {
		a, err := r.Avatar(gctx, robloxID)
		if err != nil {
			utils.Logger.WithError(err).WithField("roblox_id", robloxID).Warn("Failed to fetch roblox avatar")
			return nil
		}
		avatar = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return Profile{}, Avatar{}, err
	}
	return profile, avatar, nil
}

// IsDiscordBanned reports whether the user is banned from the guild. A 404 means not banned;
// every other failure is returned unchanged.
func (r *Resolver) IsDiscordBanned(ctx context.Context, guildID, userID string) (bool, error) {
	_, err := r.bans.GuildBan(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if utils.RESTStatus(err) == 404 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsGameRestricted reports whether the user has an active game-join restriction in the universe.
func (r *Resolver) IsGameRestricted(ctx context.Context, universeID, robloxID string) (bool, error) {
	restriction, err := r.cloud.Restriction(ctx, universeID, robloxID)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return restriction.GameJoinRestriction.Active, nil
}

// RevokeRegistryBan deletes the Rover ban of the community server. Already-unbanned counts as success.
func (r *Resolver) RevokeRegistryBan(ctx context.Context, game model.GameConfig, robloxID string) error {
	token, err := r.credential(game, model.CommunityServer)
	if err != nil {
		return err
	}
	if err := r.rover.DeleteBan(ctx, game.CommunityServerID, robloxID, token); err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

// RevokeDiscordBan lifts the community server ban. Already-unbanned counts as success.
func (r *Resolver) RevokeDiscordBan(ctx context.Context, guildID, userID string) error {
	if err := r.bans.GuildBanDelete(guildID, userID, discordgo.WithContext(ctx)); err != nil && utils.RESTStatus(err) != 404 {
		return err
	}
	return nil
}

// RevokeGameRestriction lifts the universe game-join restriction. Already-unrestricted counts as success.
func (r *Resolver) RevokeGameRestriction(ctx context.Context, universeID, robloxID string) error {
	if err := r.cloud.LiftRestriction(ctx, universeID, robloxID); err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

// FormatID renders a Rover numeric id the way it is stored on cases.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
