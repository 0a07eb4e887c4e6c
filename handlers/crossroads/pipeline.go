package crossroads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"appeal-bot/model"
	"appeal-bot/utils"
	"appeal-bot/utils/apperr"
	"appeal-bot/utils/database"
	"appeal-bot/utils/embeds"
	"appeal-bot/utils/roblox"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the intake pipeline needs.
type Store interface {
	FindGuildConfig(ctx context.Context, guildID string, key model.GuildConfigKey) (string, error)
	FindPendingCase(ctx context.Context, game string, punishment model.PunishmentType, appealerID string, platform model.Platform) (*model.Case, error)
	CreateCase(ctx context.Context, c *model.Case) error
	CasesOf(ctx context.Context, discordID, robloxID string) ([]model.Case, error)
}

// Identity resolves Roblox accounts and ban state.
type Identity interface {
	RobloxUser(ctx context.Context, game model.GameConfig, discordUserID string) (roblox.RoverUser, error)
	ProfileWithAvatar(ctx context.Context, robloxID string) (roblox.Profile, roblox.Avatar, error)
	IsDiscordBanned(ctx context.Context, guildID, userID string) (bool, error)
	IsGameRestricted(ctx context.Context, universeID, robloxID string) (bool, error)
}

// RoleResolver maps abstract staff roles to guild role ids.
type RoleResolver interface {
	ResolveRole(ctx context.Context, guildID string, role model.AppRole) (string, error)
}

// Submission is a validated-on-submit appeal form and who sent it.
type Submission struct {
	Game       model.GameConfig
	GuildID    string
	User       *discordgo.User
	Platform   model.Platform
	Punishment model.PunishmentType
	Form       Form
}

// Pipeline runs the crossroads intake from entry to case creation.
type Pipeline struct {
	config   model.ConfigProvider
	store    Store
	identity Identity
	roles    RoleResolver
	discord  model.Discord
	timeout  time.Duration
	inflight *utils.KeyedLock
	now      func() time.Time
	log      *logrus.Entry
}

func NewPipeline(config model.ConfigProvider, store Store, identity Identity, roles RoleResolver, discord model.Discord, timeout time.Duration) *Pipeline {
	return &Pipeline{
		config:   config,
		store:    store,
		identity: identity,
		roles:    roles,
		discord:  discord,
		timeout:  timeout,
		inflight: utils.NewKeyedLock(5 * time.Minute),
		now:      time.Now,
		log:      utils.Component("crossroads"),
	}
}

// Enter resolves the game of an appeal guild and rejects guilds that cannot take appeals.
// The tag comes from the clicked component and must belong to the same guild.
func (p *Pipeline) Enter(ctx context.Context, guildID, tag string) (model.GameConfig, error) {
	if guildID == "" {
		return model.GameConfig{}, apperr.MissingGuildContext()
	}
	game, ok := p.config.GetConfig().GameByAppealServer(guildID)
	if !ok || (tag != "" && game.Tag() != tag) {
		return model.GameConfig{}, apperr.NotAppealGuild(guildID)
	}

	enabled, err := p.store.FindGuildConfig(ctx, guildID, model.AppealEnabled)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return game, nil
	case err != nil:
		return model.GameConfig{}, fmt.Errorf("failed to read appeal flag: %w", err)
	case !strings.EqualFold(strings.TrimSpace(enabled), "true"):
		return model.GameConfig{}, apperr.AppealDisabled()
	}
	return game, nil
}

// ConfirmDiscordBan fails with UserIsNotBanned unless the user is banned from the community server.
func (p *Pipeline) ConfirmDiscordBan(ctx context.Context, game model.GameConfig, userID string) error {
	banned, err := p.identity.IsDiscordBanned(ctx, game.CommunityServerID, userID)
	if err != nil {
		return apperr.ExternalService("Failed to check the community server ban.", err)
	}
	if !banned {
		return apperr.UserIsNotDiscordBanned()
	}
	return nil
}

// Submit turns a form into a case: checks, channel provisioning, persistence and channel posts.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (*model.Case, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	entry := p.log.WithFields(logrus.Fields{
		"guild_id": sub.GuildID,
		"user_id":  sub.User.ID,
		"game":     sub.Game.Tag(),
		"platform": sub.Platform,
	})

	// Form validation happens before any external call.
	if err := sub.Form.Validate(sub.Platform); err != nil {
		return nil, err
	}

	// One submission per tuple in flight; the unique index settles races across processes.
	key := submissionKey(sub)
	if !p.inflight.TryLock(key) {
		return nil, apperr.ExistingPendingCase()
	}
	defer p.inflight.Unlock(key)

	if err := p.ensureNoPendingCase(ctx, sub); err != nil {
		return nil, err
	}

	// Roblox identity.
	rover, err := p.identity.RobloxUser(ctx, sub.Game, sub.User.ID)
	if err != nil {
		if errors.Is(err, roblox.ErrNotLinked) {
			return nil, apperr.RobloxAccountNotVerified()
		}
		return nil, apperr.ExternalService("Failed to resolve your Roblox account.", err)
	}
	robloxID := roblox.FormatID(rover.RobloxID)

	if sub.Platform == model.PlatformGame && sub.Punishment == model.PunishmentBan {
		if err := p.confirmGameRestriction(ctx, sub.Game, robloxID); err != nil {
			return nil, err
		}
	}

	profile, avatar, err := p.identity.ProfileWithAvatar(ctx, robloxID)
	if err != nil {
		return nil, apperr.ExternalService("Failed to fetch your Roblox profile.", err)
	}

	// Case channel.
	c := &model.Case{
		ID:                uuid.NewString(),
		Game:              sub.Game.Tag(),
		AppealerDiscordID: sub.User.ID,
		AppealerRobloxID:  robloxID,
		Platform:          sub.Platform,
		AppealReason:      sub.Form.AppealReason,
		PunishmentType:    sub.Punishment,
		PunishmentReason:  sub.Form.PunishmentReason,
		VideoURL:          sub.Form.VideoURL,
		AppealedAt:        p.now().UTC(),
	}
	name := profile.Name
	if name == "" {
		name = rover.CachedUsername
	}
	if name == "" {
		name = sub.User.Username
	}
	channel, err := p.createChannel(ctx, sub, c, name)
	if err != nil {
		return nil, err
	}
	c.ChannelID = channel.ID
	entry = entry.WithFields(logrus.Fields{"case_id": c.ID, "channel_id": channel.ID})

	// Persist. A concurrent submission for the same tuple loses here.
	if err := p.store.CreateCase(ctx, c); err != nil {
		p.discardChannel(channel.ID, entry)
		if errors.Is(err, database.ErrDuplicatePending) {
			return nil, apperr.ExistingPendingCase()
		}
		return nil, fmt.Errorf("failed to save case: %w", err)
	}
	entry.Info("Appeal case created")

	// Channel posts. The case exists now, so failures are logged only.
	p.postSummaries(ctx, c, sub.Game, profile, avatar, entry)
	return c, nil
}

func submissionKey(sub Submission) string {
	return strings.Join([]string{sub.Game.Tag(), string(sub.Punishment), sub.User.ID, string(sub.Platform)}, "|")
}

func (p *Pipeline) ensureNoPendingCase(ctx context.Context, sub Submission) error {
	_, err := p.store.FindPendingCase(ctx, sub.Game.Tag(), sub.Punishment, sub.User.ID, sub.Platform)
	switch {
	case err == nil:
		return apperr.ExistingPendingCase()
	case errors.Is(err, database.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to look up pending cases: %w", err)
	}
}

func (p *Pipeline) confirmGameRestriction(ctx context.Context, game model.GameConfig, robloxID string) error {
	if game.UniverseID == "" {
		p.log.WithField("game", game.Tag()).Warn("No universe configured, skipping game restriction check")
		return nil
	}
	restricted, err := p.identity.IsGameRestricted(ctx, game.UniverseID, robloxID)
	if err != nil {
		return apperr.ExternalService("Failed to check the game restriction.", err)
	}
	if !restricted {
		return apperr.UserIsNotGameBanned(game.Name)
	}
	return nil
}

func (p *Pipeline) createChannel(ctx context.Context, sub Submission, c *model.Case, robloxName string) (*discordgo.Channel, error) {
	categoryID, err := p.store.FindGuildConfig(ctx, sub.GuildID, model.OpenAppealsCategoryID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.IncorrectServerSetup("open appeals category is not configured")
		}
		return nil, fmt.Errorf("failed to read open appeals category: %w", err)
	}

	judgeRoleID, err := p.roles.ResolveRole(ctx, sub.GuildID, model.RoleJudge)
	if err != nil {
		return nil, err
	}
	overseerRoleID, err := p.roles.ResolveRole(ctx, sub.GuildID, model.RoleOverseer)
	if err != nil {
		return nil, err
	}

	channel, err := p.discord.GuildChannelCreateComplex(sub.GuildID, discordgo.GuildChannelCreateData{
		Name:     ChannelName(sub.Platform, sub.Punishment, robloxName),
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: categoryID,
		Topic: fmt.Sprintf("Appeal channel for **%s** (%s)\nCase ID: %s",
			sub.User.Username, sub.User.ID, c.ID),
		PermissionOverwrites: model.CaseChannelOverwrites(sub.GuildID, sub.User.ID, judgeRoleID, overseerRoleID, true),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, apperr.ExternalService("Failed to create the appeal channel.", err)
	}
	return channel, nil
}

// discardChannel removes a channel whose case could not be saved.
func (p *Pipeline) discardChannel(channelID string, entry *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := p.discord.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		entry.WithError(err).Warn("Failed to delete orphaned appeal channel")
	}
}

func (p *Pipeline) postSummaries(ctx context.Context, c *model.Case, game model.GameConfig, profile roblox.Profile, avatar roblox.Avatar, entry *logrus.Entry) {
	var history []model.Case
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = p.store.CasesOf(gctx, c.AppealerDiscordID, c.AppealerRobloxID)
		return err
	})
	g.Go(func() error {
		if _, err := p.discord.ChannelMessageSendComplex(c.ChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embeds.CaseInfo(c, game)},
		}, discordgo.WithContext(gctx)); err != nil {
			return fmt.Errorf("failed to post case details: %w", err)
		}
		if _, err := p.discord.ChannelMessageSendComplex(c.ChannelID, embeds.RobloxProfile(profile, avatar), discordgo.WithContext(gctx)); err != nil {
			return fmt.Errorf("failed to post roblox profile: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		entry.WithError(err).Error("Failed to post case summaries")
		return
	}

	if _, err := p.discord.ChannelMessageSendComplex(c.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embeds.CaseHistory(history, c.AppealerRobloxID, profile.Name)},
	}, discordgo.WithContext(ctx)); err != nil {
		entry.WithError(err).Error("Failed to post case history")
	}
}

// ChannelName is "<platform>-<kind>-<robloxName>" in lower case.
func ChannelName(platform model.Platform, punishment model.PunishmentType, robloxName string) string {
	return strings.ToLower(fmt.Sprintf("%s-%s-%s", platform.Slug(), punishment, robloxName))
}

func (p *Pipeline) componentTimeout() time.Duration {
	const limit = 2500 * time.Millisecond
	if p.timeout > 0 && p.timeout < limit {
		return p.timeout
	}
	return limit
}
