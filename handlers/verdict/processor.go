package verdict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils"
	"appeal-bot/utils/apperr"
	"appeal-bot/utils/database"
	"appeal-bot/utils/embeds"
	"appeal-bot/utils/roblox"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the verdict processor needs.
type Store interface {
	FindCaseByChannel(ctx context.Context, channelID string) (*model.Case, error)
	CloseCase(ctx context.Context, id string, d model.VerdictDecision) (*model.Case, error)
	FindGuildConfig(ctx context.Context, guildID string, key model.GuildConfigKey) (string, error)
}

// Identity lifts punishments and describes the appealer's Roblox account.
type Identity interface {
	ProfileWithAvatar(ctx context.Context, robloxID string) (roblox.Profile, roblox.Avatar, error)
	RevokeRegistryBan(ctx context.Context, game model.GameConfig, robloxID string) error
	RevokeDiscordBan(ctx context.Context, guildID, userID string) error
	RevokeGameRestriction(ctx context.Context, universeID, robloxID string) error
}

// RoleResolver maps abstract staff roles to guild role ids.
type RoleResolver interface {
	ResolveRole(ctx context.Context, guildID string, role model.AppRole) (string, error)
}

// CodeEncoder issues access codes.
type CodeEncoder interface {
	Encode(caseID, requesterID string) (string, error)
}

// Processor applies verdicts to pending cases.
type Processor struct {
	config   model.ConfigProvider
	store    Store
	identity Identity
	roles    RoleResolver
	discord  model.Discord
	codes    CodeEncoder
	now      func() time.Time
	log      *logrus.Entry
}

func NewProcessor(config model.ConfigProvider, store Store, identity Identity, roles RoleResolver, discord model.Discord, codes CodeEncoder) *Processor {
	return &Processor{
		config:   config,
		store:    store,
		identity: identity,
		roles:    roles,
		discord:  discord,
		codes:    codes,
		now:      time.Now,
		log:      utils.Component("verdict"),
	}
}

// PendingCase returns the case of an appeal channel if it still awaits a verdict.
func (p *Processor) PendingCase(ctx context.Context, channelID string) (*model.Case, error) {
	c, err := p.store.FindCaseByChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotAppealChannel()
		}
		return nil, fmt.Errorf("failed to look up case of channel %s: %w", channelID, err)
	}
	if !c.IsPending() {
		return nil, apperr.AppealAlreadyCompleted()
	}
	return c, nil
}

// Issue lifts the punishment when required, persists the verdict and then informs the
// channel, the log channel and the appealer. Nothing is persisted when lifting fails.
func (p *Processor) Issue(ctx context.Context, guildID, channelID string, d model.VerdictDecision) (*model.Case, error) {
	c, err := p.PendingCase(ctx, channelID)
	if err != nil {
		return nil, err
	}
	game, err := p.gameOf(c, guildID)
	if err != nil {
		return nil, err
	}

	entry := p.log.WithFields(logrus.Fields{
		"guild_id": guildID,
		"case_id":  c.ID,
		"user_id":  d.IssuedBy,
		"verdict":  d.Verdict,
	})

	if err := p.liftPunishment(ctx, c, game, d.Verdict, entry); err != nil {
		return nil, err
	}

	if d.IssuedAt.IsZero() {
		d.IssuedAt = p.now()
	}
	closed, err := p.store.CloseCase(ctx, c.ID, d)
	if err != nil {
		if errors.Is(err, database.ErrNotPending) {
			return nil, apperr.AppealAlreadyCompleted()
		}
		return nil, fmt.Errorf("failed to persist verdict: %w", err)
	}
	entry.WithField("reason", d.Reason).Info("Verdict applied")

	p.announce(ctx, closed, game, entry)
	p.moveToClosed(ctx, guildID, closed, entry)
	p.notifyAppealer(ctx, closed, entry)
	return closed, nil
}

func (p *Processor) gameOf(c *model.Case, guildID string) (model.GameConfig, error) {
	cfg := p.config.GetConfig()
	if game, ok := cfg.GameByTag(c.Game); ok {
		return game, nil
	}
	if game, ok := cfg.GameByAppealServer(guildID); ok {
		return game, nil
	}
	return model.GameConfig{}, apperr.ApplicationMisconfigured(fmt.Sprintf("case %s belongs to unknown game %s", c.ID, c.Game))
}

// liftPunishment runs the external side effect of an accepted ban appeal. Warnings are
// lifted by hand and rejections change nothing outside the case.
func (p *Processor) liftPunishment(ctx context.Context, c *model.Case, game model.GameConfig, verdict model.Verdict, entry *logrus.Entry) error {
	if verdict != model.VerdictAccepted || c.PunishmentType != model.PunishmentBan {
		return nil
	}

	switch c.Platform {
	case model.PlatformDiscord:
		if err := p.identity.RevokeRegistryBan(ctx, game, c.AppealerRobloxID); err != nil {
			entry.WithError(err).Error("Failed to remove rover ban")
			return apperr.UnbanFailed(fmt.Errorf("rover unban of %s: %w", c.AppealerRobloxID, err))
		}
		if err := p.identity.RevokeDiscordBan(ctx, game.CommunityServerID, c.AppealerDiscordID); err != nil {
			entry.WithError(err).Error("Failed to remove community server ban")
			return apperr.UnbanFailed(fmt.Errorf("discord unban of %s: %w", c.AppealerDiscordID, err))
		}
	case model.PlatformGame:
		if game.UniverseID == "" {
			return apperr.ApplicationMisconfigured(fmt.Sprintf("game %s has no universe id", game.Tag()))
		}
		if err := p.identity.RevokeGameRestriction(ctx, game.UniverseID, c.AppealerRobloxID); err != nil {
			entry.WithError(err).Error("Failed to lift game restriction")
			return apperr.UnbanFailed(fmt.Errorf("game restriction of %s: %w", c.AppealerRobloxID, err))
		}
	}
	return nil
}

// announce posts the verdict summary to the case channel and the game's log channel.
func (p *Processor) announce(ctx context.Context, c *model.Case, game model.GameConfig, entry *logrus.Entry) {
	profile, avatar, err := p.identity.ProfileWithAvatar(ctx, c.AppealerRobloxID)
	if err != nil {
		entry.WithError(err).Warn("Failed to fetch roblox profile for verdict summary")
	}
	embed := embeds.CaseLog(c, game, profile, avatar)

	targets := []string{c.ChannelID}
	if game.LogChannelID != "" {
		targets = append(targets, game.LogChannelID)
	}
	for _, channelID := range targets {
		_, err := p.discord.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
		}, discordgo.WithContext(ctx))
		if err != nil {
			entry.WithError(err).WithField("channel_id", channelID).Error("Failed to post verdict summary")
		}
	}
}

// moveToClosed parks the channel under the closed category, read-only for the appealer.
func (p *Processor) moveToClosed(ctx context.Context, guildID string, c *model.Case, entry *logrus.Entry) {
	if err := p.closeChannel(ctx, guildID, c); err != nil {
		router.Report(entry.WithField("channel_id", c.ChannelID), err)
	}
}

func (p *Processor) closeChannel(ctx context.Context, guildID string, c *model.Case) error {
	categoryID, err := p.store.FindGuildConfig(ctx, guildID, model.ClosedAppealsCategoryID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperr.IncorrectServerSetup("closed appeals category is not configured")
		}
		return fmt.Errorf("failed to read closed appeals category: %w", err)
	}
	judgeRoleID, err := p.roles.ResolveRole(ctx, guildID, model.RoleJudge)
	if err != nil {
		return err
	}
	overseerRoleID, err := p.roles.ResolveRole(ctx, guildID, model.RoleOverseer)
	if err != nil {
		return err
	}

	_, err = p.discord.ChannelEdit(c.ChannelID, &discordgo.ChannelEdit{
		ParentID:             categoryID,
		PermissionOverwrites: model.CaseChannelOverwrites(guildID, c.AppealerDiscordID, judgeRoleID, overseerRoleID, false),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return apperr.ExternalService("Failed to move the appeal channel.", err)
	}
	return nil
}

// notifyAppealer DMs the closing summary with a fresh access link.
func (p *Processor) notifyAppealer(ctx context.Context, c *model.Case, entry *logrus.Entry) {
	code, err := p.codes.Encode(c.ID, c.AppealerDiscordID)
	if err != nil {
		entry.WithError(err).Error("Failed to generate access code")
		return
	}
	link := embeds.AccessLink(p.config.GetConfig().AccessDomain, code)
	if err := utils.SendPrivateEmbedMessage(ctx, p.discord, c.AppealerDiscordID, embeds.CaseClosed(c, link)); err != nil {
		// Users with closed DMs are common.
		entry.WithError(err).Warn("Failed to notify appealer")
	}
}
