package bot

import (
	"sync/atomic"

	"appeal-bot/commands"
	"appeal-bot/model"
	"appeal-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

type Bot struct {
	Session   *discordgo.Session
	config    atomic.Value // *model.Config
	scheduler *Scheduler
	log       *logrus.Entry
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

func New(cfg *model.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	dg.StateEnabled = true
	dg.Client = utils.GlobalHTTPClient

	b := &Bot{
		Session: dg,
		log:     utils.Component("bot"),
	}
	b.config.Store(cfg)
	return b, nil
}

// UseScheduler attaches the background tasks started by Run and stopped by Close.
func (b *Bot) UseScheduler(s *Scheduler) {
	b.scheduler = s
}

func (b *Bot) Close() {
	b.log.Info("Gracefully shutting down")
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if err := b.Session.Close(); err != nil {
		b.log.WithError(err).Warn("Failed to close gateway session")
	}
}

// RefreshCommands overwrites the slash commands of one appeal server.
func (b *Bot) RefreshCommands(guildID string) {
	entry := b.log.WithField("guild_id", guildID)
	cmds := commands.GenerateCommands()
	registered, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, guildID, cmds)
	if err != nil {
		entry.WithError(err).Error("Cannot update commands for guild")
		return
	}
	entry.WithField("count", len(registered)).Info("Registered commands")
}
