// Package guilds keeps the bot out of servers no game is configured for.
package guilds

import (
	"context"
	"time"

	"appeal-bot/model"
	"appeal-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Leaver is the part of the Discord session used to leave a guild.
type Leaver interface {
	GuildLeave(guildID string, options ...discordgo.RequestOption) error
}

// Listener leaves every guild that is neither an appeal nor a community server.
type Listener struct {
	config   model.ConfigProvider
	attempts int
	timeout  time.Duration
	backoff  time.Duration
	sleep    func(time.Duration)
	log      *logrus.Entry
}

func NewListener(config model.ConfigProvider) *Listener {
	return &Listener{
		config:   config,
		attempts: 3,
		timeout:  10 * time.Second,
		backoff:  time.Second,
		sleep:    time.Sleep,
		log:      utils.Component("guilds"),
	}
}

// HandleGuildCreate runs for every guild on connect and on join.
func (l *Listener) HandleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || g.Unavailable {
		return
	}
	l.Validate(s, g.ID, g.Name)
}

// Validate leaves the guild unless it is registered. It reports whether the bot stays.
func (l *Listener) Validate(s Leaver, guildID, name string) bool {
	if l.config.GetConfig().IsRegisteredGuild(guildID) {
		return true
	}

	entry := l.log.WithFields(logrus.Fields{"guild_id": guildID, "guild_name": name})
	entry.Warn("Leaving unregistered guild")

	delay := l.backoff
	for attempt := 1; attempt <= l.attempts; attempt++ {
		err := l.leave(s, guildID)
		if err == nil {
			entry.Info("Left unregistered guild")
			return false
		}
		entry.WithError(err).WithField("attempt", attempt).Warn("Failed to leave guild")
		if attempt < l.attempts {
			l.sleep(delay)
			delay *= 2
		}
	}
	entry.Error("Giving up on leaving unregistered guild")
	return false
}

func (l *Listener) leave(s Leaver, guildID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	return s.GuildLeave(guildID, discordgo.WithContext(ctx))
}
