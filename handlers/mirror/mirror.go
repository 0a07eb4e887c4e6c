// Package mirror copies messages of open case channels into the case store.
package mirror

import (
	"context"
	"errors"
	"time"

	"appeal-bot/model"
	"appeal-bot/utils"
	"appeal-bot/utils/database"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the mirror needs.
type Store interface {
	FindCaseByChannel(ctx context.Context, channelID string) (*model.Case, error)
	InsertMessage(ctx context.Context, m model.MessageMirror) error
	UpdateMessage(ctx context.Context, messageID, content string, editedAt time.Time) error
	DeleteMessage(ctx context.Context, messageID string) error
}

// Mirror listens to message events of appeal servers.
type Mirror struct {
	config  model.ConfigProvider
	store   Store
	timeout time.Duration
	log     *logrus.Entry
}

func New(config model.ConfigProvider, store Store) *Mirror {
	return &Mirror{config: config, store: store, timeout: 5 * time.Second, log: utils.Component("mirror")}
}

func (m *Mirror) watched(guildID string) bool {
	if guildID == "" {
		return false
	}
	_, ok := m.config.GetConfig().GameByAppealServer(guildID)
	return ok
}

// HandleCreate stores a message posted in a pending case channel.
func (m *Mirror) HandleCreate(_ *discordgo.Session, e *discordgo.MessageCreate) {
	if e.Message == nil || e.Author == nil || e.Author.Bot || !m.watched(e.GuildID) {
		return
	}
	if e.Flags&discordgo.MessageFlagsEphemeral != 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	c, err := m.store.FindCaseByChannel(ctx, e.ChannelID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			m.log.WithError(err).WithField("channel_id", e.ChannelID).Error("Failed to look up case channel")
		}
		return
	}
	if !c.IsPending() {
		return
	}

	createdAt := e.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	err = m.store.InsertMessage(ctx, model.MessageMirror{
		MessageID: e.ID,
		CaseID:    c.ID,
		AuthorID:  e.Author.ID,
		Author:    e.Author.Username,
		Content:   e.Content,
		CreatedAt: createdAt.UTC(),
	})
	if err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{"case_id": c.ID, "message_id": e.ID}).Error("Failed to mirror message")
	}
}

// HandleUpdate records an edit of a mirrored message.
func (m *Mirror) HandleUpdate(_ *discordgo.Session, e *discordgo.MessageUpdate) {
	if e.Message == nil || !m.watched(e.GuildID) {
		return
	}
	// Embed unfurls arrive as updates without content.
	if e.EditedTimestamp == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	err := m.store.UpdateMessage(ctx, e.ID, e.Content, e.EditedTimestamp.UTC())
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		m.log.WithError(err).WithField("message_id", e.ID).Error("Failed to update mirrored message")
	}
}

// HandleDelete removes a mirrored message.
func (m *Mirror) HandleDelete(_ *discordgo.Session, e *discordgo.MessageDelete) {
	if e.Message == nil || !m.watched(e.GuildID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	err := m.store.DeleteMessage(ctx, e.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		m.log.WithError(err).WithField("message_id", e.ID).Error("Failed to delete mirrored message")
	}
}
