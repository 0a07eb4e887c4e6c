// Package discordtest provides an in-memory Discord session for handler tests.
package discordtest

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// RESTError builds the error discordgo returns for a failed REST call.
func RESTError(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status, Status: http.StatusText(status)}}
}

// Session records every call and serves channels from memory.
type Session struct {
	mu sync.Mutex

	// Banned holds "guildID/userID" pairs.
	Banned       map[string]bool
	BanErr       error
	BanDeleteErr error
	DeletedBans  []string

	CreateErr  error
	EditErr    error
	DeleteErrs map[string]error
	SendErr    error
	DMErr      error

	Channels   map[string]*discordgo.Channel
	Created    []discordgo.GuildChannelCreateData
	ChannelOps []string
	Deleted    []string
	Messages   map[string][]*discordgo.MessageSend
	DMs        map[string][]*discordgo.MessageSend

	Responses []*discordgo.InteractionResponse
	Followups []string
	Embeds    []*discordgo.MessageEmbed

	nextID int
}

func New() *Session {
	return &Session{
		Banned:     make(map[string]bool),
		DeleteErrs: make(map[string]error),
		Channels:   make(map[string]*discordgo.Channel),
		Messages:   make(map[string][]*discordgo.MessageSend),
		DMs:        make(map[string][]*discordgo.MessageSend),
	}
}

func (s *Session) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

// AddChannel seeds an existing channel.
func (s *Session) AddChannel(c *discordgo.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Channels[c.ID] = c
}

func (s *Session) GuildBan(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.GuildBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.BanErr != nil {
		return nil, s.BanErr
	}
	if !s.Banned[guildID+"/"+userID] {
		return nil, RESTError(http.StatusNotFound)
	}
	return &discordgo.GuildBan{User: &discordgo.User{ID: userID}}, nil
}

func (s *Session) GuildBanDelete(guildID, userID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeletedBans = append(s.DeletedBans, guildID+"/"+userID)
	if s.BanDeleteErr != nil {
		return s.BanDeleteErr
	}
	delete(s.Banned, guildID+"/"+userID)
	return nil
}

func (s *Session) GuildChannels(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*discordgo.Channel
	for _, c := range s.Channels {
		if c.GuildID == guildID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Session) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	c := &discordgo.Channel{
		ID:                   s.id("chan"),
		GuildID:              guildID,
		Name:                 data.Name,
		Type:                 data.Type,
		Topic:                data.Topic,
		ParentID:             data.ParentID,
		PermissionOverwrites: data.PermissionOverwrites,
	}
	s.Channels[c.ID] = c
	s.Created = append(s.Created, data)
	s.ChannelOps = append(s.ChannelOps, "create:"+c.ID)
	return c, nil
}

func (s *Session) ChannelEdit(channelID string, data *discordgo.ChannelEdit, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EditErr != nil {
		return nil, s.EditErr
	}
	c, ok := s.Channels[channelID]
	if !ok {
		return nil, RESTError(http.StatusNotFound)
	}
	if data.ParentID != "" {
		c.ParentID = data.ParentID
	}
	if data.PermissionOverwrites != nil {
		c.PermissionOverwrites = data.PermissionOverwrites
	}
	s.ChannelOps = append(s.ChannelOps, "edit:"+channelID)
	return c, nil
}

func (s *Session) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ChannelOps = append(s.ChannelOps, "delete:"+channelID)
	if err := s.DeleteErrs[channelID]; err != nil {
		return nil, err
	}
	c := s.Channels[channelID]
	delete(s.Channels, channelID)
	s.Deleted = append(s.Deleted, channelID)
	return c, nil
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if recipient, ok := strings.CutPrefix(channelID, "dm-"); ok {
		if s.DMErr != nil {
			return nil, s.DMErr
		}
		s.DMs[recipient] = append(s.DMs[recipient], data)
	} else {
		if s.SendErr != nil {
			return nil, s.SendErr
		}
		s.Messages[channelID] = append(s.Messages[channelID], data)
	}
	return &discordgo.Message{ID: s.id("msg"), ChannelID: channelID}, nil
}

func (s *Session) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID, Type: discordgo.ChannelTypeDM}, nil
}

func (s *Session) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, resp)
	return nil
}

func (s *Session) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if edit.Content != nil {
		s.Followups = append(s.Followups, *edit.Content)
	}
	if edit.Embeds != nil {
		s.Embeds = append(s.Embeds, *edit.Embeds...)
	}
	return &discordgo.Message{}, nil
}

// LastFollowup returns the latest deferred-response edit.
func (s *Session) LastFollowup() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Followups) == 0 {
		return ""
	}
	return s.Followups[len(s.Followups)-1]
}

// LastResponse returns the latest immediate interaction response.
func (s *Session) LastResponse() *discordgo.InteractionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Responses) == 0 {
		return nil
	}
	return s.Responses[len(s.Responses)-1]
}

// Calls counts recorded Discord REST side effects.
func (s *Session) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.ChannelOps) + len(s.DeletedBans)
	for _, m := range s.Messages {
		n += len(m)
	}
	return n
}
