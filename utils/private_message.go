package utils

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DirectMessenger is the part of the Discord session used to reach users privately.
type DirectMessenger interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SendPrivateEmbedMessage sends a direct message with an embed to a user.
func SendPrivateEmbedMessage(ctx context.Context, s DirectMessenger, userID string, embed *discordgo.MessageEmbed) error {
	channel, err := s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to create private channel with user %s: %w", userID, err)
	}
	_, err = s.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send private message to user %s: %w", userID, err)
	}
	return nil
}
