package infrastructure

import (
	"context"
	"fmt"

	"rifa/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// DiscordWinnerNotifier posts draw results to a configured Discord channel.
type DiscordWinnerNotifier struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordWinnerNotifier creates a notifier for the given bot token and
// channel. The session is used purely as a REST client; no gateway
// connection is opened.
func NewDiscordWinnerNotifier(token, channelID string) (*DiscordWinnerNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &DiscordWinnerNotifier{
		session:   session,
		channelID: channelID,
	}, nil
}

// NotifyWinner posts the winner announcement.
func (n *DiscordWinnerNotifier) NotifyWinner(ctx context.Context, winner *entities.Winner) error {
	embed := &discordgo.MessageEmbed{
		Title:       "🎉 TEMOS UM GANHADOR!",
		Description: winner.Announcement,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Número", Value: "#" + entities.FormatNumber(winner.Number), Inline: true},
			{Name: "Ganhador", Value: winner.Participant.Name, Inline: true},
		},
	}

	_, err := n.session.ChannelMessageSendEmbed(n.channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to post winner announcement: %w", err)
	}
	return nil
}
