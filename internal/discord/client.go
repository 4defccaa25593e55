// Package discord implements the external channel contract on the Discord
// gateway and REST API.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/actabi/FreelanceAcademy/internal/publish"
)

// ConnState is the explicit connection lifecycle of the gateway session.
// Event callbacks only update this state; nothing else reacts to them.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateReady
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Client wraps a discordgo session. It satisfies publish.ChannelClient.
type Client struct {
	session *discordgo.Session
	log     *slog.Logger

	mu    sync.Mutex
	state ConnState
	ready chan struct{}
}

// New builds an unopened client for the given bot token.
func New(token string, log *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, errors.New("discord: bot token is required")
	}
	if log == nil {
		log = slog.Default()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discordgo.New: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages

	c := &Client{
		session: session,
		log:     log,
		state:   StateConnecting,
		ready:   make(chan struct{}),
	}

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == StateConnecting {
			c.state = StateReady
			close(c.ready)
		}
		c.log.Info("discord gateway ready", "user", r.User.Username)
	})
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		c.log.Warn("discord gateway disconnected")
	})

	return c, nil
}

// Open connects to the gateway.
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

// Close tears the session down.
func (c *Client) Close() error {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	return c.session.Close()
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WaitUntilReady blocks until the gateway ready event arrives or ctx
// expires.
func (c *Client) WaitUntilReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("discord not ready: %w", ctx.Err())
	}
}

// ─── publish.ChannelClient ───────────────────────────────────────────────────

// SendChannelMessage posts an announcement embed with apply/details buttons
// and returns the new message id.
func (c *Client) SendChannelMessage(_ context.Context, channelID string, a publish.Announcement) (string, error) {
	msg, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{toEmbed(a)},
		Components: missionButtons(a.MissionID),
	})
	if err != nil {
		return "", fmt.Errorf("send channel message: %w", err)
	}
	return msg.ID, nil
}

// EditChannelMessage replaces the embed of an existing announcement.
func (c *Client) EditChannelMessage(_ context.Context, channelID, messageID string, a publish.Announcement) error {
	embeds := []*discordgo.MessageEmbed{toEmbed(a)}
	_, err := c.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: channelID,
		ID:      messageID,
		Embeds:  &embeds,
	})
	if err != nil {
		return fmt.Errorf("edit channel message: %w", err)
	}
	return nil
}

// FetchMessage loads a channel message, returning (nil, nil) when it no
// longer exists.
func (c *Client) FetchMessage(_ context.Context, channelID, messageID string) (*publish.Message, error) {
	msg, err := c.session.ChannelMessage(channelID, messageID)
	if err != nil {
		var rest *discordgo.RESTError
		if errors.As(err, &rest) && rest.Message != nil &&
			rest.Message.Code == discordgo.ErrCodeUnknownMessage {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	return &publish.Message{ID: msg.ID, Content: msg.Content}, nil
}

// SendDirectMessage opens (or reuses) the DM channel with a user and sends
// text.
func (c *Client) SendDirectMessage(_ context.Context, recipientID, text string) error {
	ch, err := c.session.UserChannelCreate(recipientID)
	if err != nil {
		return fmt.Errorf("open DM channel: %w", err)
	}
	if _, err := c.session.ChannelMessageSend(ch.ID, text); err != nil {
		return fmt.Errorf("send DM: %w", err)
	}
	return nil
}

// toEmbed maps the channel-agnostic announcement onto a Discord embed.
func toEmbed(a publish.Announcement) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(a.Fields))
	for _, f := range a.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return &discordgo.MessageEmbed{
		Title:     a.Title,
		Color:     0x0099ff,
		Fields:    fields,
		Timestamp: a.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// missionButtons builds the apply / details action row for a mission
// announcement.
func missionButtons(missionID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: "apply_" + missionID,
					Label:    "Apply",
					Style:    discordgo.PrimaryButton,
				},
				discordgo.Button{
					CustomID: "details_" + missionID,
					Label:    "More details",
					Style:    discordgo.SecondaryButton,
				},
			},
		},
	}
}
