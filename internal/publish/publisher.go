// Package publish keeps one external channel message in sync with each
// published mission and fans direct notifications out to matched subscribers.
//
// The publisher is stateless with respect to persistence: it returns the
// message id it obtained and leaves storing it to the caller.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/actabi/FreelanceAcademy/internal/match"
	"github.com/actabi/FreelanceAcademy/internal/model"
)

// ErrChannelNotConfigured is returned when no target channel id is set.
var ErrChannelNotConfigured = errors.New("publish: channel id not configured")

// ErrNoMessageID is returned by UpdatePublished for a mission that was never
// announced.
var ErrNoMessageID = errors.New("publish: mission has no channel message id")

// ErrMessageGone is returned when the stored message id no longer resolves to
// a message on the channel.
var ErrMessageGone = errors.New("publish: channel message no longer exists")

// Message is the subset of a fetched channel message the publisher cares
// about.
type Message struct {
	ID      string
	Content string
}

// ChannelClient is the abstract external-channel contract. The discord
// package provides the production implementation.
type ChannelClient interface {
	SendChannelMessage(ctx context.Context, channelID string, a Announcement) (string, error)
	EditChannelMessage(ctx context.Context, channelID, messageID string, a Announcement) error
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	SendDirectMessage(ctx context.Context, recipientID, text string) error
}

// RecipientSource loads the candidate recipients for notification fan-out.
type RecipientSource interface {
	ListActiveFreelances(ctx context.Context) ([]model.Freelance, error)
	ListAlerts(ctx context.Context) ([]model.Alert, error)
}

// Publisher projects missions onto the external channel.
type Publisher struct {
	client     ChannelClient
	recipients RecipientSource
	channelID  string
	log        *slog.Logger
}

// New returns a Publisher targeting channelID. An empty channelID is allowed
// at construction; Publish will fail with ErrChannelNotConfigured.
func New(client ChannelClient, recipients RecipientSource, channelID string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{client: client, recipients: recipients, channelID: channelID, log: log}
}

// Publish sends a new announcement for m and returns the assigned message id.
// Exactly one message is created per call; the caller persists the id.
func (p *Publisher) Publish(ctx context.Context, m *model.Mission) (string, error) {
	if p.channelID == "" {
		return "", ErrChannelNotConfigured
	}
	messageID, err := p.client.SendChannelMessage(ctx, p.channelID, Render(m))
	if err != nil {
		return "", fmt.Errorf("send announcement for mission %s: %w", m.ID, err)
	}
	return messageID, nil
}

// UpdatePublished edits the existing announcement of m in place with the
// current projection of its fields.
func (p *Publisher) UpdatePublished(ctx context.Context, m *model.Mission) error {
	if m.DiscordMessageID == "" {
		return ErrNoMessageID
	}
	if p.channelID == "" {
		return ErrChannelNotConfigured
	}

	msg, err := p.client.FetchMessage(ctx, p.channelID, m.DiscordMessageID)
	if err != nil {
		return fmt.Errorf("fetch message %s: %w", m.DiscordMessageID, err)
	}
	if msg == nil {
		return ErrMessageGone
	}

	if err := p.client.EditChannelMessage(ctx, p.channelID, m.DiscordMessageID, Render(m)); err != nil {
		return fmt.Errorf("edit message %s: %w", m.DiscordMessageID, err)
	}
	return nil
}

// NotifyMatchedSubscribers sends a direct message to every freelance matched
// by profile and every alert owner matched by saved search. Delivery is
// best-effort per recipient: one failure never aborts the rest. The returned
// error covers only the recipient-loading step.
func (p *Publisher) NotifyMatchedSubscribers(ctx context.Context, m *model.Mission) error {
	freelances, err := p.recipients.ListActiveFreelances(ctx)
	if err != nil {
		return fmt.Errorf("load freelances: %w", err)
	}
	alerts, err := p.recipients.ListAlerts(ctx)
	if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}

	text := RenderDirect(m)
	notified := make(map[string]struct{})

	for _, f := range match.MatchingFreelances(m, freelances) {
		if f.DiscordID == "" {
			continue
		}
		p.sendOnce(ctx, m.ID, f.DiscordID, text, notified)
	}

	for i := range alerts {
		if !match.Matches(m, &alerts[i]) {
			continue
		}
		p.sendOnce(ctx, m.ID, alerts[i].UserID, text, notified)
	}
	return nil
}

// sendOnce delivers text to recipientID unless it was already notified for
// this mission, logging (not propagating) delivery failures.
func (p *Publisher) sendOnce(ctx context.Context, missionID, recipientID, text string, notified map[string]struct{}) {
	if _, done := notified[recipientID]; done {
		return
	}
	notified[recipientID] = struct{}{}
	if err := p.client.SendDirectMessage(ctx, recipientID, text); err != nil {
		p.log.Warn("direct notification failed",
			"missionId", missionID, "recipientId", recipientID, "err", err)
	}
}
