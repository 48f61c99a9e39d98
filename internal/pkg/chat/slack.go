// Package chat posts plain-text messages to a team channel.
package chat

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type Poster interface {
	Post(ctx context.Context, message string) error
}

type SlackPoster struct {
	client    *slack.Client
	channelID string
}

func NewSlackPoster(token, channelID string) *SlackPoster {
	return &SlackPoster{
		client:    slack.New(token),
		channelID: channelID,
	}
}

func (s *SlackPoster) Post(ctx context.Context, message string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}

// Discard drops every message. Used when no chat workspace is configured.
type Discard struct{}

func (Discard) Post(context.Context, string) error { return nil }

// New returns a SlackPoster when both token and channel are set, Discard otherwise.
func New(token, channelID string) Poster {
	if token == "" || channelID == "" {
		return Discard{}
	}
	return NewSlackPoster(token, channelID)
}
