package slack

import (
	"context"
	"errors"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/kanbanhub/internal/messenger"
)

// SlackAPI abstracts the subset of the Slack client used by SlackMessenger.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
	AuthTest() (*slacklib.AuthTestResponse, error)
}

// SlackMessenger implements messenger.Messenger for Slack.
type SlackMessenger struct {
	api SlackAPI
}

// Compile-time interface check.
var _ messenger.Messenger = (*SlackMessenger)(nil) //nolint:gochecknoglobals // compile-time check

// NewSlackMessenger creates a SlackMessenger with the given API client.
func NewSlackMessenger(api SlackAPI) *SlackMessenger {
	return &SlackMessenger{api: api}
}

// SendMessage posts text to a Slack channel and returns the message timestamp as MessageID.
// Buttons are rendered as a Block Kit action block.
func (m *SlackMessenger) SendMessage(_ context.Context, channelID, text string, opts messenger.SendOptions) (messenger.MessageID, error) {
	if channelID == "" {
		return "", fmt.Errorf("slack.SlackMessenger.SendMessage: %w", messenger.ErrInvalidDestination)
	}

	msgOpts := []slacklib.MsgOption{
		slacklib.MsgOptionText(text, false),
	}
	if len(opts.Buttons) > 0 {
		msgOpts = append(msgOpts, slacklib.MsgOptionBlocks(BuildMenuBlocks(text, opts.Buttons)...))
	}

	_, ts, err := m.api.PostMessage(channelID, msgOpts...)
	if err != nil {
		return "", fmt.Errorf("slack.SlackMessenger.SendMessage: %w", classify(err))
	}

	return messenger.MessageID(ts), nil
}

// Self resolves the bot account via auth.test.
func (m *SlackMessenger) Self(_ context.Context) (messenger.Identity, error) {
	resp, err := m.api.AuthTest()
	if err != nil {
		return messenger.Identity{}, fmt.Errorf("slack.SlackMessenger.Self: %w", classify(err))
	}

	return messenger.Identity{ID: resp.UserID, Username: resp.User}, nil
}

// Platform returns the messenger platform identifier.
func (m *SlackMessenger) Platform() string {
	return "slack"
}

// classify wraps err with the messenger sentinel matching the Slack error code.
func classify(err error) error {
	var rateErr *slacklib.RateLimitedError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: %w", messenger.ErrRateLimited, err)
	}

	var apiErr slacklib.SlackErrorResponse
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", messenger.ErrNetwork, err)
	}

	switch apiErr.Err {
	case "channel_not_found", "user_not_found", "is_archived", "invalid_channel":
		return fmt.Errorf("%w: %w", messenger.ErrInvalidDestination, err)
	case "not_in_channel", "restricted_action", "ekm_access_denied":
		return fmt.Errorf("%w: %w", messenger.ErrForbidden, err)
	case "invalid_auth", "not_authed", "token_revoked", "account_inactive":
		return fmt.Errorf("%w: %w", messenger.ErrUnauthorized, err)
	case "ratelimited":
		return fmt.Errorf("%w: %w", messenger.ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %w", messenger.ErrBadRequest, err)
	}
}
