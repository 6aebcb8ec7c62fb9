package messenger

import (
	"context"
	"errors"
)

// MessageID uniquely identifies a message within a messenger platform.
type MessageID string

// ParseMode selects how the platform renders message text.
type ParseMode string

const (
	ParseModePlain    ParseMode = ""
	ParseModeMarkdown ParseMode = "markdown"
)

// Button is an interactive control attached to a message. Data is returned
// to the bot when a chat user presses it.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// SendOptions tunes a single SendMessage call.
type SendOptions struct {
	ParseMode ParseMode
	// Buttons are rendered one per row.
	Buttons []Button
}

// Identity describes the bot account a Messenger acts as.
type Identity struct {
	ID       string
	Username string
}

// Sentinel errors implementations wrap so callers can classify failures
// without knowing the platform.
//
//nolint:gochecknoglobals // sentinel errors
var (
	ErrInvalidDestination = errors.New("messenger: invalid destination")
	ErrForbidden          = errors.New("messenger: bot not allowed in destination")
	ErrUnauthorized       = errors.New("messenger: bot credentials rejected")
	ErrRateLimited        = errors.New("messenger: rate limited")
	ErrBadRequest         = errors.New("messenger: request rejected")
	ErrNetwork            = errors.New("messenger: network failure")
)

// Messenger abstracts communication with a chat platform (Telegram, Slack).
// Implementations handle platform-specific API calls; the interface is platform-agnostic.
type Messenger interface {
	// SendMessage posts text to a destination and returns its platform message ID.
	SendMessage(ctx context.Context, destination, text string, opts SendOptions) (MessageID, error)

	// Self resolves the bot's own identity, confirming the credentials work.
	Self(ctx context.Context) (Identity, error)

	// Platform returns the messenger platform identifier (e.g. "telegram", "slack").
	Platform() string
}
