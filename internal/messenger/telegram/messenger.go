package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gosuda/kanbanhub/internal/messenger"
)

// TelegramAPI abstracts the subset of the Telegram Bot API used by TelegramMessenger.
// *tgbotapi.BotAPI satisfies it; tests substitute a fake.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetMe() (tgbotapi.User, error)
}

// TelegramMessenger implements messenger.Messenger for Telegram.
type TelegramMessenger struct {
	api TelegramAPI
}

// Compile-time interface check.
var _ messenger.Messenger = (*TelegramMessenger)(nil) //nolint:gochecknoglobals // compile-time check

// NewTelegramMessenger creates a TelegramMessenger with the given API client.
func NewTelegramMessenger(api TelegramAPI) *TelegramMessenger {
	return &TelegramMessenger{api: api}
}

// NewBotAPI connects to the Bot API with token. The client library resolves
// the bot identity while connecting, so a bad token fails here.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram.NewBotAPI: %w", classify(err))
	}
	return bot, nil
}

// Unreachable returns a TelegramAPI whose calls all fail with err. It stands
// in for a client that could not connect at startup, so the hub keeps relaying
// while every send fails fast.
func Unreachable(err error) TelegramAPI {
	return unreachableAPI{err: err}
}

type unreachableAPI struct {
	err error
}

func (u unreachableAPI) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, u.err
}

func (u unreachableAPI) GetMe() (tgbotapi.User, error) {
	return tgbotapi.User{}, u.err
}

// SendMessage posts text to a chat. destination is a numeric chat ID or a
// public "@channel" username.
func (m *TelegramMessenger) SendMessage(_ context.Context, destination, text string, opts messenger.SendOptions) (messenger.MessageID, error) {
	msg, err := newMessageConfig(destination, text)
	if err != nil {
		return "", fmt.Errorf("telegram.TelegramMessenger.SendMessage: %w", err)
	}

	if opts.ParseMode == messenger.ParseModeMarkdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(opts.Buttons) > 0 {
		msg.ReplyMarkup = inlineKeyboard(opts.Buttons)
	}

	sent, err := m.api.Send(msg)
	if err != nil {
		return "", fmt.Errorf("telegram.TelegramMessenger.SendMessage: %w", classify(err))
	}

	return messenger.MessageID(strconv.Itoa(sent.MessageID)), nil
}

// Self resolves the bot account via getMe.
func (m *TelegramMessenger) Self(_ context.Context) (messenger.Identity, error) {
	me, err := m.api.GetMe()
	if err != nil {
		return messenger.Identity{}, fmt.Errorf("telegram.TelegramMessenger.Self: %w", classify(err))
	}

	return messenger.Identity{
		ID:       strconv.FormatInt(me.ID, 10),
		Username: me.UserName,
	}, nil
}

// Platform returns the messenger platform identifier.
func (m *TelegramMessenger) Platform() string {
	return "telegram"
}

func newMessageConfig(destination, text string) (tgbotapi.MessageConfig, error) {
	destination = strings.TrimSpace(destination)
	if strings.HasPrefix(destination, "@") && len(destination) > 1 {
		return tgbotapi.NewMessageToChannel(destination, text), nil
	}

	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("chat %q: %w", destination, messenger.ErrInvalidDestination)
	}
	return tgbotapi.NewMessage(chatID, text), nil
}

func inlineKeyboard(buttons []messenger.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// classify wraps err with the messenger sentinel matching the Bot API error
// code. Errors that carry no API response are network failures.
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", messenger.ErrNetwork, err)
	}

	switch apiErr.Code {
	case 400:
		desc := strings.ToLower(apiErr.Message)
		if strings.Contains(desc, "chat not found") || strings.Contains(desc, "user not found") ||
			strings.Contains(desc, "peer_id_invalid") || strings.Contains(desc, "chat_id is empty") {
			return fmt.Errorf("%w: %w", messenger.ErrInvalidDestination, err)
		}
		return fmt.Errorf("%w: %w", messenger.ErrBadRequest, err)
	case 401, 404:
		// The Bot API answers 404 for a malformed token.
		return fmt.Errorf("%w: %w", messenger.ErrUnauthorized, err)
	case 403:
		return fmt.Errorf("%w: %w", messenger.ErrForbidden, err)
	case 429:
		return fmt.Errorf("%w: %w", messenger.ErrRateLimited, err)
	default:
		return err
	}
}
