package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/kanbanhub/internal/messenger"
)

// UpdatesAPI abstracts the long-polling subset of the Bot API used by CommandBridge.
// *tgbotapi.BotAPI satisfies it.
type UpdatesAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// CommandBridge turns bot commands and column picker presses into hub
// status queries. It is a thin adapter, not a command framework: it knows
// /status, /setchat and /help.
type CommandBridge struct {
	api         UpdatesAPI
	queries     messenger.BoardQueries
	pollTimeout int
}

// NewCommandBridge creates a CommandBridge that long-polls with the given
// timeout in seconds.
func NewCommandBridge(api UpdatesAPI, queries messenger.BoardQueries, pollTimeout int) *CommandBridge {
	return &CommandBridge{api: api, queries: queries, pollTimeout: pollTimeout}
}

// Run consumes updates until ctx is cancelled.
func (b *CommandBridge) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(cfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update.
func (b *CommandBridge) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Chat != nil && update.Message.IsCommand():
		chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
		action := messenger.ParseCommandAction(update.Message.Command())
		log.Debug().Str("chat_id", chatID).Str("command", string(action)).Msg("telegram command")

		if reply := messenger.HandleCommand(ctx, b.queries, action, chatID); reply != "" {
			b.reply(update.Message.Chat.ID, reply)
		}
	}
}

func (b *CommandBridge) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Stop the button's loading spinner regardless of outcome.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Debug().Err(err).Msg("answer callback query")
	}

	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}

	chatID := strconv.FormatInt(cq.Message.Chat.ID, 10)
	reply, handled := messenger.HandleColumnSelection(ctx, b.queries, cq.Data, chatID)
	if !handled {
		log.Debug().Str("data", cq.Data).Msg("ignoring unknown callback data")
		return
	}
	if reply != "" {
		b.reply(cq.Message.Chat.ID, reply)
	}
}

func (b *CommandBridge) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Warn().Err(classify(err)).Int64("chat_id", chatID).Msg("telegram reply failed")
	}
}
