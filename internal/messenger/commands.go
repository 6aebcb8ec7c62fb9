package messenger

import (
	"context"
	"strings"

	"github.com/gosuda/kanbanhub/internal/domain"
)

// ColumnCallbackPrefix prefixes the data of column picker buttons.
const ColumnCallbackPrefix = "status_column_"

// BoardQueries is the hub surface driven by chat-side commands.
// *ws.Hub satisfies this interface.
type BoardQueries interface {
	// RequestStatus asks board clients for an overview and returns how many were asked.
	RequestStatus(ctx context.Context, chatID string) int
	// RequestColumnStatus asks board clients for one column and returns how many were asked.
	RequestColumnStatus(ctx context.Context, chatID string, column domain.ColumnStatus) int
	SetNotificationDestination(destination string)
}

// CommandAction is a chat command the bridge understands.
type CommandAction string

const (
	CommandActionStatus  CommandAction = "status"
	CommandActionSetChat CommandAction = "setchat"
	CommandActionHelp    CommandAction = "help"
	CommandActionUnknown CommandAction = "unknown"
)

const (
	replyNoClients = "⚠️ Доска сейчас не подключена, статус недоступен"
	replySetChat   = "✅ Уведомления о карточках будут приходить в этот чат"
	replyHelp      = "/status - статус колонок\n/setchat - присылать уведомления сюда\n/help - эта справка"
)

// ParseCommandAction maps a bare command word ("status", "/status") to an action.
func ParseCommandAction(word string) CommandAction {
	word = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(word), "/"))
	switch CommandAction(word) {
	case CommandActionStatus, CommandActionSetChat, CommandActionHelp:
		return CommandAction(word)
	default:
		return CommandActionUnknown
	}
}

// HandleCommand runs action on behalf of chatID and returns the text to
// reply with, or "" when the reply arrives asynchronously from a board client.
func HandleCommand(ctx context.Context, queries BoardQueries, action CommandAction, chatID string) string {
	switch action {
	case CommandActionStatus:
		if queries.RequestStatus(ctx, chatID) == 0 {
			return replyNoClients
		}
		return ""
	case CommandActionSetChat:
		queries.SetNotificationDestination(chatID)
		return replySetChat
	case CommandActionHelp:
		return replyHelp
	default:
		return ""
	}
}

// HandleColumnSelection handles a pressed column picker button. It reports
// false when data is not column picker data.
func HandleColumnSelection(ctx context.Context, queries BoardQueries, data, chatID string) (string, bool) {
	column, ok := ParseColumnCallback(data)
	if !ok {
		return "", false
	}
	if queries.RequestColumnStatus(ctx, chatID, column) == 0 {
		return replyNoClients, true
	}
	return "", true
}

// ColumnCallbackData encodes a column picker selection.
func ColumnCallbackData(status domain.ColumnStatus) string {
	return ColumnCallbackPrefix + string(status)
}

// ParseColumnCallback decodes data produced by ColumnCallbackData.
func ParseColumnCallback(data string) (domain.ColumnStatus, bool) {
	status, ok := strings.CutPrefix(data, ColumnCallbackPrefix)
	if !ok || status == "" {
		return "", false
	}
	return domain.ColumnStatus(status), true
}
