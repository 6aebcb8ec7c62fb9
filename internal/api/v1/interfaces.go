package v1

import (
	"context"

	"github.com/gosuda/kanbanhub/internal/domain"
)

// Hub abstracts the relay operations exposed to collaborators for handler testing.
// *ws.Hub satisfies this interface.
type Hub interface {
	OnBoardEvent(ctx context.Context, ev domain.BoardEvent)
	SetNotificationDestination(destination string)
	NotificationDestination() string
	ClientCount() int
	RequestStatus(ctx context.Context, chatID string) int
	RequestColumnStatus(ctx context.Context, chatID string, column domain.ColumnStatus) int
}
