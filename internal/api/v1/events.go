package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/kanbanhub/internal/domain"
)

type PublishEventInput struct {
	Body struct {
		Kind       domain.EventKind    `json:"kind" enum:"task_moved,task_created" doc:"Event kind"`
		Task       domain.Task         `json:"task" doc:"Affected card"`
		FromStatus domain.ColumnStatus `json:"fromStatus,omitempty" doc:"Source column key (task_moved)"`
		ToStatus   domain.ColumnStatus `json:"toStatus,omitempty" doc:"Target column key (task_moved)"`
		Status     domain.ColumnStatus `json:"status,omitempty" doc:"Column key (task_created)"`
		Timestamp  time.Time           `json:"timestamp,omitempty" doc:"When it happened; defaults to now"`
	}
}

type PublishEventOutput struct {
	Body struct {
		Destination string `json:"destination" doc:"Chat the notification was dispatched to"`
	}
}

// RegisterEventRoutes registers the board-event hook used by the persistence
// layer when it changes the board outside a websocket client.
func RegisterEventRoutes(api huma.API, hub Hub) {
	huma.Register(api, huma.Operation{
		OperationID:   "publish-board-event",
		Method:        http.MethodPost,
		Path:          "/events",
		Summary:       "Notify the chat about a board event",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, input *PublishEventInput) (*PublishEventOutput, error) {
		body := input.Body

		destination := hub.NotificationDestination()
		if destination == "" {
			return nil, huma.Error409Conflict("no notification destination configured")
		}

		at := body.Timestamp
		if at.IsZero() {
			at = time.Now()
		}

		var ev domain.BoardEvent
		switch body.Kind {
		case domain.EventTaskMoved:
			if body.FromStatus == "" || body.ToStatus == "" {
				return nil, huma.Error422UnprocessableEntity("task_moved requires fromStatus and toStatus")
			}
			ev = domain.NewTaskMoved(body.Task, body.FromStatus, body.ToStatus, at)
		case domain.EventTaskCreated:
			if body.Status == "" {
				return nil, huma.Error422UnprocessableEntity("task_created requires status")
			}
			ev = domain.NewTaskCreated(body.Task, body.Status, at)
		default:
			return nil, huma.Error422UnprocessableEntity("unknown event kind")
		}

		hub.OnBoardEvent(ctx, ev)

		out := &PublishEventOutput{}
		out.Body.Destination = destination
		return out, nil
	})
}
