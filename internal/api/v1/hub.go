package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/kanbanhub/internal/domain"
)

type HubState struct {
	Clients     int    `json:"clients" doc:"Connected board clients"`
	Destination string `json:"destination" doc:"Current board-event notification destination"`
}

type GetHubOutput struct {
	Body *HubState
}

type SetDestinationInput struct {
	Body struct {
		Destination string `json:"destination" minLength:"1" doc:"Chat identifier"`
	}
}

type SetDestinationOutput struct {
	Body *HubState
}

type RequestStatusInput struct {
	Body struct {
		ChatID string              `json:"chatId" minLength:"1" doc:"Chat that receives the answer"`
		Column domain.ColumnStatus `json:"column,omitempty" doc:"Column key; empty asks for every column"`
	}
}

type RequestStatusOutput struct {
	Body struct {
		Asked int `json:"asked" doc:"Board clients the query was sent to"`
	}
}

func RegisterHubRoutes(api huma.API, hub Hub) {
	huma.Register(api, huma.Operation{
		OperationID: "get-hub",
		Method:      http.MethodGet,
		Path:        "/hub",
		Summary:     "Get relay state",
		Tags:        []string{"Hub"},
	}, func(_ context.Context, _ *struct{}) (*GetHubOutput, error) {
		return &GetHubOutput{Body: &HubState{
			Clients:     hub.ClientCount(),
			Destination: hub.NotificationDestination(),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-notification-destination",
		Method:      http.MethodPut,
		Path:        "/notification-destination",
		Summary:     "Change where board events are announced",
		Tags:        []string{"Hub"},
	}, func(_ context.Context, input *SetDestinationInput) (*SetDestinationOutput, error) {
		hub.SetNotificationDestination(input.Body.Destination)
		return &SetDestinationOutput{Body: &HubState{
			Clients:     hub.ClientCount(),
			Destination: hub.NotificationDestination(),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "request-status",
		Method:        http.MethodPost,
		Path:          "/status-requests",
		Summary:       "Ask board clients to report status to a chat",
		Tags:          []string{"Hub"},
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, input *RequestStatusInput) (*RequestStatusOutput, error) {
		var asked int
		if input.Body.Column != "" {
			asked = hub.RequestColumnStatus(ctx, input.Body.ChatID, input.Body.Column)
		} else {
			asked = hub.RequestStatus(ctx, input.Body.ChatID)
		}

		if asked == 0 {
			return nil, huma.Error503ServiceUnavailable("no board clients connected")
		}

		out := &RequestStatusOutput{}
		out.Body.Asked = asked
		return out, nil
	})
}
