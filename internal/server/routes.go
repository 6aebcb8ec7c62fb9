package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/kanbanhub/internal/api/v1"
	"github.com/gosuda/kanbanhub/internal/api/ws"
	kanbanslack "github.com/gosuda/kanbanhub/internal/messenger/slack"
)

func registerAPIRoutes(api huma.API, hub *ws.Hub) {
	v1.RegisterEventRoutes(api, hub)
	v1.RegisterHubRoutes(api, hub)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/board", hub.ServeBoard)
}

func registerSlackRoutes(r chi.Router, handler *kanbanslack.Handler) {
	r.Post("/events", handler.HandleEvents)
	r.Post("/interactions", handler.HandleInteractions)
}
