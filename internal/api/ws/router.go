package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/kanbanhub/internal/domain"
	"github.com/gosuda/kanbanhub/internal/messenger"
	"github.com/gosuda/kanbanhub/internal/notify"
	"github.com/gosuda/kanbanhub/internal/protocol"
)

// StatusMode selects how a status answer is presented in chat.
type StatusMode string

const (
	// StatusModeMenu sends an interactive column picker.
	StatusModeMenu StatusMode = "menu"
	// StatusModeSummary sends the all-columns overview.
	StatusModeSummary StatusMode = "summary"
)

// Dispatcher hands a message to the chat platform without waiting for delivery.
// *notify.Notifier satisfies this interface.
type Dispatcher interface {
	Dispatch(ctx context.Context, destination, text string, opts messenger.SendOptions)
}

// Router classifies inbound envelopes and turns them into chat notifications.
// It owns the notification destination.
type Router struct {
	formatter  *notify.Formatter
	dispatcher Dispatcher
	statusMode StatusMode

	mu          sync.RWMutex
	destination string
}

// NewRouter creates a Router sending board events to destination.
func NewRouter(formatter *notify.Formatter, dispatcher Dispatcher, destination string, mode StatusMode) *Router {
	if mode == "" {
		mode = StatusModeMenu
	}
	return &Router{
		formatter:   formatter,
		dispatcher:  dispatcher,
		statusMode:  mode,
		destination: destination,
	}
}

// SetDestination replaces the board-event notification destination.
func (r *Router) SetDestination(destination string) {
	r.mu.Lock()
	r.destination = destination
	r.mu.Unlock()
	log.Info().Str("chat_id", destination).Msg("notification destination changed")
}

// Destination returns the board-event notification destination.
func (r *Router) Destination() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.destination
}

// Route handles one raw inbound frame from c. Undecodable and invalid frames
// are logged and dropped.
func (r *Router) Route(ctx context.Context, c *Conn, raw []byte) {
	c.Touch(time.Now())

	msg, err := protocol.Decode(raw)
	if err != nil {
		evt := log.Warn().Err(err).Str("conn_id", c.ID())
		var vErr *protocol.ValidationError
		if errors.As(err, &vErr) {
			evt = evt.Str("type", string(vErr.Type)).Strs("fields", vErr.Fields)
		}
		evt.Msg("dropping inbound message")
		return
	}

	r.Handle(ctx, c, msg)
}

// Handle dispatches a decoded message from c.
func (r *Router) Handle(ctx context.Context, c *Conn, msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.TaskMoved:
		r.BoardEvent(ctx, m.Event())
	case *protocol.TaskCreated:
		r.BoardEvent(ctx, m.Event())
	case *protocol.StatusResponse:
		r.statusResponse(ctx, m)
	case *protocol.ColumnStatusResponse:
		r.columnStatusResponse(ctx, m)
	case *protocol.Pong:
		// Liveness was refreshed by Route.
	default:
		log.Debug().Str("conn_id", c.ID()).Str("type", string(msg.Type())).Msg("ignoring message")
	}
}

// BoardEvent notifies the current destination about ev.
func (r *Router) BoardEvent(ctx context.Context, ev domain.BoardEvent) {
	text, err := r.formatter.Event(ev)
	if err != nil {
		log.Warn().Err(err).Msg("dropping board event")
		return
	}
	r.dispatcher.Dispatch(ctx, r.Destination(), text, messenger.SendOptions{})
}

func (r *Router) statusResponse(ctx context.Context, m *protocol.StatusResponse) {
	if m.ChatID == "" {
		log.Debug().Int("columns", len(m.Columns)).Msg("status response without chat, nothing to answer")
		return
	}

	if r.statusMode == StatusModeSummary {
		r.dispatcher.Dispatch(ctx, m.ChatID.String(), r.formatter.AllColumnsStatus(m.Columns),
			messenger.SendOptions{ParseMode: messenger.ParseModeMarkdown})
		return
	}

	prompt, buttons := r.formatter.StatusMenu(m.Columns)
	r.dispatcher.Dispatch(ctx, m.ChatID.String(), prompt, messenger.SendOptions{
		ParseMode: messenger.ParseModeMarkdown,
		Buttons:   buttons,
	})
}

func (r *Router) columnStatusResponse(ctx context.Context, m *protocol.ColumnStatusResponse) {
	r.dispatcher.Dispatch(ctx, m.ChatID.String(), r.formatter.ColumnStatus(*m.Column),
		messenger.SendOptions{ParseMode: messenger.ParseModeMarkdown})
}
