package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/kanbanhub/internal/domain"
	"github.com/gosuda/kanbanhub/internal/notify"
	"github.com/gosuda/kanbanhub/internal/protocol"
)

// GreetingMessage is sent to every client right after it connects.
const GreetingMessage = "Connected to Kanban bot server"

const defaultWriteTimeout = 5 * time.Second

// ErrHubClosed is returned when attaching a connection after Shutdown.
var ErrHubClosed = errors.New("ws: hub closed") //nolint:gochecknoglobals // sentinel error

// Options configures a Hub.
type Options struct {
	Formatter  *notify.Formatter
	Dispatcher Dispatcher
	// Destination is the initial board-event notification destination.
	Destination string
	StatusMode  StatusMode
	// PingInterval enables transport pings. Zero disables them.
	PingInterval time.Duration
	// WriteTimeout bounds each outbound write. Defaults to 5s.
	WriteTimeout time.Duration
	// ReadLimit caps inbound message size in bytes. Zero keeps the transport default.
	ReadLimit      int64
	OriginPatterns []string
}

// Hub relays between board clients and the chat platform.
type Hub struct {
	registry *Registry
	router   *Router

	pingInterval   time.Duration
	writeTimeout   time.Duration
	readLimit      int64
	originPatterns []string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewHub creates a Hub.
func NewHub(opts Options) *Hub {
	formatter := opts.Formatter
	if formatter == nil {
		formatter = notify.NewFormatter()
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	return &Hub{
		registry:       NewRegistry(),
		router:         NewRouter(formatter, opts.Dispatcher, opts.Destination, opts.StatusMode),
		pingInterval:   opts.PingInterval,
		writeTimeout:   writeTimeout,
		readLimit:      opts.ReadLimit,
		originPatterns: opts.OriginPatterns,
	}
}

// Registry exposes the live connection set.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// ClientCount returns the number of registered board clients.
func (h *Hub) ClientCount() int {
	return h.registry.Count()
}

// ServeBoard upgrades the request and serves one board client until it disconnects.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer wsConn.CloseNow()

	if h.readLimit > 0 {
		wsConn.SetReadLimit(h.readLimit)
	}

	h.serve(r.Context(), NewConn(websocketTransport{conn: wsConn}), wsConn)
}

// frameReader is the receiving half of a transport.
type frameReader interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
}

func (h *Hub) serve(ctx context.Context, c *Conn, reader frameReader) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	if err := h.Attach(ctx, c); err != nil {
		log.Warn().Err(err).Str("conn_id", c.ID()).Msg("board client rejected")
		return
	}
	defer h.Detach(c, websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if h.pingInterval > 0 {
		go h.keepAlive(ctx, c)
	}

	for {
		_, data, err := reader.Read(ctx)
		if err != nil {
			logConnectionLost(c, err)
			return
		}
		h.router.Route(ctx, c, data)
	}
}

func (h *Hub) keepAlive(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, h.pingInterval)
			err := c.ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					log.Info().Err(err).Str("conn_id", c.ID()).Msg("board client missed ping")
					h.Detach(c, websocket.StatusGoingAway, "ping timeout")
				}
				return
			}
			c.Touch(time.Now())
		}
	}
}

// Attach registers c, opens it and greets the client.
func (h *Hub) Attach(ctx context.Context, c *Conn) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close(websocket.StatusGoingAway, "server shutting down")
		return fmt.Errorf("ws.Hub.Attach: %w", ErrHubClosed)
	}
	h.registry.Add(c)
	h.mu.Unlock()

	c.open()

	if err := h.send(ctx, c, protocol.NewConnectionEstablished(GreetingMessage)); err != nil {
		h.Detach(c, websocket.StatusInternalError, "greeting failed")
		return fmt.Errorf("ws.Hub.Attach: greet: %w", err)
	}

	log.Info().Str("conn_id", c.ID()).Int("clients", h.registry.Count()).Msg("board client connected")
	return nil
}

// Detach unregisters and closes c. It is safe to call more than once.
func (h *Hub) Detach(c *Conn, status websocket.StatusCode, reason string) {
	removed := h.registry.Remove(c)
	c.close(status, reason)
	if removed {
		log.Info().Str("conn_id", c.ID()).Int("clients", h.registry.Count()).Msg("board client disconnected")
	}
}

// Receive routes one raw inbound frame from c.
func (h *Hub) Receive(ctx context.Context, c *Conn, raw []byte) {
	h.router.Route(ctx, c, raw)
}

// Broadcast encodes msg once and writes it to every open connection.
// It returns the number of successful writes.
func (h *Hub) Broadcast(ctx context.Context, msg protocol.Message) int {
	data, err := protocol.Encode(msg)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type())).Msg("encode broadcast")
		return 0
	}

	sent := 0
	for _, c := range h.registry.Open() {
		if err := h.write(ctx, c, data); err != nil {
			if errors.Is(err, ErrNotOpen) {
				continue
			}
			log.Warn().Err(err).Str("conn_id", c.ID()).Msg("broadcast write failed")
			h.Detach(c, websocket.StatusInternalError, "write failed")
			continue
		}
		sent++
	}

	log.Debug().Str("type", string(msg.Type())).Int("sent", sent).Msg("broadcast")
	return sent
}

// RequestStatus asks every client for a board overview on behalf of chatID.
func (h *Hub) RequestStatus(ctx context.Context, chatID string) int {
	return h.Broadcast(ctx, protocol.NewRequestStatus(chatID, time.Now()))
}

// RequestColumnStatus asks every client for one column on behalf of chatID.
func (h *Hub) RequestColumnStatus(ctx context.Context, chatID string, column domain.ColumnStatus) int {
	return h.Broadcast(ctx, protocol.NewRequestColumnStatus(chatID, column, time.Now()))
}

// OnBoardEvent notifies the chat about ev as if a client had reported it.
func (h *Hub) OnBoardEvent(ctx context.Context, ev domain.BoardEvent) {
	h.router.BoardEvent(ctx, ev)
}

// SetNotificationDestination replaces the board-event notification destination.
func (h *Hub) SetNotificationDestination(destination string) {
	h.router.SetDestination(destination)
}

// NotificationDestination returns the board-event notification destination.
func (h *Hub) NotificationDestination() string {
	return h.router.Destination()
}

// ConsumeBoardEvents feeds board events published by other processes into the
// hub until events is closed or ctx is done. Other envelope types are ignored.
func (h *Hub) ConsumeBoardEvents(ctx context.Context, events <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-events:
			if !ok {
				return
			}
			msg, err := protocol.Decode(raw)
			if err != nil {
				log.Warn().Err(err).Msg("dropping published board event")
				continue
			}
			switch m := msg.(type) {
			case *protocol.TaskMoved:
				h.OnBoardEvent(ctx, m.Event())
			case *protocol.TaskCreated:
				h.OnBoardEvent(ctx, m.Event())
			default:
				log.Debug().Str("type", string(msg.Type())).Msg("ignoring published message")
			}
		}
	}
}

// Shutdown closes every client and waits for their loops to finish, or for ctx.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.registry.ForEach(func(c *Conn) {
		h.Detach(c, websocket.StatusGoingAway, "server shutting down")
	})

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ws.Hub.Shutdown: %w", ctx.Err())
	}
}

func (h *Hub) send(ctx context.Context, c *Conn, msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("ws.Hub.send: %w", err)
	}
	return h.write(ctx, c, data)
}

func (h *Hub) write(ctx context.Context, c *Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return c.Send(ctx, data)
}

func logConnectionLost(c *Conn, err error) {
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		log.Debug().Str("conn_id", c.ID()).Int("status", int(status)).Msg("board client closed")
		return
	}
	log.Info().Err(err).Str("conn_id", c.ID()).Msg("board connection lost")
}
