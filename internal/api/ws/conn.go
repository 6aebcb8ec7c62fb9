package ws

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// State is a connection's transport-level ready state.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ErrNotOpen is returned when writing to a connection that is not open.
var ErrNotOpen = errors.New("ws: connection not open") //nolint:gochecknoglobals // sentinel error

// Transport is the duplex channel under a Conn. Writes of whole messages
// must not interleave.
type Transport interface {
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	Close(status websocket.StatusCode, reason string) error
}

// Conn is one board client. Its identity is unique within the process.
type Conn struct {
	id        string
	transport Transport
	state     atomic.Int32
	lastSeen  atomic.Int64
}

// NewConn wraps t in a Conn in the connecting state.
func NewConn(t Transport) *Conn {
	c := &Conn{
		id:        uuid.NewString(),
		transport: t,
	}
	c.state.Store(int32(StateConnecting))
	c.Touch(time.Now())
	return c
}

// ID returns the connection identity.
func (c *Conn) ID() string {
	return c.id
}

// State returns the current ready state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// IsOpen reports whether the connection accepts writes.
func (c *Conn) IsOpen() bool {
	return c.State() == StateOpen
}

// Touch records inbound activity at t.
func (c *Conn) Touch(t time.Time) {
	c.lastSeen.Store(t.UnixNano())
}

// LastSeen returns the time of the last inbound activity.
func (c *Conn) LastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

// Send writes one encoded message.
func (c *Conn) Send(ctx context.Context, data []byte) error {
	if !c.IsOpen() {
		return fmt.Errorf("ws.Conn.Send: %s: %w", c.State(), ErrNotOpen)
	}
	if err := c.transport.Write(ctx, data); err != nil {
		return fmt.Errorf("ws.Conn.Send: %w", err)
	}
	return nil
}

func (c *Conn) ping(ctx context.Context) error {
	if err := c.transport.Ping(ctx); err != nil {
		return fmt.Errorf("ws.Conn.ping: %w", err)
	}
	return nil
}

func (c *Conn) open() bool {
	return c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// close moves the connection to closed. Only the first call closes the transport.
func (c *Conn) close(status websocket.StatusCode, reason string) {
	for {
		cur := c.state.Load()
		if cur == int32(StateClosing) || cur == int32(StateClosed) {
			return
		}
		if c.state.CompareAndSwap(cur, int32(StateClosing)) {
			break
		}
	}
	_ = c.transport.Close(status, reason)
	c.state.Store(int32(StateClosed))
}

// websocketTransport adapts a coder/websocket connection.
type websocketTransport struct {
	conn *websocket.Conn
}

func (t websocketTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t websocketTransport) Ping(ctx context.Context) error {
	return t.conn.Ping(ctx)
}

func (t websocketTransport) Close(status websocket.StatusCode, reason string) error {
	return t.conn.Close(status, reason)
}
