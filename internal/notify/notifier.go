package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/kanbanhub/internal/messenger"
)

// ErrNotifierClosed is reported for dispatches issued after Close.
var ErrNotifierClosed = errors.New("notify: notifier closed") //nolint:gochecknoglobals // sentinel error

// Sender delivers one message. *Gateway satisfies this interface.
type Sender interface {
	Send(ctx context.Context, destination, text string, opts messenger.SendOptions) error
}

// ErrorHandler observes failed dispatches.
type ErrorHandler func(destination string, err error)

// Notifier runs sends as one-way background tasks. Callers never wait for
// delivery; every failure is handed to the error handler.
type Notifier struct {
	sender  Sender
	onError ErrorHandler

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithErrorHandler replaces the default logging error handler.
func WithErrorHandler(h ErrorHandler) NotifierOption {
	return func(n *Notifier) {
		if h != nil {
			n.onError = h
		}
	}
}

// NewNotifier creates a Notifier dispatching through sender.
func NewNotifier(sender Sender, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		sender:  sender,
		onError: LogSendError,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Dispatch starts delivering text to destination and returns immediately.
// The send outlives ctx cancellation but keeps its values.
func (n *Notifier) Dispatch(ctx context.Context, destination, text string, opts messenger.SendOptions) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		n.onError(destination, ErrNotifierClosed)
		return
	}
	n.wg.Add(1)
	n.mu.RUnlock()

	sendCtx := context.WithoutCancel(ctx)
	go func() {
		defer n.wg.Done()
		if err := n.sender.Send(sendCtx, destination, text, opts); err != nil {
			n.onError(destination, err)
		}
	}()
}

// Close rejects new dispatches and waits for in-flight ones, or for ctx.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSendError is the default ErrorHandler.
func LogSendError(destination string, err error) {
	evt := log.Warn().Err(err).Str("destination", destination)

	var sendErr *SendError
	if errors.As(err, &sendErr) {
		evt = evt.Str("cause", string(sendErr.Cause))
	}

	evt.Msg("notification not delivered")
}
