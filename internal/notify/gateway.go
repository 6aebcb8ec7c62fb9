package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/kanbanhub/internal/domain"
	"github.com/gosuda/kanbanhub/internal/messenger"
)

// Cause classifies why a notification could not be delivered.
type Cause string

const (
	CauseNetwork            Cause = "network"
	CauseInvalidDestination Cause = "invalid_destination"
	CauseForbidden          Cause = "forbidden"
	CauseUnauthorized       Cause = "unauthorized"
	CauseRateLimited        Cause = "rate_limited"
	CauseBadRequest         Cause = "bad_request"
	CauseUnavailable        Cause = "unavailable"
	CauseNoDestination      Cause = "no_destination"
	CauseTimeout            Cause = "timeout"
	CauseUnknown            Cause = "unknown"
)

// ErrUnavailable is returned for every send after the bot identity could not be resolved.
var ErrUnavailable = errors.New("notify: bot identity unresolved") //nolint:gochecknoglobals // sentinel error

// SendError reports a failed Gateway send.
type SendError struct {
	Cause       Cause
	Destination string
	Err         error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("notify: send to %q failed (%s): %v", e.Destination, e.Cause, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

const (
	defaultSendTimeout     = 10 * time.Second
	defaultIdentityTimeout = 10 * time.Second
)

// Gateway is the single outbound path to the chat platform. The bot identity
// is resolved once, on first use; when that fails every send fails fast
// with CauseUnavailable and no transport I/O.
type Gateway struct {
	messenger   messenger.Messenger
	sendTimeout time.Duration

	once        sync.Once
	identity    messenger.Identity
	identityErr error
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithSendTimeout bounds each transport call. Zero disables the bound.
func WithSendTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.sendTimeout = d
	}
}

// NewGateway creates a Gateway sending through m.
func NewGateway(m messenger.Messenger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		messenger:   m,
		sendTimeout: defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Platform returns the underlying messenger platform.
func (g *Gateway) Platform() string {
	return g.messenger.Platform()
}

// Identity resolves the bot identity. Only the first call performs I/O; later
// calls return the cached outcome.
func (g *Gateway) Identity(ctx context.Context) (messenger.Identity, error) {
	g.once.Do(func() {
		// The first caller's cancellation must not poison the cached result.
		checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultIdentityTimeout)
		defer cancel()

		id, err := g.messenger.Self(checkCtx)
		if err != nil {
			g.identityErr = fmt.Errorf("%w: %w", ErrUnavailable, err)
			log.Error().Err(err).Str("platform", g.messenger.Platform()).Msg("bot identity check failed, notifications disabled")
			return
		}

		g.identity = id
		log.Info().Str("platform", g.messenger.Platform()).Str("bot", id.Username).Msg("bot identity confirmed")
	})

	return g.identity, g.identityErr
}

// Send delivers text to destination. Failures are returned as *SendError.
func (g *Gateway) Send(ctx context.Context, destination, text string, opts messenger.SendOptions) error {
	if destination == "" {
		return &SendError{Cause: CauseNoDestination, Err: domain.ErrNoDestination}
	}

	if _, err := g.Identity(ctx); err != nil {
		return &SendError{Cause: CauseUnavailable, Destination: destination, Err: err}
	}

	if g.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.sendTimeout)
		defer cancel()
	}

	if _, err := g.messenger.SendMessage(ctx, destination, text, opts); err != nil {
		return &SendError{Cause: causeOf(err), Destination: destination, Err: err}
	}

	return nil
}

func causeOf(err error) Cause {
	switch {
	case errors.Is(err, messenger.ErrInvalidDestination):
		return CauseInvalidDestination
	case errors.Is(err, messenger.ErrForbidden):
		return CauseForbidden
	case errors.Is(err, messenger.ErrUnauthorized):
		return CauseUnauthorized
	case errors.Is(err, messenger.ErrRateLimited):
		return CauseRateLimited
	case errors.Is(err, messenger.ErrBadRequest):
		return CauseBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return CauseTimeout
	case errors.Is(err, messenger.ErrNetwork):
		return CauseNetwork
	default:
		return CauseUnknown
	}
}
