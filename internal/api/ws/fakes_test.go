package ws_test

import (
	"context"
	"sync"

	"github.com/coder/websocket"

	"github.com/gosuda/kanbanhub/internal/messenger"
)

// --- fake Transport ---

type fakeTransport struct {
	mu       sync.Mutex
	writes   [][]byte
	writeErr error
	pingErr  error
	closed   bool
	status   websocket.StatusCode
}

func (f *fakeTransport) Write(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeTransport) Close(status websocket.StatusCode, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.status = status
	return nil
}

func (f *fakeTransport) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// --- fake Dispatcher ---

type dispatched struct {
	Destination string
	Text        string
	Opts        messenger.SendOptions
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatched
}

func (f *fakeDispatcher) Dispatch(_ context.Context, destination, text string, opts messenger.SendOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatched{Destination: destination, Text: text, Opts: opts})
}

func (f *fakeDispatcher) all() []dispatched {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatched(nil), f.calls...)
}
