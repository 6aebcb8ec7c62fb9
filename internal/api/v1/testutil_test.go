package v1_test

import (
	"context"
	"sync"

	"github.com/gosuda/kanbanhub/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock Hub
// ---------------------------------------------------------------------------

type columnRequest struct {
	ChatID string
	Column domain.ColumnStatus
}

type mockHub struct {
	mu             sync.Mutex
	clients        int
	destination    string
	events         []domain.BoardEvent
	statusRequests []string
	columnRequests []columnRequest
}

func (m *mockHub) OnBoardEvent(_ context.Context, ev domain.BoardEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockHub) SetNotificationDestination(destination string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destination = destination
}

func (m *mockHub) NotificationDestination() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destination
}

func (m *mockHub) ClientCount() int {
	return m.clients
}

func (m *mockHub) RequestStatus(_ context.Context, chatID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusRequests = append(m.statusRequests, chatID)
	return m.clients
}

func (m *mockHub) RequestColumnStatus(_ context.Context, chatID string, column domain.ColumnStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.columnRequests = append(m.columnRequests, columnRequest{ChatID: chatID, Column: column})
	return m.clients
}
