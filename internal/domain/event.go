package domain

import "time"

type EventKind string

const (
	EventTaskMoved   EventKind = "task_moved"
	EventTaskCreated EventKind = "task_created"
)

// BoardEvent is a task move or creation reported by a board client. It lives
// for the duration of a single dispatch.
type BoardEvent struct {
	Kind       EventKind
	Task       Task
	FromStatus ColumnStatus // moves only
	ToStatus   ColumnStatus // moves only
	Status     ColumnStatus // creations only
	Timestamp  time.Time
}

// NewTaskMoved builds a move event.
func NewTaskMoved(task Task, from, to ColumnStatus, at time.Time) BoardEvent {
	return BoardEvent{
		Kind:       EventTaskMoved,
		Task:       task,
		FromStatus: from,
		ToStatus:   to,
		Timestamp:  at,
	}
}

// NewTaskCreated builds a creation event.
func NewTaskCreated(task Task, status ColumnStatus, at time.Time) BoardEvent {
	return BoardEvent{
		Kind:      EventTaskCreated,
		Task:      task,
		Status:    status,
		Timestamp: at,
	}
}
