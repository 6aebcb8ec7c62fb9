package domain

// ColumnStatus is the internal stage key of a board column (e.g. "Editing stage").
type ColumnStatus string

// Priority is the urgency a client attaches to a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task is the board card as reported by clients. Only the fields the hub
// renders are modelled; clients may send more.
type Task struct {
	Title    string   `json:"title" validate:"required"`
	Label    string   `json:"label,omitempty"`
	Priority Priority `json:"priority,omitempty"`
}

// Column is a client's snapshot of one board column.
type Column struct {
	Title     string       `json:"title"`
	Status    ColumnStatus `json:"status,omitempty"`
	TaskCount int          `json:"taskCount"`
	Tasks     []Task       `json:"tasks,omitempty"`
}
