package protocol

import (
	"encoding/json"
	"time"

	"github.com/gosuda/kanbanhub/internal/domain"
)

// Type is the envelope tag.
type Type string

const (
	TypeConnectionEstablished Type = "CONNECTION_ESTABLISHED"
	TypeTaskMoved             Type = "TASK_MOVED"
	TypeTaskCreated           Type = "TASK_CREATED"
	TypeStatusResponse        Type = "STATUS_RESPONSE"
	TypeColumnStatusResponse  Type = "COLUMN_STATUS_RESPONSE"
	TypeRequestStatus         Type = "REQUEST_STATUS"
	TypeRequestColumnStatus   Type = "REQUEST_COLUMN_STATUS"
	TypePong                  Type = "PONG"
)

// Message is one envelope variant. The set of implementations is closed to
// this package.
type Message interface {
	Type() Type
	isMessage()
}

// ConnectionEstablished greets a freshly accepted client.
type ConnectionEstablished struct {
	Message string `json:"message"`
}

// TaskMoved reports a card moving between columns.
type TaskMoved struct {
	Task       *domain.Task        `json:"task" validate:"required"`
	FromStatus domain.ColumnStatus `json:"fromStatus" validate:"required"`
	ToStatus   domain.ColumnStatus `json:"toStatus" validate:"required"`
	Timestamp  *Timestamp          `json:"timestamp" validate:"required"`
}

// TaskCreated reports a new card.
type TaskCreated struct {
	Task      *domain.Task        `json:"task" validate:"required"`
	Status    domain.ColumnStatus `json:"status" validate:"required"`
	Timestamp *Timestamp          `json:"timestamp" validate:"required"`
}

// StatusResponse answers a REQUEST_STATUS with every column's counts.
// ChatID is empty when the client reports spontaneously.
type StatusResponse struct {
	Columns []domain.Column `json:"columns" validate:"required"`
	ChatID  ChatID          `json:"chatId,omitempty"`
}

// ColumnStatusResponse answers a REQUEST_COLUMN_STATUS.
type ColumnStatusResponse struct {
	Column *domain.Column `json:"column" validate:"required"`
	ChatID ChatID         `json:"chatId" validate:"required"`
}

// RequestStatus asks clients for a board overview on behalf of a chat.
type RequestStatus struct {
	ChatID    ChatID     `json:"chatId" validate:"required"`
	Timestamp *Timestamp `json:"timestamp" validate:"required"`
}

// RequestColumnStatus asks clients for a single column on behalf of a chat.
type RequestColumnStatus struct {
	ChatID       ChatID              `json:"chatId" validate:"required"`
	ColumnStatus domain.ColumnStatus `json:"columnStatus" validate:"required"`
	Timestamp    *Timestamp          `json:"timestamp" validate:"required"`
}

// Pong is a client heartbeat.
type Pong struct{}

// Unknown carries an envelope whose type this hub does not understand.
// Fields holds every top-level member, "type" included.
type Unknown struct {
	Name   Type
	Fields map[string]json.RawMessage
}

func (*ConnectionEstablished) Type() Type { return TypeConnectionEstablished }
func (*TaskMoved) Type() Type             { return TypeTaskMoved }
func (*TaskCreated) Type() Type           { return TypeTaskCreated }
func (*StatusResponse) Type() Type        { return TypeStatusResponse }
func (*ColumnStatusResponse) Type() Type  { return TypeColumnStatusResponse }
func (*RequestStatus) Type() Type         { return TypeRequestStatus }
func (*RequestColumnStatus) Type() Type   { return TypeRequestColumnStatus }
func (*Pong) Type() Type                  { return TypePong }
func (u *Unknown) Type() Type             { return u.Name }

func (*ConnectionEstablished) isMessage() {}
func (*TaskMoved) isMessage()             {}
func (*TaskCreated) isMessage()           {}
func (*StatusResponse) isMessage()        {}
func (*ColumnStatusResponse) isMessage()  {}
func (*RequestStatus) isMessage()         {}
func (*RequestColumnStatus) isMessage()   {}
func (*Pong) isMessage()                  {}
func (*Unknown) isMessage()               {}

// Event converts the envelope into a board event. The envelope must have
// passed validation.
func (m *TaskMoved) Event() domain.BoardEvent {
	return domain.NewTaskMoved(*m.Task, m.FromStatus, m.ToStatus, m.Timestamp.Time)
}

// Event converts the envelope into a board event. The envelope must have
// passed validation.
func (m *TaskCreated) Event() domain.BoardEvent {
	return domain.NewTaskCreated(*m.Task, m.Status, m.Timestamp.Time)
}

// NewConnectionEstablished builds the greeting sent on accept.
func NewConnectionEstablished(message string) *ConnectionEstablished {
	return &ConnectionEstablished{Message: message}
}

// NewRequestStatus builds a board overview request for chatID.
func NewRequestStatus(chatID string, at time.Time) *RequestStatus {
	return &RequestStatus{ChatID: ChatID(chatID), Timestamp: NewTimestamp(at)}
}

// NewRequestColumnStatus builds a single column request for chatID.
func NewRequestColumnStatus(chatID string, column domain.ColumnStatus, at time.Time) *RequestColumnStatus {
	return &RequestColumnStatus{ChatID: ChatID(chatID), ColumnStatus: column, Timestamp: NewTimestamp(at)}
}

// newMessage returns an empty variant for t, or nil when t is not known.
func newMessage(t Type) Message {
	switch t {
	case TypeConnectionEstablished:
		return &ConnectionEstablished{}
	case TypeTaskMoved:
		return &TaskMoved{}
	case TypeTaskCreated:
		return &TaskCreated{}
	case TypeStatusResponse:
		return &StatusResponse{}
	case TypeColumnStatusResponse:
		return &ColumnStatusResponse{}
	case TypeRequestStatus:
		return &RequestStatus{}
	case TypeRequestColumnStatus:
		return &RequestColumnStatus{}
	case TypePong:
		return &Pong{}
	default:
		return nil
	}
}
