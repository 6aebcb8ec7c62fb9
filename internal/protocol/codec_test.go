package protocol_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kanbanhub/internal/domain"
	"github.com/gosuda/kanbanhub/internal/protocol"
)

var ts = time.Date(2026, 10, 16, 9, 30, 0, 123_000_000, time.UTC)

func TestDecodeEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  protocol.Message
	}{
		{"connection established", protocol.NewConnectionEstablished("Connected to Kanban bot server")},
		{"task moved", &protocol.TaskMoved{
			Task:       &domain.Task{Title: "Chapter 12", Label: "urgent"},
			FromStatus: "Cleaning stage",
			ToStatus:   "Translator stage",
			Timestamp:  protocol.NewTimestamp(ts),
		}},
		{"task created", &protocol.TaskCreated{
			Task:      &domain.Task{Title: "Chapter 13"},
			Status:    "Cleaning stage",
			Timestamp: protocol.NewTimestamp(ts),
		}},
		{"status response", &protocol.StatusResponse{
			Columns: []domain.Column{{Title: "Editing", Status: "Editing stage", TaskCount: 2}},
			ChatID:  "42",
		}},
		{"column status response", &protocol.ColumnStatusResponse{
			Column: &domain.Column{
				Title:     "Editing",
				Status:    "Editing stage",
				TaskCount: 1,
				Tasks:     []domain.Task{{Title: "Ch. 1", Priority: domain.PriorityHigh}},
			},
			ChatID: "42",
		}},
		{"request status", protocol.NewRequestStatus("42", ts)},
		{"request column status", protocol.NewRequestColumnStatus("42", "Editing stage", ts)},
		{"pong", &protocol.Pong{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			raw, err := protocol.Encode(tc.msg)
			require.NoError(t, err)

			var head struct {
				Type string `json:"type"`
			}
			require.NoError(t, json.Unmarshal(raw, &head))
			assert.Equal(t, string(tc.msg.Type()), head.Type)

			got, err := protocol.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tc.msg, got)
		})
	}
}

func TestDecode_UnknownTypeRoundTrips(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"BOARD_RESET","board":{"id":7},"reason":"manual"}`)

	msg, err := protocol.Decode(raw)
	require.NoError(t, err)

	unknown, ok := msg.(*protocol.Unknown)
	require.True(t, ok, "expected *protocol.Unknown, got %T", msg)
	assert.Equal(t, protocol.Type("BOARD_RESET"), unknown.Type())

	out, err := protocol.Encode(msg)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestDecode_DecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "hello there"},
		{"truncated", `{"type":"TASK_MOVED"`},
		{"array", `[1,2,3]`},
		{"null", `null`},
		{"missing type", `{"task":{"title":"x"}}`},
		{"empty type", `{"type":""}`},
		{"numeric type", `{"type":5}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			msg, err := protocol.Decode([]byte(tc.raw))
			require.Error(t, err)
			assert.Nil(t, msg)

			var decErr *protocol.DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.ErrorIs(t, err, protocol.ErrDecode)
			assert.NotErrorIs(t, err, protocol.ErrValidation)
		})
	}
}

func TestDecode_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{"task moved without task", `{"type":"TASK_MOVED","fromStatus":"a","toStatus":"b","timestamp":"2026-10-16T09:30:00.000Z"}`, "task"},
		{"task moved without title", `{"type":"TASK_MOVED","task":{},"fromStatus":"a","toStatus":"b","timestamp":"2026-10-16T09:30:00.000Z"}`, "task.title"},
		{"task moved without toStatus", `{"type":"TASK_MOVED","task":{"title":"x"},"fromStatus":"a","timestamp":"2026-10-16T09:30:00.000Z"}`, "toStatus"},
		{"task created without status", `{"type":"TASK_CREATED","task":{"title":"x"},"timestamp":1760607000000}`, "status"},
		{"task created without timestamp", `{"type":"TASK_CREATED","task":{"title":"x"},"status":"a"}`, "timestamp"},
		{"status response without columns", `{"type":"STATUS_RESPONSE","chatId":"42"}`, "columns"},
		{"column status response without column", `{"type":"COLUMN_STATUS_RESPONSE","chatId":"42"}`, "column"},
		{"column status response without chat", `{"type":"COLUMN_STATUS_RESPONSE","column":{"title":"A","taskCount":0}}`, "chatId"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := protocol.Decode([]byte(tc.raw))
			require.Error(t, err)

			var valErr *protocol.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.ErrorIs(t, err, protocol.ErrValidation)
			assert.Contains(t, valErr.Fields, tc.wantField)
		})
	}

	t.Run("columns with wrong shape", func(t *testing.T) {
		t.Parallel()

		_, err := protocol.Decode([]byte(`{"type":"STATUS_RESPONSE","columns":"Editing","chatId":"42"}`))

		var valErr *protocol.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, protocol.TypeStatusResponse, valErr.Type)
		assert.Contains(t, err.Error(), "STATUS_RESPONSE")
	})
}

func TestDecode_StatusResponseEmptyColumnsIsValid(t *testing.T) {
	t.Parallel()

	msg, err := protocol.Decode([]byte(`{"type":"STATUS_RESPONSE","columns":[]}`))
	require.NoError(t, err)

	resp, ok := msg.(*protocol.StatusResponse)
	require.True(t, ok)
	assert.Empty(t, resp.Columns)
	assert.Empty(t, resp.ChatID)
}

func TestDecode_NumericChatIDAndEpochTimestamp(t *testing.T) {
	t.Parallel()

	raw := `{"type":"COLUMN_STATUS_RESPONSE","chatId":-100123,"column":{"title":"Editing","taskCount":0}}`
	msg, err := protocol.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, protocol.ChatID("-100123"), msg.(*protocol.ColumnStatusResponse).ChatID)

	raw = `{"type":"TASK_CREATED","task":{"title":"x"},"status":"a","timestamp":1760607000123}`
	msg, err = protocol.Decode([]byte(raw))
	require.NoError(t, err)
	created := msg.(*protocol.TaskCreated)
	assert.Equal(t, time.UnixMilli(1760607000123).UTC(), created.Timestamp.Time)
}

func TestTaskMoved_Event(t *testing.T) {
	t.Parallel()

	msg := &protocol.TaskMoved{
		Task:       &domain.Task{Title: "Chapter 12"},
		FromStatus: "Cleaning stage",
		ToStatus:   "Type stage",
		Timestamp:  protocol.NewTimestamp(ts),
	}

	ev := msg.Event()
	assert.Equal(t, domain.EventTaskMoved, ev.Kind)
	assert.Equal(t, "Chapter 12", ev.Task.Title)
	assert.Equal(t, domain.ColumnStatus("Cleaning stage"), ev.FromStatus)
	assert.Equal(t, domain.ColumnStatus("Type stage"), ev.ToStatus)
	assert.True(t, ts.Equal(ev.Timestamp))
}

func TestErrors_Messages(t *testing.T) {
	t.Parallel()

	decErr := &protocol.DecodeError{Err: errors.New("boom")}
	assert.Equal(t, "protocol: decode envelope: boom", decErr.Error())

	valErr := &protocol.ValidationError{Type: protocol.TypeTaskMoved, Fields: []string{"task", "toStatus"}}
	assert.Equal(t, "protocol: invalid TASK_MOVED (task, toStatus)", valErr.Error())
	assert.ErrorIs(t, valErr, protocol.ErrValidation)
}
