package slack_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kanbanhub/internal/domain"
	"github.com/gosuda/kanbanhub/internal/messenger"
	kanbanslack "github.com/gosuda/kanbanhub/internal/messenger/slack"
)

const testSigningSecret = "test-signing-secret-12345"

// --- mock BoardQueries ---

type mockQueries struct {
	mu          sync.Mutex
	clients     int
	statusChats []string
	columnCalls []columnCall
	destination string
}

type columnCall struct {
	ChatID string
	Column domain.ColumnStatus
}

func (m *mockQueries) RequestStatus(_ context.Context, chatID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusChats = append(m.statusChats, chatID)
	return m.clients
}

func (m *mockQueries) RequestColumnStatus(_ context.Context, chatID string, column domain.ColumnStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.columnCalls = append(m.columnCalls, columnCall{ChatID: chatID, Column: column})
	return m.clients
}

func (m *mockQueries) SetNotificationDestination(destination string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destination = destination
}

// --- mock replier ---

type sentReply struct {
	Channel string
	Text    string
}

type mockReplier struct {
	mu   sync.Mutex
	sent []sentReply
}

func (m *mockReplier) SendMessage(_ context.Context, channel, text string, _ messenger.SendOptions) (messenger.MessageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentReply{Channel: channel, Text: text})
	return "1.0", nil
}

func (m *mockReplier) Self(context.Context) (messenger.Identity, error) {
	return messenger.Identity{ID: "U0BOT"}, nil
}

func (m *mockReplier) Platform() string { return "slack" }

// --- signature helpers ---

// computeSlackSignature computes a valid Slack request signature for the given body and timestamp.
func computeSlackSignature(secret, timestamp, body string) string {
	sigBase := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sigBase))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func signedJSONRequest(body string) *http.Request {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := computeSlackSignature(testSigningSecret, ts, body)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", sig)

	return req
}

func signedFormRequest(formBody string) *http.Request {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := computeSlackSignature(testSigningSecret, ts, formBody)

	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(formBody))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", sig)

	return req
}

func interactionForm(t *testing.T, payload map[string]any) string {
	t.Helper()

	payloadJSON, err := json.Marshal(payload)
	require.NoError(t, err)

	return url.Values{"payload": {string(payloadJSON)}}.Encode()
}

// --- HandleEvents tests ---

func TestHandleEvents(t *testing.T) {
	t.Parallel()

	t.Run("url_verification challenge", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, &mockReplier{})

		req := signedJSONRequest(`{"type":"url_verification","challenge":"test-challenge-xyz"}`)
		rec := httptest.NewRecorder()

		handler.HandleEvents(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var result map[string]string
		err := json.Unmarshal(rec.Body.Bytes(), &result)
		require.NoError(t, err)
		assert.Equal(t, "test-challenge-xyz", result["challenge"])
		assert.Empty(t, queries.statusChats)
	})

	t.Run("mention with status requests board status for the channel", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{clients: 1}
		replier := &mockReplier{}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, replier)

		body := `{"type":"event_callback","event":{"type":"app_mention","channel":"C123","text":"<@U0BOT> status","user":"U1"}}`
		rec := httptest.NewRecorder()

		handler.HandleEvents(rec, signedJSONRequest(body))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"C123"}, queries.statusChats)
		assert.Empty(t, replier.sent, "the board answers asynchronously")
	})

	t.Run("status without board clients replies immediately", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{}
		replier := &mockReplier{}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, replier)

		body := `{"type":"event_callback","event":{"type":"app_mention","channel":"C123","text":"<@U0BOT> status","user":"U1"}}`
		rec := httptest.NewRecorder()

		handler.HandleEvents(rec, signedJSONRequest(body))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, replier.sent, 1)
		assert.Equal(t, "C123", replier.sent[0].Channel)
		assert.Contains(t, replier.sent[0].Text, "не подключена")
	})

	t.Run("direct message setchat changes the destination", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{}
		replier := &mockReplier{}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, replier)

		body := `{"type":"event_callback","event":{"type":"message","channel_type":"im","channel":"D42","text":"setchat","user":"U1"}}`
		rec := httptest.NewRecorder()

		handler.HandleEvents(rec, signedJSONRequest(body))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "D42", queries.destination)
		require.Len(t, replier.sent, 1)
	})

	t.Run("channel message without mention ignored", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{clients: 1}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, &mockReplier{})

		body := `{"type":"event_callback","event":{"type":"message","channel_type":"channel","channel":"C1","text":"status","user":"U1"}}`
		rec := httptest.NewRecorder()

		handler.HandleEvents(rec, signedJSONRequest(body))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, queries.statusChats)
	})

	t.Run("bot message ignored to prevent loops", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{clients: 1}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, &mockReplier{})

		body := `{"type":"event_callback","event":{"type":"app_mention","channel":"C1","text":"<@U0BOT> status","user":"U1","bot_id":"B1"}}`
		rec := httptest.NewRecorder()

		handler.HandleEvents(rec, signedJSONRequest(body))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, queries.statusChats)
	})

	t.Run("missing signature returns 401", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{clients: 1}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, &mockReplier{})

		body := `{"type":"event_callback","event":{"type":"app_mention","channel":"C1","text":"status","user":"U1"}}`
		req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.HandleEvents(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, queries.statusChats)
	})

	t.Run("invalid signature returns 401", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{clients: 1}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, &mockReplier{})

		body := `{"type":"event_callback","event":{"type":"app_mention","channel":"C1","text":"status","user":"U1"}}`
		ts := strconv.FormatInt(time.Now().Unix(), 10)

		req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Slack-Request-Timestamp", ts)
		req.Header.Set("X-Slack-Signature", computeSlackSignature("wrong-secret", ts, body))
		rec := httptest.NewRecorder()

		handler.HandleEvents(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, queries.statusChats)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		t.Parallel()

		handler := kanbanslack.NewHandler(testSigningSecret, &mockQueries{}, &mockReplier{})
		rec := httptest.NewRecorder()

		handler.HandleEvents(rec, signedJSONRequest(`{not valid json`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// --- HandleInteractions tests ---

func TestHandleInteractions(t *testing.T) {
	t.Parallel()

	columnPayload := func(value string) map[string]any {
		return map[string]any{
			"type": "block_actions",
			"user": map[string]any{"id": "U456"},
			"actions": []map[string]any{
				{"action_id": "kanban_menu_0", "value": value, "block_id": "kanban_menu", "type": "button"},
			},
			"channel": map[string]any{"id": "C789"},
		}
	}

	t.Run("column button requests the column report", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{clients: 2}
		replier := &mockReplier{}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, replier)
		rec := httptest.NewRecorder()

		handler.HandleInteractions(rec, signedFormRequest(interactionForm(t, columnPayload("status_column_in_progress"))))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, queries.columnCalls, 1)
		assert.Equal(t, columnCall{ChatID: "C789", Column: "in_progress"}, queries.columnCalls[0])
		assert.Empty(t, replier.sent)
	})

	t.Run("unrelated button ignored", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{clients: 2}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, &mockReplier{})
		rec := httptest.NewRecorder()

		handler.HandleInteractions(rec, signedFormRequest(interactionForm(t, columnPayload("approve"))))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, queries.columnCalls)
	})

	t.Run("missing payload returns 400", func(t *testing.T) {
		t.Parallel()

		handler := kanbanslack.NewHandler(testSigningSecret, &mockQueries{}, &mockReplier{})
		rec := httptest.NewRecorder()

		handler.HandleInteractions(rec, signedFormRequest("other=1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid signature returns 401", func(t *testing.T) {
		t.Parallel()

		queries := &mockQueries{clients: 1}
		handler := kanbanslack.NewHandler(testSigningSecret, queries, &mockReplier{})

		formBody := interactionForm(t, columnPayload("status_column_done"))
		ts := strconv.FormatInt(time.Now().Unix(), 10)

		req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(formBody))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Slack-Request-Timestamp", ts)
		req.Header.Set("X-Slack-Signature", computeSlackSignature("wrong-secret", ts, formBody))
		rec := httptest.NewRecorder()

		handler.HandleInteractions(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, queries.columnCalls)
	})
}
