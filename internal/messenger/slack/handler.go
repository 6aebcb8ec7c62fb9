package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/kanbanhub/internal/messenger"
)

// Handler processes Slack webhook events (Events API + Interactive Components)
// and turns chat commands into board queries.
type Handler struct {
	signingSecret string
	queries       messenger.BoardQueries
	replier       messenger.Messenger
}

// NewHandler creates a new Slack webhook handler. Immediate replies are posted through replier.
func NewHandler(signingSecret string, queries messenger.BoardQueries, replier messenger.Messenger) *Handler {
	return &Handler{
		signingSecret: signingSecret,
		queries:       queries,
		replier:       replier,
	}
}

// slackEvent represents the outer envelope of Slack Events API payloads.
type slackEvent struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// innerEvent represents the inner event within an event_callback.
type innerEvent struct {
	Type        string `json:"type"`
	Channel     string `json:"channel"`
	ChannelType string `json:"channel_type,omitempty"`
	Text        string `json:"text"`
	User        string `json:"user"`
	BotID       string `json:"bot_id,omitempty"`
}

// HandleEvents is an http.HandlerFunc for POST /slack/events.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if verifyErr := h.verifySignature(r.Header, body); verifyErr != nil {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var envelope slackEvent
	if unmarshalErr := json.Unmarshal(body, &envelope); unmarshalErr != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	switch envelope.Type {
	case "url_verification":
		h.handleURLVerification(w, envelope.Challenge)
		return
	case "event_callback":
		h.handleEventCallback(r.Context(), w, envelope.Event)
		return
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleURLVerification responds to Slack's URL verification challenge.
func (h *Handler) handleURLVerification(w http.ResponseWriter, challenge string) {
	w.Header().Set("Content-Type", "application/json")

	resp := map[string]string{"challenge": challenge}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		log.Error().Err(encodeErr).Msg("encode url verification response")
	}
}

// handleEventCallback processes an event_callback payload.
func (h *Handler) handleEventCallback(ctx context.Context, w http.ResponseWriter, rawEvent json.RawMessage) {
	var evt innerEvent
	if unmarshalErr := json.Unmarshal(rawEvent, &evt); unmarshalErr != nil {
		http.Error(w, "invalid event JSON", http.StatusBadRequest)
		return
	}

	// Bot mentions anywhere, plain messages only in direct chats.
	addressed := evt.Type == "app_mention" || (evt.Type == "message" && evt.ChannelType == "im")
	if !addressed || evt.BotID != "" || evt.Channel == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	cmd := ParseCommand(evt.Text)
	if cmd.Action == messenger.CommandActionUnknown {
		w.WriteHeader(http.StatusOK)
		return
	}

	log.Debug().Str("channel", evt.Channel).Str("user", evt.User).Str("action", string(cmd.Action)).Msg("slack command")

	h.reply(ctx, evt.Channel, messenger.HandleCommand(ctx, h.queries, cmd.Action, evt.Channel))

	w.WriteHeader(http.StatusOK)
}

// HandleInteractions is an http.HandlerFunc for POST /slack/interactions.
func (h *Handler) HandleInteractions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if verifyErr := h.verifySignature(r.Header, body); verifyErr != nil {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	// The body was consumed for signature verification; restore it for ParseForm.
	r.Body = io.NopCloser(bytes.NewReader(body))

	parseErr := r.ParseForm()
	if parseErr != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	payloadStr := r.FormValue("payload")
	if payloadStr == "" {
		payloadStr = extractFormPayload(string(body))
	}

	if payloadStr == "" {
		http.Error(w, "missing payload", http.StatusBadRequest)
		return
	}

	var callback slacklib.InteractionCallback
	if unmarshalErr := json.Unmarshal([]byte(payloadStr), &callback); unmarshalErr != nil {
		http.Error(w, "invalid payload JSON", http.StatusBadRequest)
		return
	}

	actionValue := extractActionValue(&callback)
	channelID := callback.Channel.ID

	if actionValue == "" || channelID == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	reply, ok := messenger.HandleColumnSelection(r.Context(), h.queries, actionValue, channelID)
	if !ok {
		log.Debug().Str("value", actionValue).Msg("ignoring unknown slack action")
		w.WriteHeader(http.StatusOK)
		return
	}

	h.reply(r.Context(), channelID, reply)

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) reply(ctx context.Context, channelID, text string) {
	if text == "" || h.replier == nil {
		return
	}
	if _, err := h.replier.SendMessage(ctx, channelID, text, messenger.SendOptions{}); err != nil {
		log.Error().Err(err).Str("channel", channelID).Msg("slack reply failed")
	}
}

// verifySignature validates the Slack request signature using the signing secret.
func (h *Handler) verifySignature(header http.Header, body []byte) error {
	sv, err := slacklib.NewSecretsVerifier(header, h.signingSecret)
	if err != nil {
		return fmt.Errorf("slack.Handler.verifySignature: create verifier: %w", err)
	}

	if _, writeErr := sv.Write(body); writeErr != nil {
		return fmt.Errorf("slack.Handler.verifySignature: write body: %w", writeErr)
	}

	if ensureErr := sv.Ensure(); ensureErr != nil {
		return fmt.Errorf("slack.Handler.verifySignature: ensure: %w", ensureErr)
	}

	return nil
}

// extractActionValue pulls the first action value from an interaction callback.
func extractActionValue(callback *slacklib.InteractionCallback) string {
	if len(callback.ActionCallback.BlockActions) > 0 {
		return callback.ActionCallback.BlockActions[0].Value
	}
	if len(callback.ActionCallback.AttachmentActions) > 0 {
		return callback.ActionCallback.AttachmentActions[0].Value
	}

	return ""
}

// extractFormPayload parses the "payload" value from a URL-encoded form body.
func extractFormPayload(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return ""
	}

	return values.Get("payload")
}
