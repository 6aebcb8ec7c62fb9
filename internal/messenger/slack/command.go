package slack

import (
	"regexp"
	"strings"

	"github.com/gosuda/kanbanhub/internal/messenger"
)

// Command represents a parsed user command from Slack.
type Command struct {
	Action messenger.CommandAction
	Raw    string // original text
}

// mentionPattern matches both Slack-encoded mentions (<@U12345>) and a literal @kanban at the start.
var mentionPattern = regexp.MustCompile(`^(?:<@[A-Z0-9]+>|@kanban)\s*`) //nolint:gochecknoglobals // compiled regexp

// ParseCommand extracts a command from a Slack message text. The first word
// after an optional bot mention selects the action.
func ParseCommand(text string) Command {
	cmd := Command{
		Action: messenger.CommandActionUnknown,
		Raw:    text,
	}

	stripped := strings.TrimSpace(mentionPattern.ReplaceAllString(strings.TrimSpace(text), ""))
	if stripped == "" {
		return cmd
	}

	word, _, _ := strings.Cut(stripped, " ")
	cmd.Action = messenger.ParseCommandAction(word)

	return cmd
}
