package slack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/kanbanhub/internal/messenger"
	kanbanslack "github.com/gosuda/kanbanhub/internal/messenger/slack"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want messenger.CommandAction
	}{
		{name: "encoded mention then status", text: "<@U12345> status", want: messenger.CommandActionStatus},
		{name: "literal mention then setchat", text: "@kanban setchat", want: messenger.CommandActionSetChat},
		{name: "slash prefixed", text: "/status", want: messenger.CommandActionStatus},
		{name: "mixed case", text: "<@U1> Help", want: messenger.CommandActionHelp},
		{name: "trailing words ignored", text: "status please", want: messenger.CommandActionStatus},
		{name: "bare mention", text: "<@U12345>", want: messenger.CommandActionUnknown},
		{name: "empty", text: "   ", want: messenger.CommandActionUnknown},
		{name: "unrecognised word", text: "<@U1> deploy", want: messenger.CommandActionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := kanbanslack.ParseCommand(tt.text)
			assert.Equal(t, tt.want, cmd.Action)
			assert.Equal(t, tt.text, cmd.Raw)
		})
	}
}
