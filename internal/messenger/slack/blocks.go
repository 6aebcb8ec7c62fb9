package slack

import (
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/kanbanhub/internal/messenger"
)

// BuildMenuBlocks builds Slack Block Kit blocks for a message with buttons.
// The text section is followed by one action block holding every button;
// each button's value carries the button data back to the interactions endpoint.
func BuildMenuBlocks(text string, buttons []messenger.Button) []slacklib.Block {
	textBlock := slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, text, false, false),
		nil,
		nil,
	)

	if len(buttons) == 0 {
		return []slacklib.Block{textBlock}
	}

	elements := make([]slacklib.BlockElement, 0, len(buttons))
	for i, b := range buttons {
		actionID := fmt.Sprintf("kanban_menu_%d", i)
		btn := slacklib.NewButtonBlockElement(
			actionID,
			b.Data,
			slacklib.NewTextBlockObject(slacklib.PlainTextType, b.Label, true, false),
		)
		elements = append(elements, btn)
	}

	actionBlock := slacklib.NewActionBlock("kanban_menu", elements...)

	return []slacklib.Block{textBlock, actionBlock}
}
