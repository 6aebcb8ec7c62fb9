package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gosuda/kanbanhub/internal/config"
	"github.com/gosuda/kanbanhub/internal/messenger"
	"github.com/gosuda/kanbanhub/internal/notify"
)

func newCheckCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the bot token and optionally send a test message",
		Long: `check resolves the bot identity with the configured token. With --send it
also posts the given text to KANBAN_CHAT_ID and reports the failure cause, if any.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			client := newChatClient(cfg)
			gateway := notify.NewGateway(client.messenger, notify.WithSendTimeout(cfg.Bot.SendTimeout))
			return runCheck(cmd.Context(), cmd.OutOrStdout(), gateway, cfg.Bot.ChatID, text)
		},
	}

	cmd.Flags().StringVar(&text, "send", "", "text of a test message sent to KANBAN_CHAT_ID")
	return cmd
}

// runCheck prints the bot identity and, when text is set, the outcome of a
// test send to destination.
func runCheck(ctx context.Context, out io.Writer, gateway *notify.Gateway, destination, text string) error {
	id, err := gateway.Identity(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(out, "%s: bot identity unavailable: %v\n", gateway.Platform(), err)
		return fmt.Errorf("check: %w", err)
	}
	_, _ = fmt.Fprintf(out, "%s: bot @%s (id %s)\n", gateway.Platform(), id.Username, id.ID)

	if text == "" {
		return nil
	}

	if err := gateway.Send(ctx, destination, text, messenger.SendOptions{}); err != nil {
		cause := notify.CauseUnknown
		var sendErr *notify.SendError
		if errors.As(err, &sendErr) {
			cause = sendErr.Cause
		}
		_, _ = fmt.Fprintf(out, "send to %q failed: %s\n", destination, cause)
		return fmt.Errorf("check: %w", err)
	}
	_, _ = fmt.Fprintf(out, "sent test message to %q\n", destination)
	return nil
}
