package main

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/kanbanhub/internal/config"
)

// configureLogging sets the global zerolog level and output. An unknown level
// falls back to info; format "text" selects the console writer, anything else JSON.
func configureLogging(level, format string, out io.Writer) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "kanbanhub",
		Short: "Relay between kanban boards and a team chat",
		Long: `kanbanhub accepts websocket connections from kanban board clients,
announces card moves and creations in a Telegram or Slack chat, and answers
chat status commands by querying the connected boards.

Configuration is read from KANBAN_* environment variables, optionally
preloaded from an env file.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadDotEnv(envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeCmd(cmd)
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file loaded before reading configuration")

	root.AddCommand(newServeCmd(), newCheckCmd())
	return root
}
