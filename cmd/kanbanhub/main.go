package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	configureLogging(os.Getenv("KANBAN_LOG_LEVEL"), os.Getenv("KANBAN_LOG_FORMAT"), os.Stdout)

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("kanbanhub failed")
		os.Exit(1)
	}
}
