package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	slacklib "github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/gosuda/kanbanhub/internal/api/ws"
	"github.com/gosuda/kanbanhub/internal/config"
	"github.com/gosuda/kanbanhub/internal/messenger"
	kanbanslack "github.com/gosuda/kanbanhub/internal/messenger/slack"
	kanbantelegram "github.com/gosuda/kanbanhub/internal/messenger/telegram"
	"github.com/gosuda/kanbanhub/internal/notify"
	"github.com/gosuda/kanbanhub/internal/server"
	redisstore "github.com/gosuda/kanbanhub/internal/store/redis"
	"github.com/gosuda/kanbanhub/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the board websocket hub and chat bot (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeCmd(cmd)
		},
	}
}

func runServeCmd(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return serve(ctx, cfg)
}

// chatClient is the connected chat platform. bot is set only for a reachable
// Telegram client.
type chatClient struct {
	messenger messenger.Messenger
	bot       *tgbotapi.BotAPI
}

// newChatClient builds the configured platform client. A Telegram client that
// cannot connect is replaced by one that fails every call, so board clients are
// still served while notifications fail fast.
func newChatClient(cfg *config.Config) chatClient {
	if cfg.Bot.Messenger == config.MessengerSlack {
		return chatClient{messenger: kanbanslack.NewSlackMessenger(slacklib.New(cfg.Bot.Token))}
	}

	bot, err := kanbantelegram.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.Error().Err(err).Msg("telegram bot unavailable; notifications and commands are disabled")
		return chatClient{messenger: kanbantelegram.NewTelegramMessenger(kanbantelegram.Unreachable(err))}
	}
	return chatClient{messenger: kanbantelegram.NewTelegramMessenger(bot), bot: bot}
}

// websocket origin patterns match hosts, not URLs.
func originPatterns(origins []string) []string {
	return lo.Map(origins, func(o string, _ int) string {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		return strings.TrimSuffix(o, "/")
	})
}

func staticAssets(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	assets, err := fs.Sub(web.Assets, "build")
	if err != nil {
		return nil, fmt.Errorf("web assets: %w", err)
	}
	return assets, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := newChatClient(cfg)

	gateway := notify.NewGateway(client.messenger, notify.WithSendTimeout(cfg.Bot.SendTimeout))
	notifier := notify.NewNotifier(gateway)

	hub := ws.NewHub(ws.Options{
		Formatter:      notify.NewFormatter(notify.WithLocation(cfg.Notify.Location)),
		Dispatcher:     notifier,
		Destination:    cfg.Bot.ChatID,
		StatusMode:     ws.StatusMode(cfg.Notify.StatusMode),
		PingInterval:   cfg.WS.PingInterval,
		ReadLimit:      cfg.WS.ReadLimit,
		OriginPatterns: originPatterns(cfg.Server.CORSOrigins),
	})

	// Resolve the bot identity up front so a bad token shows in the log at startup.
	go func() { _, _ = gateway.Identity(ctx) }()

	var background sync.WaitGroup

	var slackHandler *kanbanslack.Handler
	switch {
	case client.bot != nil:
		bridge := kanbantelegram.NewCommandBridge(client.bot, hub, cfg.Bot.PollTimeout)
		background.Add(1)
		go func() {
			defer background.Done()
			bridge.Run(ctx)
		}()
	case cfg.Bot.Messenger == config.MessengerSlack && cfg.Bot.SlackSigningSecret != "":
		slackHandler = kanbanslack.NewHandler(cfg.Bot.SlackSigningSecret, hub, client.messenger)
	}

	if cfg.Redis.Enabled() {
		pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()

		events, unsubscribe, err := pubsub.Subscribe(ctx, cfg.Redis.Channel)
		if err != nil {
			return err
		}
		defer unsubscribe()

		background.Add(1)
		go func() {
			defer background.Done()
			hub.ConsumeBoardEvents(ctx, events)
		}()
		log.Info().Str("channel", cfg.Redis.Channel).Msg("consuming published board events")
	}

	static, err := staticAssets(cfg.Server.StaticDir)
	if err != nil {
		return err
	}

	srv := server.New(ctx, cfg, hub, slackHandler, static)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start(ctx)
	}()

	log.Info().
		Str("messenger", gateway.Platform()).
		Str("status_mode", cfg.Notify.StatusMode).
		Bool("redis", cfg.Redis.Enabled()).
		Msg("kanbanhub started")

	// Block until shutdown signal or listener failure.
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer shutdownCancel()

	errs := []error{runErr}
	errs = append(errs, srv.Shutdown(shutdownCtx))
	errs = append(errs, hub.Shutdown(shutdownCtx))
	errs = append(errs, notifier.Close(shutdownCtx))

	cancel()
	background.Wait()

	log.Info().Msg("stopped")
	return errors.Join(errs...)
}
