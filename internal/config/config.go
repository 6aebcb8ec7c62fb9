package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Supported chat platforms.
const (
	MessengerTelegram = "telegram"
	MessengerSlack    = "slack"
)

// Status presentation modes.
const (
	StatusModeMenu    = "menu"
	StatusModeSummary = "summary"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Bot    BotConfig
	Server ServerConfig
	WS     WSConfig
	Redis  RedisConfig
	Notify NotifyConfig
}

// BotConfig holds chat platform settings.
type BotConfig struct {
	Messenger string
	Token     string //nolint:gosec // G117: bot token config
	// ChatID is the initial board-event notification destination.
	ChatID             string
	SlackSigningSecret string //nolint:gosec // G117: Slack signing secret config
	SendTimeout        time.Duration
	// PollTimeout is the Telegram long-poll timeout in seconds.
	PollTimeout int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	StaticDir    string
}

// WSConfig holds board websocket settings.
type WSConfig struct {
	PingInterval time.Duration
	RateLimit    float64
	RateBurst    int
	ReadLimit    int64
}

// RedisConfig holds Redis connection settings. An empty Addr disables board-event fan-in.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
	Channel  string
}

// Enabled reports whether Redis fan-in is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// NotifyConfig holds chat message rendering settings.
type NotifyConfig struct {
	Timezone   string
	Location   *time.Location
	StatusMode string
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config.LoadDotEnv: %w", err)
	}
	log.Debug().Str("path", path).Msg("loaded environment file")
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	sendTimeout, err := getEnvDuration("KANBAN_SEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pollTimeout, err := getEnvInt("KANBAN_TELEGRAM_POLL_TIMEOUT", 60)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("KANBAN_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("KANBAN_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pingInterval, err := getEnvDuration("KANBAN_WS_PING_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimit, err := getEnvFloat("KANBAN_WS_RATE_LIMIT", 1)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("KANBAN_WS_RATE_BURST", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readLimit, err := getEnvInt("KANBAN_WS_READ_LIMIT", 1<<20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("KANBAN_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Bot: BotConfig{
			Messenger:          strings.ToLower(getEnv("KANBAN_MESSENGER", MessengerTelegram)),
			Token:              getEnv("KANBAN_BOT_TOKEN", ""),
			ChatID:             getEnv("KANBAN_CHAT_ID", ""),
			SlackSigningSecret: getEnv("KANBAN_SLACK_SIGNING_SECRET", ""),
			SendTimeout:        sendTimeout,
			PollTimeout:        pollTimeout,
		},
		Server: ServerConfig{
			Addr:         getEnv("KANBAN_SERVER_ADDR", ":3000"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("KANBAN_CORS_ORIGINS", []string{"*"}),
			StaticDir:    getEnv("KANBAN_STATIC_DIR", ""),
		},
		WS: WSConfig{
			PingInterval: pingInterval,
			RateLimit:    rateLimit,
			RateBurst:    rateBurst,
			ReadLimit:    int64(readLimit),
		},
		Redis: RedisConfig{
			Addr:     getEnv("KANBAN_REDIS_ADDR", ""),
			Password: getEnv("KANBAN_REDIS_PASSWORD", ""),
			DB:       redisDB,
			Channel:  getEnv("KANBAN_REDIS_CHANNEL", "kanban:board-events"),
		},
		Notify: NotifyConfig{
			Timezone:   getEnv("KANBAN_TIMEZONE", "Local"),
			StatusMode: strings.ToLower(getEnv("KANBAN_STATUS_MODE", StatusModeMenu)),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds, and resolves the timezone.
func (c *Config) validate() error {
	// The bot token is the only process-fatal omission.
	if c.Bot.Token == "" {
		return errors.New("KANBAN_BOT_TOKEN is required")
	}

	switch c.Bot.Messenger {
	case MessengerTelegram, MessengerSlack:
	default:
		return fmt.Errorf("KANBAN_MESSENGER must be %q or %q, got %q", MessengerTelegram, MessengerSlack, c.Bot.Messenger)
	}

	if c.Bot.ChatID == "" {
		log.Warn().Msg("KANBAN_CHAT_ID is not set; board events are dropped until a chat runs /setchat")
	}
	if c.Bot.Messenger == MessengerSlack && c.Bot.SlackSigningSecret == "" {
		log.Warn().Msg("KANBAN_SLACK_SIGNING_SECRET is not set; Slack commands are disabled")
	}

	switch c.Notify.StatusMode {
	case StatusModeMenu, StatusModeSummary:
	default:
		return fmt.Errorf("KANBAN_STATUS_MODE must be %q or %q, got %q", StatusModeMenu, StatusModeSummary, c.Notify.StatusMode)
	}

	loc, err := time.LoadLocation(c.Notify.Timezone)
	if err != nil {
		return fmt.Errorf("KANBAN_TIMEZONE %q: %w", c.Notify.Timezone, err)
	}
	c.Notify.Location = loc

	// Bounds checks.
	if c.Bot.SendTimeout <= 0 {
		return fmt.Errorf("KANBAN_SEND_TIMEOUT must be positive, got %s", c.Bot.SendTimeout)
	}
	if c.Bot.PollTimeout < 0 {
		return fmt.Errorf("KANBAN_TELEGRAM_POLL_TIMEOUT must be >= 0, got %d", c.Bot.PollTimeout)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("KANBAN_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("KANBAN_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.WS.PingInterval < 0 {
		return fmt.Errorf("KANBAN_WS_PING_INTERVAL must be >= 0, got %s", c.WS.PingInterval)
	}
	if c.WS.RateLimit <= 0 {
		return fmt.Errorf("KANBAN_WS_RATE_LIMIT must be positive, got %g", c.WS.RateLimit)
	}
	if c.WS.RateBurst < 1 {
		return fmt.Errorf("KANBAN_WS_RATE_BURST must be >= 1, got %d", c.WS.RateBurst)
	}
	if c.WS.ReadLimit < 1 {
		return fmt.Errorf("KANBAN_WS_READ_LIMIT must be >= 1, got %d", c.WS.ReadLimit)
	}
	if c.Redis.Enabled() && c.Redis.Channel == "" {
		return errors.New("KANBAN_REDIS_CHANNEL must not be empty when KANBAN_REDIS_ADDR is set")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
