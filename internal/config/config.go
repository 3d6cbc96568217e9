package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const DefaultHelpPage = "https://www.notion.so/octocat/ca61deb6472a4c73b9b43b0ecd549397"

// Config is built once at start and handed to the components that need it.
// Only LogLevel may change afterwards, through Watch.
type Config struct {
	BotToken          string
	DatabaseURL       string
	Host              string
	Port              int
	DefaultIMDbAPIKey string
	HelpPage          string

	ListenAddr        string
	WebhookSecret     string
	Locale            string
	LogLevel          slog.Level
	IMDbAPIURL        string
	NotionAPIURL      string
	NotionVersion     string
	TelegramAPIURL    string
	SendRatePerSecond float64

	v  *viper.Viper
	mu sync.Mutex
}

// key -> environment variable. The first block keeps the names the bot has
// always been deployed with.
var envBindings = map[string]string{
	"bot_token":            "TG_BOT_TOKEN",
	"database_url":         "DATABASE_URL",
	"host":                 "HOST",
	"port":                 "PORT",
	"default_imdb_api_key": "DEFAULT_IMDB_API_KEY",
	"help_page":            "HELP_PAGE",

	"listen_addr":          "MOVIEBOT_LISTEN_ADDR",
	"webhook_secret":       "MOVIEBOT_WEBHOOK_SECRET",
	"locale":               "MOVIEBOT_LOCALE",
	"log_level":            "MOVIEBOT_LOG_LEVEL",
	"imdb_api_url":         "MOVIEBOT_IMDB_API_URL",
	"notion_api_url":       "MOVIEBOT_NOTION_API_URL",
	"notion_version":       "MOVIEBOT_NOTION_VERSION",
	"telegram_api_url":     "MOVIEBOT_TELEGRAM_API_URL",
	"send_rate_per_second": "MOVIEBOT_SEND_RATE_PER_SECOND",
}

var requiredKeys = []string{"bot_token", "database_url", "host", "port", "default_imdb_api_key"}

// Load reads the environment and, when path is set, a config file.
// Environment values win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("help_page", DefaultHelpPage)
	v.SetDefault("locale", "en")
	v.SetDefault("log_level", "info")
	v.SetDefault("notion_version", "2022-06-28")
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, envBindings[key])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	port := v.GetInt("port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT is not a valid port: %q", v.GetString("port"))
	}
	level, err := ParseLevel(v.GetString("log_level"))
	if err != nil {
		return nil, err
	}
	listenAddr := strings.TrimSpace(v.GetString("listen_addr"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf("0.0.0.0:%d", port)
	}
	rps := v.GetFloat64("send_rate_per_second")
	if rps < 0 {
		return nil, errors.New("MOVIEBOT_SEND_RATE_PER_SECOND must not be negative")
	}

	return &Config{
		BotToken:          strings.TrimSpace(v.GetString("bot_token")),
		DatabaseURL:       strings.TrimSpace(v.GetString("database_url")),
		Host:              strings.TrimSpace(v.GetString("host")),
		Port:              port,
		DefaultIMDbAPIKey: strings.TrimSpace(v.GetString("default_imdb_api_key")),
		HelpPage:          strings.TrimSpace(v.GetString("help_page")),
		ListenAddr:        listenAddr,
		WebhookSecret:     strings.TrimSpace(v.GetString("webhook_secret")),
		Locale:            strings.TrimSpace(v.GetString("locale")),
		LogLevel:          level,
		IMDbAPIURL:        strings.TrimSpace(v.GetString("imdb_api_url")),
		NotionAPIURL:      strings.TrimSpace(v.GetString("notion_api_url")),
		NotionVersion:     strings.TrimSpace(v.GetString("notion_version")),
		TelegramAPIURL:    strings.TrimSpace(v.GetString("telegram_api_url")),
		SendRatePerSecond: rps,
		v:                 v,
	}, nil
}

// WebhookPath is the secret path Telegram posts to.
func (c *Config) WebhookPath() string {
	return "/webhooks/" + c.BotToken
}

// WebhookURL is the externally reachable address registered with Telegram.
func (c *Config) WebhookURL() string {
	return "https://" + c.Host + c.WebhookPath()
}

// Watch calls onLevel whenever the config file changes the log level. It is
// a no-op without a config file.
func (c *Config) Watch(onLevel func(slog.Level)) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level, err := ParseLevel(c.v.GetString("log_level"))
		if err != nil {
			slog.Warn("ignoring config change", "file", e.Name, "err", err)
			return
		}
		c.mu.Lock()
		changed := level != c.LogLevel
		c.LogLevel = level
		c.mu.Unlock()
		if changed && onLevel != nil {
			onLevel(level)
		}
	})
	c.v.WatchConfig()
}

func ParseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}
