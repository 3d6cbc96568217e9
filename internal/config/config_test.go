package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TG_BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/moviebot")
	t.Setenv("HOST", "bot.example.com")
	t.Setenv("PORT", "8443")
	t.Setenv("DEFAULT_IMDB_API_KEY", "k_default")
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotToken != "123:abc" || cfg.Host != "bot.example.com" || cfg.Port != 8443 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.HelpPage != DefaultHelpPage {
		t.Fatalf("expected default help page, got %q", cfg.HelpPage)
	}
	if cfg.ListenAddr != "0.0.0.0:8443" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.NotionVersion != "2022-06-28" || cfg.Locale != "en" || cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.WebhookPath() != "/webhooks/123:abc" {
		t.Fatalf("unexpected webhook path %q", cfg.WebhookPath())
	}
	if cfg.WebhookURL() != "https://bot.example.com/webhooks/123:abc" {
		t.Fatalf("unexpected webhook url %q", cfg.WebhookURL())
	}
}

func TestLoadReportsMissingVariables(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TG_BOT_TOKEN", "")
	t.Setenv("DEFAULT_IMDB_API_KEY", "")
	_, err := Load("")
	if err == nil {
		t.Fatalf("expected error for missing variables")
	}
	if !strings.Contains(err.Error(), "TG_BOT_TOKEN") || !strings.Contains(err.Error(), "DEFAULT_IMDB_API_KEY") {
		t.Fatalf("expected missing variable names in %q", err.Error())
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "99999")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected invalid port error")
	}
}

func TestLoadReadsConfigFileWithEnvironmentPrecedence(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MOVIEBOT_LOCALE", "en-GB")
	path := filepath.Join(t.TempDir(), "moviebot.yaml")
	content := "log_level: debug\nlocale: fr\nhelp_page: https://help.example/page\nlisten_addr: 127.0.0.1:9000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level from file, got %s", cfg.LogLevel)
	}
	if cfg.Locale != "en-GB" {
		t.Fatalf("expected environment to win, got %q", cfg.Locale)
	}
	if cfg.HelpPage != "https://help.example/page" || cfg.ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("unexpected file values %+v", cfg)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	setRequiredEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for raw, want := range cases {
		got, err := ParseLevel(raw)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %s, %v; want %s", raw, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
