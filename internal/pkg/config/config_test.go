package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/relay?sslmode=disable")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("CHANNEL_ID", "-1001")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.AdminID != 42 || cfg.Telegram.ChannelID != -1001 {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Access.MembershipChannelID != -1001 {
		t.Errorf("membership channel = %d, want CHANNEL_ID", cfg.Access.MembershipChannelID)
	}
	if cfg.Telegram.LogChannelID != 42 {
		t.Errorf("log channel = %d, want ADMIN_ID", cfg.Telegram.LogChannelID)
	}
	if cfg.Access.VerifyWindow != 2*time.Hour || cfg.Access.DeleteAfter != time.Hour {
		t.Errorf("access = %+v", cfg.Access)
	}
	if cfg.Access.VerifyToken != "verified" || cfg.Server.Port != "5000" {
		t.Errorf("verify token = %q, port = %q", cfg.Access.VerifyToken, cfg.Server.Port)
	}
	if cfg.Redis.Addr != "" || cfg.AWS.Bucket != "" {
		t.Error("redis and s3 must be off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_USERNAME", "@relaybot")
	t.Setenv("SOURCE_CHANNELS", "-1002:lectures, -1003:talks")
	t.Setenv("VERIFY_WINDOW", "90m")
	t.Setenv("PUBLIC_URL", "https://relay.example.org/")
	t.Setenv("FSUB_CHANNEL_ID", "-1009")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Telegram.BotLink("file_AgADu1"); got != "https://t.me/relaybot?start=file_AgADu1" {
		t.Errorf("BotLink = %q", got)
	}
	if len(cfg.Telegram.SourceChannels) != 2 || cfg.Telegram.SourceChannels[-1003] != "talks" {
		t.Errorf("source channels = %v", cfg.Telegram.SourceChannels)
	}
	if cfg.Access.VerifyWindow != 90*time.Minute {
		t.Errorf("window = %v", cfg.Access.VerifyWindow)
	}
	if cfg.Server.PublicURL != "https://relay.example.org" {
		t.Errorf("public url = %q", cfg.Server.PublicURL)
	}
	if cfg.Access.MembershipChannelID != -1009 {
		t.Errorf("membership channel = %d", cfg.Access.MembershipChannelID)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ADMIN_ID", "")
	t.Setenv("CHANNEL_ID", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"BOT_TOKEN", "DATABASE_URL", "ADMIN_ID", "CHANNEL_ID"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := map[string]string{
		"ADMIN_ID":        "admin",
		"DELETE_AFTER":    "soon",
		"SOURCE_CHANNELS": "-1002",
		"REDIS_DB":        "zero",
		"TELEGRAM_DEBUG":  "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), key) {
				t.Errorf("Load with %s=%q: err = %v", key, value, err)
			}
		})
	}
}
