package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Telegram  TelegramConfig
	Database  DatabaseConfig
	Access    AccessConfig
	Server    ServerConfig
	Thumbnail ThumbnailConfig
	AWS       AWSConfig
	Redis     RedisConfig
	Cache     CacheConfig
	LogLevel  string
}

type TelegramConfig struct {
	Token    string
	Username string // empty = taken from getMe
	AdminID  int64
	// ChannelID is the permanent channel admin uploads are relayed into.
	ChannelID int64
	// SourceChannels maps extra channels to the category of their posts.
	SourceChannels map[int64]string
	LogChannelID   int64
	Debug          bool
}

type DatabaseConfig struct {
	URL string
}

type AccessConfig struct {
	// MembershipChannelID is the channel users must join.
	MembershipChannelID int64
	InviteLink          string
	VerifyURL           string
	VerifyToken         string
	VerifyWindow        time.Duration
	DeleteAfter         time.Duration
}

type ServerConfig struct {
	Port      string
	PublicURL string
}

type ThumbnailConfig struct {
	Dir        string
	Timeout    time.Duration
	FFmpegPath string
}

// AWSConfig selects the S3 thumbnail store when Bucket is set.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
}

// RedisConfig enables the persisted deletion queue when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// Load reads configuration from environment, with optional .env file.
// Missing required values and malformed numbers or durations are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:          p.required("BOT_TOKEN"),
			Username:       strings.TrimPrefix(getEnv("BOT_USERNAME", ""), "@"),
			AdminID:        p.requiredInt64("ADMIN_ID"),
			ChannelID:      p.requiredInt64("CHANNEL_ID"),
			SourceChannels: p.channelMap("SOURCE_CHANNELS"),
			Debug:          p.optBool("TELEGRAM_DEBUG", false),
		},
		Database: DatabaseConfig{
			URL: p.required("DATABASE_URL"),
		},
		Access: AccessConfig{
			InviteLink:   getEnv("FSUB_INVITE_LINK", ""),
			VerifyURL:    getEnv("VERIFY_URL", ""),
			VerifyToken:  getEnv("VERIFY_TOKEN", "verified"),
			VerifyWindow: p.optDuration("VERIFY_WINDOW", 2*time.Hour),
			DeleteAfter:  p.optDuration("DELETE_AFTER", time.Hour),
		},
		Server: ServerConfig{
			Port:      getEnv("PORT", "5000"),
			PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
		},
		Thumbnail: ThumbnailConfig{
			Dir:        getEnv("THUMB_DIR", "./thumbnails"),
			Timeout:    p.optDuration("THUMB_TIMEOUT", 30*time.Second),
			FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("THUMB_S3_BUCKET", ""),
			Prefix:          getEnv("THUMB_S3_PREFIX", "thumbnails/"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.optInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Size: p.optInt("CACHE_SIZE", 1024),
			TTL:  p.optDuration("CACHE_TTL", 10*time.Minute),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	cfg.Access.MembershipChannelID = p.optInt64("FSUB_CHANNEL_ID", cfg.Telegram.ChannelID)
	cfg.Telegram.LogChannelID = p.optInt64("LOG_CHANNEL_ID", cfg.Telegram.AdminID)

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// BotLink is the deep link that starts the bot with arg.
func (c TelegramConfig) BotLink(arg string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", c.Username, arg)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// parser collects every configuration problem so they are reported together.
type parser struct {
	errs []error
}

func (p *parser) required(key string) string {
	v := getEnv(key, "")
	if v == "" {
		p.errs = append(p.errs, fmt.Errorf("%s is not set", key))
	}
	return v
}

func (p *parser) requiredInt64(key string) int64 {
	v := p.required(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
	}
	return n
}

func (p *parser) optInt64(key string, fallback int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return fallback
	}
	return n
}

func (p *parser) optInt(key string, fallback int) int {
	return int(p.optInt64(key, int64(fallback)))
}

func (p *parser) optBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return fallback
	}
	return b
}

func (p *parser) optDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a positive duration", key, v))
		return fallback
	}
	return d
}

// channelMap parses "id:category,id:category".
func (p *parser) channelMap(key string) map[int64]string {
	out := make(map[int64]string)
	for _, pair := range strings.Split(getEnv(key, ""), ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, category, ok := strings.Cut(pair, ":")
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		category = strings.TrimSpace(category)
		if !ok || err != nil || category == "" {
			p.errs = append(p.errs, fmt.Errorf("%s: bad entry %q, want id:category", key, pair))
			continue
		}
		out[n] = category
	}
	return out
}
