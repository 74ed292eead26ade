package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

type Config struct {
	GeminiAPIKey     string
	GeminiBackend    string
	GeminiModel      string
	GeminiBaseURL    string
	GeminiAPIVersion string

	TelegramToken string

	WebAddr string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	HTTPTimeout    time.Duration
	RequestTimeout time.Duration
	MaxUploadBytes int64
	CopyResetDelay time.Duration
	SessionTTL     time.Duration
	MaxConcurrent  int
	AlbumDebounce  time.Duration
}

// Load reads the environment. Only the Gemini credential is mandatory here;
// front-ends check their own requirements (see RequireTelegram).
func Load() (Config, error) {
	cfg := Config{
		GeminiBackend:    strings.ToLower(strings.TrimSpace(getEnv("GEMINI_BACKEND", BackendREST))),
		GeminiModel:      strings.TrimSpace(getEnv("GEMINI_MODEL", "gemini-2.5-flash")),
		GeminiBaseURL:    strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		GeminiAPIVersion: strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		WebAddr:          strings.TrimSpace(getEnv("WEB_ADDR", ":8080")),
		LogLevel:         strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:            getEnvBool("DEBUG", false),
		PreferIPv4:       getEnvBool("PREFER_IPV4", true),
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 240)) * time.Second,
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		CopyResetDelay:   time.Duration(getEnvInt("COPY_RESET_MS", 2000)) * time.Millisecond,
		SessionTTL:       time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		MaxConcurrent:    getEnvInt("MAX_CONCURRENT", 4),
		AlbumDebounce:    time.Duration(getEnvInt("ALBUM_DEBOUNCE_MS", 1200)) * time.Millisecond,
	}

	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}

	switch cfg.GeminiBackend {
	case BackendREST, BackendSDK:
	default:
		return Config{}, fmt.Errorf("GEMINI_BACKEND must be %q or %q, got %q", BackendREST, BackendSDK, cfg.GeminiBackend)
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 240 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.CopyResetDelay <= 0 {
		cfg.CopyResetDelay = 2 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.AlbumDebounce <= 0 {
		cfg.AlbumDebounce = 1200 * time.Millisecond
	}

	return cfg, nil
}

func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
