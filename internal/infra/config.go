package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	GeminiAPIKey       string
	GeminiBaseURL      string
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration

	// MaxImagePixels bounds width*height of each decoded upload.
	MaxImagePixels int64
	// EditTimeout bounds one edit including every fallback call. It always
	// ends before HTTPWriteTimeout so the error response can still be written.
	EditTimeout    time.Duration
}

// editTimeoutMargin is kept between EditTimeout and HTTPWriteTimeout.
const editTimeoutMargin = 10 * time.Second

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. A missing API key is not an error here; requests
// fail with a configuration error instead.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8000"),
		GeminiAPIKey:       strings.TrimSpace(getEnv("GOOGLE_API_KEY", os.Getenv("GEMINI_API_KEY"))),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		MaxImagePixels:     int64(getEnvInt("MAX_IMAGE_PIXELS", 40_000_000)),
		EditTimeout:        time.Second * time.Duration(getEnvInt("EDIT_TIMEOUT_SECONDS", 100)),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.MaxImagePixels <= 0 {
		cfg.MaxImagePixels = 40_000_000
	}
	cfg.EditTimeout = clampEditTimeout(cfg.EditTimeout, cfg.HTTPWriteTimeout)

	return cfg, nil
}

// HasAPIKey reports whether a model credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.GeminiAPIKey != ""
}

// clampEditTimeout keeps edit below write. A write timeout of zero disables
// the server deadline, so edit is only defaulted then.
func clampEditTimeout(edit, write time.Duration) time.Duration {
	if write <= 0 {
		if edit <= 0 {
			return 100 * time.Second
		}
		return edit
	}
	limit := write - editTimeoutMargin
	if write <= editTimeoutMargin {
		limit = write / 2
	}
	if edit <= 0 || edit > limit {
		return limit
	}
	return edit
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
