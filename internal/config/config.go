package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string
	APIToken string

	SlackSigningSecret   string
	SlackBotToken        string
	SlackAuthorizedUsers []string
	SlackTriggerEmoji    string
	SlackPostResults     bool

	ModelProvider   string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	ExtractTimeout  time.Duration

	DatabaseURL string
	NatsURL     string
	NatsToken   string
}

// Load reads configuration from the environment. In development it first
// loads .env.local, falling back to .env; variables already set win.
func Load() Config {
	if envStr("ESTIMATOR_ENV", "development") == "development" {
		if err := godotenv.Load(".env.local"); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	return Config{
		Env:      envStr("ESTIMATOR_ENV", "development"),
		Port:     envInt("ESTIMATOR_PORT", 8760),
		LogLevel: envStr("LOG_LEVEL", "info"),
		APIToken: envStr("ESTIMATOR_API_TOKEN", ""),

		SlackSigningSecret:   envStr("SLACK_SIGNING_SECRET", ""),
		SlackBotToken:        envStr("SLACK_BOT_TOKEN", ""),
		SlackAuthorizedUsers: ParseList(envStr("SLACK_AUTHORIZED_USER_IDS", "")),
		SlackTriggerEmoji:    envStr("SLACK_TRIGGER_EMOJI", "chart_increasing"),
		SlackPostResults:     envBool("SLACK_POST_RESULTS", false),

		ModelProvider:   strings.ToLower(envStr("MODEL_PROVIDER", "gemini")),
		GeminiAPIKey:    envStr("GEMINI_API_KEY", ""),
		GeminiModel:     envStr("GEMINI_MODEL", "gemini-2.5-flash"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		ExtractTimeout:  envDuration("EXTRACT_TIMEOUT", 60*time.Second),

		DatabaseURL: envStr("DATABASE_URL", ""),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
	}
}

// ParseList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func ParseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsPlaceholder reports whether a credential is unset or still holds the
// value shipped in the example env file.
func IsPlaceholder(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "your-signing-secret-here", "your-slack-bot-token-here", "your-gemini-api-key-here":
		return true
	}
	return false
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
