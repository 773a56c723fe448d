package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	AppPort         string
	UseMemoryStore  bool
	LLMProvider     string // "openai" or "anthropic"
	LLMModel        string
	LLMTimeout      time.Duration
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	JWTSecret       string
	TokenExpires    time.Duration
	StaffAccessCode string
	SessionIdleTTL  time.Duration
}

// Load reads environment variables and returns a populated Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:         getEnv("PORT", "8080"),
		UseMemoryStore:  getEnv("USE_MEMORY_STORE", "false") == "true",
		LLMProvider:     getEnv("LLM_PROVIDER", "openai"),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMTimeout:      getEnvSeconds("LLM_TIMEOUT_SECONDS", 30),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenExpires:    getEnvHours("JWT_TTL_HOURS", 12),
		StaffAccessCode: getEnv("STAFF_ACCESS_CODE", ""),
		SessionIdleTTL:  getEnvMinutes("SESSION_IDLE_MINUTES", 45),
	}

	if cfg.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET not set - kitchen endpoints will reject all logins")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func getEnvMinutes(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Minute
}

func getEnvHours(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Hour
}
