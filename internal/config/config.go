package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Session store backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Lead store backends.
const (
	LeadStoreMemory   = "memory"
	LeadStorePostgres = "postgres"
	LeadStoreSheets   = "sheets"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	AcademyName string
	CatalogPath string

	SessionBackend string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool

	LeadStore           string
	DatabaseURL         string
	SheetsSpreadsheetID string
	GoogleCredentials   string

	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioWebhookSecret string
	WhatsAppFromNumber  string

	BroadcastToken     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		AcademyName: getEnv("ACADEMY_NAME", "Commerce Excellence Academy"),
		CatalogPath: getEnv("CATALOG_PATH", ""),

		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", SessionBackendMemory))),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 0),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),

		LeadStore:           strings.ToLower(strings.TrimSpace(getEnv("LEAD_STORE", LeadStoreMemory))),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		SheetsSpreadsheetID: getEnv("GOOGLE_SHEETS_ID", ""),
		GoogleCredentials:   getEnv("GOOGLE_CREDENTIALS_PATH", ""),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),
		WhatsAppFromNumber:  getEnv("TWILIO_WHATSAPP_NUMBER", ""),

		BroadcastToken:     getEnv("BROADCAST_TOKEN", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping empty entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
