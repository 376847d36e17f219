package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Email transport identifiers accepted by EMAIL_PROVIDER.
const (
	EmailProviderSMTP     = "smtp"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderStub     = "stub"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Managed backend (relational store + identity service)
	DatabaseURL    string
	StoreURL       string
	StoreAnonKey   string
	StoreJWTSecret string

	CookieSecure       bool
	CORSAllowedOrigins []string
	MetricsEnabled     bool

	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Outbound email
	EmailProvider       string
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPass            string
	SMTPFrom            string
	SMTPIgnoreTLSErrors bool
	SendGridAPIKey      string
	SendGridFromEmail   string
	SESFromEmail        string
	EmailFromName       string
	NotifyRecipients    []string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Reminder sweep
	ReminderSecretToken string
	ReminderWindow      time.Duration
	Timezone            string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		StoreURL:       strings.TrimRight(getEnv("STORE_URL", ""), "/"),
		StoreAnonKey:   getEnv("STORE_ANON_KEY", ""),
		StoreJWTSecret: getEnv("STORE_JWT_SECRET", ""),

		CookieSecure:       getEnvAsBool("COOKIE_SECURE", getEnv("ENV", "development") == "production"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		LoginRateLimit:  getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvAsDuration("LOGIN_RATE_WINDOW", time.Minute),

		EmailProvider:       strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", EmailProviderSMTP))),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvAsInt("SMTP_PORT", 465),
		SMTPUser:            getEnv("EMAIL_USER", ""),
		SMTPPass:            getEnv("EMAIL_PASS", ""),
		SMTPFrom:            getEnv("SMTP_FROM", ""),
		SMTPIgnoreTLSErrors: getEnvAsBool("SMTP_IGNORE_TLS_ERRORS", false),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", ""),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "SalesTracker"),
		NotifyRecipients:    getEnvAsList("NOTIFY_RECIPIENTS"),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-3"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ReminderSecretToken: getEnv("REMINDER_SECRET_TOKEN", ""),
		ReminderWindow:      getEnvAsDuration("REMINDER_WINDOW", 60*time.Minute),
		Timezone:            getEnv("TIMEZONE", "Africa/Tunis"),
	}
}

// EmailConfigured reports whether the selected transport has the
// credentials it needs. When false, notifications are skipped.
func (c *Config) EmailConfigured() bool {
	switch c.EmailProvider {
	case EmailProviderSMTP:
		return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
	case EmailProviderSendGrid:
		return c.SendGridAPIKey != "" && c.SendGridFromEmail != ""
	case EmailProviderSES:
		return c.SESFromEmail != ""
	case EmailProviderStub:
		return true
	default:
		return false
	}
}

// SMTPSender returns the From address for SMTP mail, defaulting to the login user.
func (c *Config) SMTPSender() string {
	if c.SMTPFrom != "" {
		return c.SMTPFrom
	}
	return c.SMTPUser
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
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

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
