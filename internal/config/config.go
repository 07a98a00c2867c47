package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"clarify/internal/log"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	WorkerMetricsPort  string

	// Database
	SQLiteDBPath string

	// AMQP (empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Auth
	JWTSecret      string
	AccessTokenTTL time.Duration
	TaskSecretKey  string

	// Achievements
	CooldownMonths     int
	EvaluationInterval time.Duration

	// AI-assisted entry
	GeminiAPIKey     string
	GeminiModel      string
	FreeAIDailyLimit int

	// Badge export
	ExportBackend            string
	ExportBatchSize          int
	ExportInterval           time.Duration
	GoogleSpreadsheetID      string
	GoogleAchievementsSheet  string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		WorkerMetricsPort:  getEnv("WORKER_METRICS_PORT", "9091"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/clarify.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "clarify"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "badge_awarded"),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		AccessTokenTTL: getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		TaskSecretKey:  getEnv("TASK_SECRET_KEY", ""),

		CooldownMonths:     getEnvInt("ACHIEVEMENT_COOLDOWN_MONTHS", 3),
		EvaluationInterval: getEnvDuration("EVALUATION_INTERVAL", time.Hour),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		FreeAIDailyLimit: getEnvInt("FREE_AI_DAILY_LIMIT", 2),

		ExportBackend:            getEnv("EXPORT_BACKEND", "memory"),
		ExportBatchSize:          getEnvInt("EXPORT_BATCH_SIZE", 50),
		ExportInterval:           getEnvDuration("EXPORT_INTERVAL", 5*time.Minute),
		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleAchievementsSheet:  getEnv("GOOGLE_ACHIEVEMENTS_SHEET", "Achievements"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", log.FormatTint),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT secret must be at least 16 characters")
	}
	if c.AccessTokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid access token TTL %v: must be at least 1 minute", c.AccessTokenTTL))
	}

	if c.CooldownMonths < 1 {
		errors = append(errors, fmt.Sprintf("invalid achievement cooldown %d: must be at least 1 month", c.CooldownMonths))
	}
	if c.EvaluationInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid evaluation interval %v: must be at least 1 minute", c.EvaluationInterval))
	}
	if c.FreeAIDailyLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid free AI daily limit %d: must not be negative", c.FreeAIDailyLimit))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	// Validate export backend
	validBackends := []string{"memory", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.ExportBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of %v", c.ExportBackend, validBackends))
	}

	if c.ExportBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleAchievementsSheet == "" {
			errors = append(errors, "Google achievements sheet name is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ExportBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at least 1", c.ExportBatchSize))
	} else if c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at most 1000", c.ExportBatchSize))
	}

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	switch c.LogFormat {
	case log.FormatTint, log.FormatText, log.FormatJSON:
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be tint, text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateAPI adds the checks only the HTTP server needs on top of Validate.
func (c *Config) ValidateAPI() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("configuration validation failed:\n- JWT_SECRET is required by the API server")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
