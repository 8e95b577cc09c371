package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Reference store (MySQL/MariaDB DSN)
	DatabaseURL string

	// Static zip-to-geo asset
	ZipTablePath string

	// Outbound result reporting
	ReportAPIURL  string
	ReportAPIKey  string
	ReportTimeout time.Duration

	// Claim ingestion (Kafka)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string
	WorkerCount  int

	// Matching thresholds (overridable via matching.yaml, see tuning.go)
	RadiusKm          float64
	StreetScoreCutoff int

	// Database performance settings
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime int // minutes
	DBConnMaxIdleTime int // minutes
	DBReadTimeout     time.Duration

	// Admin HTTP server (health + metrics)
	AdminPort string

	// Logging
	LogLevel          string
	LogFormat         string // "json" or "text"
	LogFile           string
	EnableFileLogging bool

	// Environment: development, staging, production
	Env string
}

func Load() *Config {
	workerCount, _ := strconv.Atoi(getEnv("WORKER_COUNT", "4"))

	radiusKm, _ := strconv.ParseFloat(getEnv("PROXIMITY_RADIUS_KM", "80"), 64)
	streetCutoff, _ := strconv.Atoi(getEnv("STREET_SCORE_CUTOFF", "80"))

	dbMaxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	dbMaxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "10"))
	dbConnMaxLifetime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_LIFETIME_MINUTES", "10"))
	dbConnMaxIdleTime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_IDLE_TIME_MINUTES", "5"))
	dbReadTO, _ := time.ParseDuration(getEnv("DB_READ_TIMEOUT", "30s"))

	reportTO, _ := time.ParseDuration(getEnv("REPORT_API_TIMEOUT", "10s"))

	enableFileLogging, _ := strconv.ParseBool(getEnv("ENABLE_FILE_LOGGING", "false"))

	env := strings.ToLower(getEnv("ENV", "development"))

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ZipTablePath:      getEnv("ZIP_TABLE_PATH", "./us_zip_data.csv"),
		ReportAPIURL:      getEnv("API_URL", ""),
		ReportAPIKey:      getEnv("API_X_KEY", ""),
		ReportTimeout:     reportTO,
		KafkaBrokers:      splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "identity-claims"),
		KafkaGroup:        getEnv("KAFKA_GROUP", "identity-matching"),
		WorkerCount:       workerCount,
		RadiusKm:          radiusKm,
		StreetScoreCutoff: streetCutoff,
		DBMaxOpenConns:    dbMaxOpenConns,
		DBMaxIdleConns:    dbMaxIdleConns,
		DBConnMaxLifetime: dbConnMaxLifetime,
		DBConnMaxIdleTime: dbConnMaxIdleTime,
		DBReadTimeout:     dbReadTO,
		AdminPort:         getEnv("ADMIN_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		LogFile:           getEnv("LOG_FILE", ""),
		EnableFileLogging: enableFileLogging,
		Env:               env,
	}

	applyTuning(cfg)
	return cfg
}

// Validate checks the settings a running service cannot do without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ReportAPIURL == "" {
		return fmt.Errorf("API_URL is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.RadiusKm <= 0 {
		return fmt.Errorf("PROXIMITY_RADIUS_KM must be positive, got %v", c.RadiusKm)
	}
	if c.StreetScoreCutoff < 0 || c.StreetScoreCutoff > 100 {
		return fmt.Errorf("STREET_SCORE_CUTOFF must be in 0..100, got %d", c.StreetScoreCutoff)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
