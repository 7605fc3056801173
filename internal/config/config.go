package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

type StorageConfig struct {
	ExportDir    string
	PublicPrefix string
	ExternalURL  string
	MaxAge       time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether reminders should be sent by email at all.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type IndexConfig struct {
	FeedURL   string
	Reference string
	Timeout   time.Duration
}

type SchedulerConfig struct {
	Enabled       bool
	LateSweepSpec string
	GenerateSpec  string
	CleanupSpec   string
}

type AppConfig struct {
	Port     string
	LogLevel string
	Timezone string

	Postgres  PostgresConfig
	Redis     RedisConfig
	S3        S3Config
	Storage   StorageConfig
	SMTP      SMTPConfig
	RabbitMQ  RabbitMQConfig
	Index     IndexConfig
	Scheduler SchedulerConfig

	ExportPrefix      string
	DashboardCacheTTL time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration value %q: %v", s, err)
	}
	return d
}

func Load() AppConfig {
	return AppConfig{
		Port:     getenv("APP_PORT", "8010"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		Timezone: getenv("APP_TIMEZONE", "Europe/Paris"),
		Postgres: PostgresConfig{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     mustAtoi(getenv("PG_PORT", "5432")),
			User:     getenv("PG_USER", "locagest"),
			Password: getenv("PG_PASSWORD", "locagest"),
			DBName:   getenv("PG_DB", "locagest"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "locagest_"),
		},
		S3: S3Config{
			Enabled:         mustBool(getenv("S3_ENABLED", "false")),
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "exports"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", "rents/"),
		},
		Storage: StorageConfig{
			ExportDir:    getenv("EXPORT_DIR", "./exports"),
			PublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
			ExternalURL:  getenv("EXTERNAL_URL", ""),
			MaxAge:       mustDuration(getenv("EXPORT_MAX_AGE", "30m")),
		},
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", ""),
			Port:     mustAtoi(getenv("SMTP_PORT", "587")),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "no-reply@locagest.local"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getenv("RABBITMQ_URL", ""),
			Exchange: getenv("RABBITMQ_EXCHANGE", "locagest.ledger"),
		},
		Index: IndexConfig{
			FeedURL:   getenv("INDEX_FEED_URL", "https://bdm.insee.fr/series/sdmx/data/SERIES_BDM/001515333"),
			Reference: getenv("INDEX_REFERENCE", "IRL"),
			Timeout:   mustDuration(getenv("INDEX_TIMEOUT", "10s")),
		},
		Scheduler: SchedulerConfig{
			Enabled:       mustBool(getenv("SCHEDULER_ENABLED", "true")),
			LateSweepSpec: getenv("SCHEDULER_LATE_SWEEP", "0 2 * * *"),
			GenerateSpec:  getenv("SCHEDULER_GENERATE_RENTS", "0 3 1 * *"),
			CleanupSpec:   getenv("SCHEDULER_EXPORT_CLEANUP", "*/5 * * * *"),
		},
		ExportPrefix:      getenv("EXPORT_CACHE_PREFIX", "exports:"),
		DashboardCacheTTL: mustDuration(getenv("DASHBOARD_CACHE_TTL", "1m")),
	}
}

// Location resolves the configured timezone used to decide what "today" is.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("unknown timezone %q, falling back to UTC", c.Timezone)
		return time.UTC
	}
	return loc
}
