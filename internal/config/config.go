package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"booknook-go/pkg/logger"
)

type Config struct {
	HTTPPort       string
	Env            string
	CORSOrigins    []string
	RequestTimeout time.Duration
	DB             DBConfig
	Supabase       SupabaseConfig
	Storage        StorageConfig
	GoogleBooks    GoogleBooksConfig
	Fanout         FanoutConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	SMTP           SMTPConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SupabaseConfig struct {
	URL            string
	PublishableKey string
	ServiceKey     string
	JWTSecret      string
	AuthTimeout    time.Duration
	SkipAuth       bool
	MockUserID     string
	MockUserEmail  string
	MockUserName   string
	MockUserAvatar string
}

type StorageConfig struct {
	AvatarsBucket          string
	DiscussionImagesBucket string
	MaxUploadBytes         int64
	Timeout                time.Duration
}

type GoogleBooksConfig struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	Timeout    time.Duration
	CacheTTL   time.Duration
}

type FanoutConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		CORSOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RequestTimeout: getEnvDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "booknook"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", getEnv("NEXT_PUBLIC_SUPABASE_URL", "")),
			PublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", getEnv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "")),
			ServiceKey:     getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			JWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
			AuthTimeout:    getEnvDuration("SUPABASE_AUTH_TIMEOUT", 5*time.Second),
			SkipAuth:       getEnvBool("AUTH_SKIP", false),
			MockUserID:     getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserEmail:  getEnv("AUTH_MOCK_USER_EMAIL", ""),
			MockUserName:   getEnv("AUTH_MOCK_USER_NAME", ""),
			MockUserAvatar: getEnv("AUTH_MOCK_USER_AVATAR_URL", ""),
		},
		Storage: StorageConfig{
			AvatarsBucket:          getEnv("STORAGE_AVATARS_BUCKET", "avatars"),
			DiscussionImagesBucket: getEnv("STORAGE_DISCUSSION_IMAGES_BUCKET", "discussion-images"),
			MaxUploadBytes:         int64(getEnvInt("STORAGE_MAX_UPLOAD_BYTES", 5<<20)),
			Timeout:                getEnvDuration("STORAGE_TIMEOUT", 30*time.Second),
		},
		GoogleBooks: GoogleBooksConfig{
			BaseURL:    getEnv("GOOGLE_BOOKS_BASE_URL", "https://www.googleapis.com/books/v1"),
			APIKey:     getEnv("GOOGLE_BOOKS_API_KEY", ""),
			MaxResults: getEnvInt("GOOGLE_BOOKS_MAX_RESULTS", 5),
			Timeout:    getEnvDuration("GOOGLE_BOOKS_TIMEOUT", 10*time.Second),
			CacheTTL:   getEnvDuration("GOOGLE_BOOKS_CACHE_TTL", 0),
		},
		Fanout: FanoutConfig{
			PollInterval: getEnvDuration("FANOUT_POLL_INTERVAL", 10*time.Second),
			BatchSize:    getEnvInt("FANOUT_BATCH_SIZE", 10),
			MaxAttempts:  getEnvInt("FANOUT_MAX_ATTEMPTS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "booknook.notifications"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
