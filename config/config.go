package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultBookingTTLMinutes = 15

type Config struct {
	Env      string
	Server   ServerConfig
	Redis    RedisConfig
	Booking  BookingConfig
	Notifier NotifierConfig
	Kafka    KafkaConfig
	Telegram TelegramConfig
	Admin    AdminConfig
	Log      LogConfig
}

type ServerConfig struct {
	HTTPPort     int
	GRpcPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
}

type BookingConfig struct {
	TTLMinutes    int
	SweepInterval time.Duration
	SweepTimeout  time.Duration
}

// TTL is the lifetime of a reserved booking. Non-positive values fall back
// to DefaultBookingTTLMinutes.
func (c BookingConfig) TTL() time.Duration {
	if c.TTLMinutes <= 0 {
		return DefaultBookingTTLMinutes * time.Minute
	}
	return time.Duration(c.TTLMinutes) * time.Minute
}

type NotifierConfig struct {
	BufferSize      int
	DispatchTimeout time.Duration
}

type KafkaConfig struct {
	Brokers              []string
	ProducerRetryMax     int
	ProducerRequiredAcks int
	Enabled              bool
	ConsumerGroupID      string
}

type TelegramConfig struct {
	Enabled     bool
	BotToken    string
	AdminChatID string
	APIBaseURL  string
}

type AdminConfig struct {
	JWTSecret       string
	RateLimitPerMin int
}

type LogConfig struct {
	Level    string
	Mode     string
	Encoding string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			HTTPPort:     getEnvAsInt("SERVER_HTTP_PORT", 8080),
			GRpcPort:     getEnvAsInt("SERVER_GRPC_PORT", 50057),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		Booking: BookingConfig{
			TTLMinutes:    getEnvAsInt("BOOKING_TTL_MINUTES", DefaultBookingTTLMinutes),
			SweepInterval: getEnvAsDuration("BOOKING_SWEEP_INTERVAL", 1*time.Minute),
			SweepTimeout:  getEnvAsDuration("BOOKING_SWEEP_TIMEOUT", 30*time.Second),
		},
		Notifier: NotifierConfig{
			BufferSize:      getEnvAsInt("NOTIFIER_BUFFER_SIZE", 256),
			DispatchTimeout: getEnvAsDuration("NOTIFIER_DISPATCH_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:              getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ProducerRetryMax:     getEnvAsInt("KAFKA_PRODUCER_RETRY_MAX", 3),
			ProducerRequiredAcks: getEnvAsInt("KAFKA_PRODUCER_REQUIRED_ACKS", 1),
			Enabled:              getEnvAsBool("KAFKA_ENABLED", false),
			ConsumerGroupID:      getEnv("KAFKA_CONSUMER_GROUP_ID", "reservation-service"),
		},
		Telegram: TelegramConfig{
			Enabled:     getEnvAsBool("TELEGRAM_ENABLED", false),
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			AdminChatID: getEnv("TELEGRAM_ADMIN_CHAT_ID", ""),
			APIBaseURL:  getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		},
		Admin: AdminConfig{
			JWTSecret:       getEnv("ADMIN_JWT_SECRET", "admin-jwt-secret"),
			RateLimitPerMin: getEnvAsInt("ADMIN_RATE_LIMIT_PER_MIN", 60),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Mode:     getEnv("LOG_MODE", "development"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}

	if c.Server.GRpcPort <= 0 || c.Server.GRpcPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRpcPort)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Booking.SweepInterval <= 0 {
		return fmt.Errorf("invalid sweep interval: %s", c.Booking.SweepInterval)
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.AdminChatID == "") {
		return fmt.Errorf("telegram bot token and admin chat id are required when telegram is enabled")
	}

	if c.Admin.JWTSecret == "" || c.Admin.JWTSecret == "admin-jwt-secret" {
		if c.Env == "production" {
			return fmt.Errorf("admin JWT secret must be set in production")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
