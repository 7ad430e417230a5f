package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Pluggy        PluggyConfig
	Sync          SyncConfig
	Goals         GoalsConfig
	Redis         RedisConfig
	Firebase      FirebaseConfig
	Notifications NotificationsConfig
	Telemetry     TelemetryConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowedHosts []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type PluggyConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// SyncConfig controls the bank sync pass and the periodic trigger.
type SyncConfig struct {
	// LookbackMonths is the trailing transaction window. 0 fetches the full history.
	LookbackMonths   int
	SchedulerEnabled bool
	InitialDelay     time.Duration
	Interval         time.Duration
	WorkerCount      int
	QueueSize        int
	JobTimeout       time.Duration
}

type GoalsConfig struct {
	IncomeShare decimal.Decimal
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	CredentialsFile string
}

type NotificationsConfig struct {
	MessagesFile string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	jwtTTL, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	pluggyTimeout, err := time.ParseDuration(getEnv("PLUGGY_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLUGGY_TIMEOUT: %w", err)
	}

	// Parse sync configuration
	lookback, err := strconv.Atoi(getEnv("SYNC_LOOKBACK_MONTHS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_LOOKBACK_MONTHS: %w", err)
	}
	if lookback < 0 {
		return nil, fmt.Errorf("SYNC_LOOKBACK_MONTHS must not be negative")
	}
	initialDelay, err := time.ParseDuration(getEnv("SYNC_INITIAL_DELAY", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INITIAL_DELAY: %w", err)
	}
	interval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	workers, err := strconv.Atoi(getEnv("SYNC_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_WORKERS: %w", err)
	}
	queueSize, err := strconv.Atoi(getEnv("SYNC_QUEUE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_QUEUE_SIZE: %w", err)
	}
	jobTimeout, err := time.ParseDuration(getEnv("SYNC_JOB_TIMEOUT", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_JOB_TIMEOUT: %w", err)
	}

	incomeShare, err := decimal.NewFromString(getEnv("GOAL_INCOME_SHARE", "0.10"))
	if err != nil {
		return nil, fmt.Errorf("invalid GOAL_INCOME_SHARE: %w", err)
	}
	if incomeShare.IsNegative() || incomeShare.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("GOAL_INCOME_SHARE must be between 0 and 1")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	// Parse allowed hosts (comma-separated list)
	var allowedHosts []string
	for _, host := range strings.Split(getEnv("ALLOWED_HOSTS", ""), ",") {
		host = strings.TrimSpace(host)
		if host != "" {
			allowedHosts = append(allowedHosts, host)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowedHosts: allowedHosts,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "poupa"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "poupa"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    jwtTTL,
		},
		Pluggy: PluggyConfig{
			BaseURL:      getEnv("PLUGGY_BASE_URL", "https://api.pluggy.ai"),
			ClientID:     getEnv("PLUGGY_CLIENT_ID", ""),
			ClientSecret: getEnv("PLUGGY_CLIENT_SECRET", ""),
			Timeout:      pluggyTimeout,
		},
		Sync: SyncConfig{
			LookbackMonths:   lookback,
			SchedulerEnabled: getBoolEnv("SCHEDULER_ENABLED", true),
			InitialDelay:     initialDelay,
			Interval:         interval,
			WorkerCount:      workers,
			QueueSize:        queueSize,
			JobTimeout:       jobTimeout,
		},
		Goals: GoalsConfig{
			IncomeShare: incomeShare,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Notifications: NotificationsConfig{
			MessagesFile: getEnv("NOTIFICATION_MESSAGES_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "poupa-api"),
			Environment:  getEnv("OTEL_ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", "9464"),
		},
	}

	// Validate required fields
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Pluggy.ClientID == "" || cfg.Pluggy.ClientSecret == "" {
		return nil, fmt.Errorf("PLUGGY_CLIENT_ID and PLUGGY_CLIENT_SECRET are required")
	}
	if cfg.Sync.WorkerCount < 1 {
		return nil, fmt.Errorf("SYNC_WORKERS must be at least 1")
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
