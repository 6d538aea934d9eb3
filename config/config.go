package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// ServerConfig holds the HTTP and gRPC listener settings
type ServerConfig struct {
	Port            string
	GRPCPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// Enabled reports whether a redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

type NATSConfig struct {
	URL           string
	ClientID      string
	MaxReconnects int
	ReconnectWait time.Duration
}

func (c NATSConfig) Enabled() bool {
	return c.URL != ""
}

// AIConfig configures the chat completion client.
type AIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	RateLimit int
	RateBurst int
}

type AuthConfig struct {
	JWTSecret string
}

type LogConfig struct {
	Level  string
	Format string
}

// Config is the full process configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Redis    RedisConfig
	NATS     NATSConfig
	AI       AIConfig
	Auth     AuthConfig
	Log      LogConfig
}

// Load reads every configuration section from the environment.
func Load() (*Config, error) {
	dbCfg, err := LoadDatabaseConfig("")
	if err != nil {
		return nil, err
	}

	redisCfg, err := LoadRedisConfig()
	if err != nil {
		return nil, err
	}

	authCfg := LoadAuthConfig()
	if authCfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Database: *dbCfg,
		Server:   LoadServerConfig(),
		Redis:    *redisCfg,
		NATS:     LoadNATSConfig(),
		AI:       LoadAIConfig(),
		Auth:     authCfg,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// LoadDatabaseConfig loads database configuration from environment variables
func LoadDatabaseConfig(prefix string) (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{
		URL:          getEnv(prefix+"DATABASE_URL", ""),
		Host:         getEnv(prefix+"DB_HOST", "postgres"),
		User:         getEnv(prefix+"DB_USER", "postgres"),
		Password:     getEnv(prefix+"DB_PASSWORD", "postgres"),
		DBName:       getEnv(prefix+"DB_NAME", "afusocial"),
		SSLMode:      getEnv(prefix+"DB_SSLMODE", "disable"),
		MaxOpenConns: getEnvAsInt(prefix+"DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns: getEnvAsInt(prefix+"DB_MAX_IDLE_CONNS", 5),
		MaxLifetime:  getEnvAsDuration(prefix+"DB_MAX_LIFETIME", 5*time.Minute),
	}

	var err error
	cfg.Port, err = strconv.Atoi(getEnv(prefix+"DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid database port: %w", err)
	}

	if cfg.URL == "" && cfg.DBName == "" {
		return nil, fmt.Errorf("database name is required (set %sDB_NAME)", prefix)
	}

	return cfg, nil
}

func LoadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "5000"),
		GRPCPort:        getEnv("GRPC_PORT", "50059"),
		ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func LoadRedisConfig() (*RedisConfig, error) {
	db := getEnvAsInt("REDIS_DB", 0)
	if db < 0 {
		return nil, fmt.Errorf("invalid redis db index: %d", db)
	}
	return &RedisConfig{
		URL:      getEnv("REDIS_URL", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}, nil
}

func LoadNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           getEnv("NATS_URL", ""),
		ClientID:      getEnv("NATS_CLIENT_ID", "afusocial-api"),
		MaxReconnects: getEnvAsInt("NATS_MAX_RECONNECTS", 10),
		ReconnectWait: getEnvAsDuration("NATS_RECONNECT_WAIT", 2*time.Second),
	}
}

func LoadAIConfig() AIConfig {
	return AIConfig{
		APIKey:    getEnv("OPENAI_API_KEY", ""),
		BaseURL:   getEnv("OPENAI_BASE_URL", ""),
		Model:     getEnv("OPENAI_MODEL", "gpt-4o"),
		Timeout:   getEnvAsDuration("AI_TIMEOUT", 30*time.Second),
		RateLimit: getEnvAsInt("AI_RATE_LIMIT", 1),
		RateBurst: getEnvAsInt("AI_RATE_BURST", 5),
	}
}

func LoadAuthConfig() AuthConfig {
	return AuthConfig{JWTSecret: getEnv("JWT_SECRET", "")}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
