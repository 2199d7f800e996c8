package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MailConfig holds transactional email (Resend) configuration.
// Sending is disabled when APIKey or FromEmail is empty.
type MailConfig struct {
	APIKey    string
	FromEmail string
	BaseURL   string
}

// LLMConfig holds the chat-completion provider configuration.
type LLMConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
}

// StripeConfig holds payment provider configuration
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	APIBase       string
	PriceStarter  string
	PriceGrowth   string
	PricePremium  string
}

// AppConfig holds product-level settings
type AppConfig struct {
	FrontendBaseURL    string
	SuperAdminEmail    string
	SuperAdminPassword string
	SuperAdminName     string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Mail        MailConfig
	LLM         LLMConfig
	Stripe      StripeConfig
	App         AppConfig
}

// Load loads configuration from the .env file and environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", serviceName),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("BACKEND_JWT_SECRET", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Mail: MailConfig{
			APIKey:    getEnv("RESEND_API_KEY", ""),
			FromEmail: getEnv("RESEND_FROM_EMAIL", ""),
			BaseURL:   getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		},
		LLM: LLMConfig{
			APIKey:       getEnv("GROQ_API_KEY", ""),
			BaseURL:      getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			DefaultModel: getEnv("GROQ_DEFAULT_MODEL", "llama-3.1-70b-versatile"),
			Timeout:      getEnvAsDuration("GROQ_TIMEOUT", 30*time.Second),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			APIBase:       getEnv("STRIPE_API_BASE", "https://api.stripe.com/v1"),
			PriceStarter:  getEnv("STRIPE_PRICE_STARTER", ""),
			PriceGrowth:   getEnv("STRIPE_PRICE_GROWTH", ""),
			PricePremium:  getEnv("STRIPE_PRICE_PREMIUM", ""),
		},
		App: AppConfig{
			FrontendBaseURL:    getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
			SuperAdminEmail:    getEnv("SUPER_ADMIN_EMAIL", ""),
			SuperAdminPassword: getEnv("SUPER_ADMIN_PASSWORD", ""),
			SuperAdminName:     getEnv("SUPER_ADMIN_NAME", "Platform Admin"),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as zap fields for startup logging
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("mail_enabled", c.Mail.APIKey != ""),
		zap.Bool("stripe_enabled", c.Stripe.SecretKey != ""),
		zap.Bool("llm_enabled", c.LLM.APIKey != ""),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	switch getEnv(key, "") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
