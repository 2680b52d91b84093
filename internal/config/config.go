package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig   // Настройки HTTP сервера
	Database DatabaseConfig // Настройки подключения к БД
	JWT      JWTConfig      // Настройки JWT авторизации
	Redis    RedisConfig    // Хранилище claim'ов для вебхуков
	Log      LogConfig      // Настройки логирования
	Slack    SlackConfig    // Канал уведомлений в Slack
	SES      SESConfig      // Email уведомления через AWS SES
	Webhooks WebhookConfig  // Секреты для проверки подписей вебхуков
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" default:"8080"`
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"member_crm"`
	Password string `envconfig:"DB_PASSWORD" default:"member_crm_pass"`
	Name     string `envconfig:"DB_NAME" default:"member_crm"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`
}

// JWTConfig содержит настройки JWT авторизации
type JWTConfig struct {
	Secret          string `envconfig:"JWT_SECRET" required:"true"`
	ExpirationHours int    `envconfig:"JWT_EXPIRATION_HOURS" default:"24"`
}

// RedisConfig содержит настройки Redis. Пустой адрес означает хранение claim'ов в PostgreSQL
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	ClaimTTL time.Duration `envconfig:"REDIS_CLAIM_TTL" default:"72h"`
}

// LogConfig содержит уровень и формат логов
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// SlackConfig содержит адрес incoming webhook'а для уведомлений команды
type SlackConfig struct {
	WebhookURL string        `envconfig:"SLACK_WEBHOOK_URL"`
	Timeout    time.Duration `envconfig:"SLACK_TIMEOUT" default:"5s"`
}

// SESConfig содержит настройки отправки писем
type SESConfig struct {
	Region     string   `envconfig:"SES_REGION"`
	From       string   `envconfig:"SES_FROM"`
	Recipients []string `envconfig:"SES_RECIPIENTS"`
}

// WebhookConfig содержит секреты провайдеров. Пустой секрет отключает проверку подписи
type WebhookConfig struct {
	TypeformSecret     string `envconfig:"TYPEFORM_SECRET"`
	CalendlySigningKey string `envconfig:"CALENDLY_SIGNING_KEY"`
	WasenderSecret     string `envconfig:"WASENDER_SECRET"`
	SamCartSecret      string `envconfig:"SAMCART_SECRET"`
	SlackSigningSecret string `envconfig:"SLACK_SIGNING_SECRET"`
	MaxBodyBytes       int64  `envconfig:"WEBHOOK_MAX_BODY_BYTES" default:"1048576"`
}

// GetExpiration возвращает срок действия токена как time.Duration
func (j JWTConfig) GetExpiration() time.Duration {
	return time.Duration(j.ExpirationHours) * time.Hour
}

// DSN возвращает строку подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Enabled сообщает, настроен ли Redis
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// Enabled сообщает, настроена ли отправка писем
func (s SESConfig) Enabled() bool {
	return s.Region != "" && s.From != ""
}

// LoadDatabase читает только настройки БД. Используется CLI, которому не нужны JWT и вебхуки
func LoadDatabase() (*DatabaseConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var db DatabaseConfig
	if err := envconfig.Process("", &db); err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}
	return &db, nil
}

// Load читает конфигурацию из .env (если файл есть) и переменных окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
