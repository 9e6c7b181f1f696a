// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string   `yaml:"env" env:"PORTAL_ENV" env-default:"local"`
	StorageConnectionString string   `yaml:"storage_connection_string" env:"PORTAL_DATABASE_URL"`
	MigrationsPath          string   `yaml:"migrations_path" env-default:"./migrations"`
	AdminEmails             []string `yaml:"admin_emails" env:"PORTAL_ADMIN_EMAILS" env-separator:","`
	HTTPServer              `yaml:"http_server"`
	GRPCServer              `yaml:"grpc_server"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Session                 `yaml:"session"`
	OAuth                   `yaml:"oauth"`
	Uploads                 `yaml:"uploads"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// GRPCServer адрес gRPC сервера проверки здоровья. Пустой адрес отключает сервер.
type GRPCServer struct {
	AddressGRPC string `yaml:"addressgrpc"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"PORTAL_REDIS_ADDR"`
	Password     string        `yaml:"password" env:"PORTAL_REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ настройки подключения к брокеру. Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"PORTAL_RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера для notifier.
type SMTP struct {
	SMTPHost     string `yaml:"host" env:"PORTAL_SMTP_HOST"`
	SMTPPort     string `yaml:"port" env:"PORTAL_SMTP_PORT" env-default:"587"`
	SMTPUser     string `yaml:"user" env:"PORTAL_SMTP_USER"`
	SMTPPassword string `yaml:"password" env:"PORTAL_SMTP_PASSWORD"`
}

// Session структура для работы с jwt-токеном сессии
type Session struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"PORTAL_JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"720h"`
	CookieName   string        `yaml:"cookie_name" env-default:"portal_session"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// OAuth настройки входа через Google.
type OAuth struct {
	GoogleClientID     string `yaml:"google_client_id" env:"PORTAL_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `yaml:"google_client_secret" env:"PORTAL_GOOGLE_CLIENT_SECRET"`
	RedirectURL        string `yaml:"redirect_url"`
	AfterLoginURL      string `yaml:"after_login_url" env-default:"/"`
}

// Uploads настройки хранения загруженных файлов.
type Uploads struct {
	Dir             string        `yaml:"dir" env-default:"./public/uploads"`
	PublicPrefix    string        `yaml:"public_prefix" env-default:"/uploads"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env-default:"33554432"`
	PendingGrace    time.Duration `yaml:"pending_grace" env-default:"1h"`
	JanitorSchedule string        `yaml:"janitor_schedule" env-default:"@every 15m"`
}

// RateLimit ограничение запросов на одного пользователя.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"10"`
	Burst int     `yaml:"burst" env-default:"20"`
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла и переменных окружения.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file: %s - does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.StorageConnectionString == "" {
		return errors.New("storage_connection_string is required")
	}
	if len(c.JWTSecretKey) < 16 {
		return errors.New("session.jwt_secret_key must be at least 16 characters")
	}
	for i, email := range c.AdminEmails {
		c.AdminEmails[i] = strings.ToLower(strings.TrimSpace(email))
	}
	return nil
}

// IsBootstrapAdmin сообщает, получает ли новый пользователь с этим email роль admin.
func (c *Config) IsBootstrapAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"AdminEmails: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"GRPCServer:\n"+
			"  Address: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"Session:\n"+
			"  TokenTTL: %s\n"+
			"  CookieName: %s\n"+
			"Uploads:\n"+
			"  Dir: %s\n"+
			"  PublicPrefix: %s\n"+
			"  JanitorSchedule: %s\n",
		c.Env,
		c.MigrationsPath,
		strings.Join(c.AdminEmails, ","),
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressGRPC,
		c.AddressRedis,
		c.DB,
		c.RabbitMQURL != "",
		c.TokenTTL,
		c.CookieName,
		c.Dir,
		c.PublicPrefix,
		c.JanitorSchedule,
	)
}
