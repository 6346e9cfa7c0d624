package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Trivia    TriviaConfig
	Challenge ChallengeConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int

	// AllowedOrigins: список origin'ов для CORS.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// MaxOpenConns: максимальное число открытых соединений пула.
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// MaxIdleConns: максимальное число простаивающих соединений пула.
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// ConnMaxLifetimeMin: максимальное время жизни соединения в минутах.
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_min"`
}

// ConnMaxLifetime возвращает время жизни соединения как time.Duration
func (d *DatabaseConfig) ConnMaxLifetime() time.Duration {
	if d.ConnMaxLifetimeMin <= 0 {
		return time.Hour
	}
	return time.Duration(d.ConnMaxLifetimeMin) * time.Minute
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single' (для обратной совместимости).
	// Используется, если Mode="single" и Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: Максимальное количество попыток переподключения (-1 - бесконечно). По умолчанию 0 (без ретраев).
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff: Минимальный интервал между попытками (в миллисекундах). По умолчанию 8ms.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff: Максимальный интервал между попытками (в миллисекундах). По умолчанию 512ms.
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// AuthConfig содержит настройки проверки токенов внешнего identity-провайдера.
// Сервис токены не выпускает — только проверяет.
type AuthConfig struct {
	// Issuer: ожидаемый iss в токене, например "https://culture-king.eu.auth0.com/".
	Issuer string `mapstructure:"issuer"`

	// Audience: ожидаемый aud в токене.
	Audience string `mapstructure:"audience"`

	// JWKSURL: адрес JWKS-эндпоинта провайдера.
	JWKSURL string `mapstructure:"jwks_url"`
}

// TriviaConfig содержит настройки внешнего источника вопросов
type TriviaConfig struct {
	// BaseURL: адрес API провайдера вопросов. По умолчанию https://opentdb.com/api.php.
	BaseURL string `mapstructure:"base_url"`

	// Category: категория вопросов провайдера (9 = General Knowledge).
	Category int `mapstructure:"category"`

	// MaxRetries: число попыток запроса к провайдеру. По умолчанию 3.
	MaxRetries int `mapstructure:"max_retries"`

	// RequestTimeout: таймаут одного запроса к провайдеру в секундах.
	RequestTimeout int `mapstructure:"request_timeout"`
}

// ChallengeConfig содержит игровые настройки дневного челленджа
type ChallengeConfig struct {
	// QuestionCount: размер дневного набора вопросов.
	QuestionCount int `mapstructure:"question_count"`

	// LeaderboardSize: число позиций в лидербордах.
	LeaderboardSize int `mapstructure:"leaderboard_size"`

	// StoreTimeout: таймаут одной операции с хранилищем в секундах.
	StoreTimeout int `mapstructure:"store_timeout"`
}

// StoreTimeoutDuration возвращает таймаут операций хранилища как time.Duration
func (c *ChallengeConfig) StoreTimeoutDuration() time.Duration {
	if c.StoreTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.StoreTimeout) * time.Second
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 10)
	vip.SetDefault("server.writetimeout", 10)
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("database.conn_max_lifetime_min", 60)
	vip.SetDefault("trivia.base_url", "https://opentdb.com/api.php")
	vip.SetDefault("trivia.category", 9)
	vip.SetDefault("trivia.max_retries", 3)
	vip.SetDefault("trivia.request_timeout", 10)
	vip.SetDefault("challenge.question_count", 5)
	vip.SetDefault("challenge.leaderboard_size", 10)
	vip.SetDefault("challenge.store_timeout", 5)

	// 2. Привязываем переменные окружения ЯВНО
	// Привязка для секции Server
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.readtimeout", "SERVER_READ_TIMEOUT")
	vip.BindEnv("server.writetimeout", "SERVER_WRITE_TIMEOUT")
	vip.BindEnv("server.allowed_origins", "SERVER_ALLOWED_ORIGINS")

	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	vip.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	vip.BindEnv("database.conn_max_lifetime_min", "DATABASE_CONN_MAX_LIFETIME_MIN")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS") // Для массива строк
	vip.BindEnv("redis.addr", "REDIS_ADDR")   // Для одиночной строки
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции Auth
	vip.BindEnv("auth.issuer", "AUTH_ISSUER")
	vip.BindEnv("auth.audience", "AUTH_AUDIENCE")
	vip.BindEnv("auth.jwks_url", "AUTH_JWKS_URL")

	// Привязка для секции Trivia
	vip.BindEnv("trivia.base_url", "TRIVIA_BASE_URL")
	vip.BindEnv("trivia.category", "TRIVIA_CATEGORY")
	vip.BindEnv("trivia.max_retries", "TRIVIA_MAX_RETRIES")
	vip.BindEnv("trivia.request_timeout", "TRIVIA_REQUEST_TIMEOUT")

	// Привязка для секции Challenge
	vip.BindEnv("challenge.question_count", "CHALLENGE_QUESTION_COUNT")
	vip.BindEnv("challenge.leaderboard_size", "CHALLENGE_LEADERBOARD_SIZE")
	vip.BindEnv("challenge.store_timeout", "CHALLENGE_STORE_TIMEOUT")

	// 3. Читаем конфигурационный файл (если есть)
	vip.SetConfigFile(configPath)
	if err := vip.ReadInConfig(); err != nil {
		// Файл не обязателен: конфигурация может прийти целиком из окружения
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.JWKSURL == "" {
		return nil, fmt.Errorf("auth.jwks_url is required")
	}

	return &cfg, nil
}
