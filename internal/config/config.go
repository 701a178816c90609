package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Загрузка конфигурации: .env (godotenv) -> config.yaml (cleanenv) -> переменные окружения

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Nomics    NomicsConfig    `yaml:"nomics"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Logger    LoggerConfig    `yaml:"logger"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" env:"HTTP_ENABLED" env-default:"false"`
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type SchedulerConfig struct {
	Interval      time.Duration `yaml:"interval" env:"REPORT_INTERVAL" env-default:"1h"`
	SkipResume    bool          `yaml:"skip_resume" env:"SCHEDULER_SKIP_RESUME"` // не поднимать авторассылку всем чатам при старте
}

type StorageConfig struct {
	Driver       string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"` // file|postgres
	Path         string `yaml:"path" env:"WATCHLIST_PATH" env-default:"chats_db"`
	SaveAttempts int    `yaml:"save_attempts" env-default:"3"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"` // debug|info|warn|error
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"` // text|json
}

type PostgresConfig struct {
	Host            string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"POSTGRES_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"postgres"`
	DBName          string        `yaml:"dbname" env:"POSTGRES_DB" env-default:"crypto"`
	SSLMode         string        `yaml:"sslmode" env-default:"disable"`
	Timeout         time.Duration `yaml:"timeout" env-default:"5s"`
	MaxConns        int32         `yaml:"max_conns" env-default:"4"`
	MinConns        int32         `yaml:"min_conns" env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"30m"`
}

type NomicsConfig struct {
	BaseURL   string        `yaml:"base_url" env:"NOMICS_BASE_URL" env-default:"https://api.nomics.com/v1"`
	Token     string        `yaml:"token" env:"NOMICS_API_KEY"`
	TokenFile string        `yaml:"token_file" env:"NOMICS_TOKEN_FILE"`
	Convert   string        `yaml:"convert" env-default:"EUR"`
	PerPage   int           `yaml:"per_page" env-default:"100"`
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
	RateLimit float64       `yaml:"rate_limit" env-default:"1"` // запросов в секунду
	UserAgent string        `yaml:"user_agent" env-default:"crypto-watchlist-bot/1.0"`
}

type TelegramConfig struct {
	Token           string        `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	TokenFile       string        `yaml:"token_file" env:"TELEGRAM_TOKEN_FILE"`
	LongPollTimeout time.Duration `yaml:"long_poll_timeout" env-default:"10s"`
}

type WatchlistConfig struct {
	DefaultSymbols []string `yaml:"default_symbols" env:"DEFAULT_SYMBOLS" env-default:"BTC,ETH,BNB,ADA"`
}

// LoadConfig - собирает конфигурацию. envPath может не существовать, configPath может быть пустым.
func LoadConfig(configPath, envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envPath, err)
		}
	}

	cfg := &Config{}
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveSecrets - токены можно передать напрямую или путём к файлу (как TOKEN_TEL / TOKEN_CRYPTO)
func (c *Config) resolveSecrets() error {
	var err error
	if c.Telegram.Token, err = secret(c.Telegram.Token, c.Telegram.TokenFile); err != nil {
		return fmt.Errorf("telegram token: %w", err)
	}
	if c.Nomics.Token, err = secret(c.Nomics.Token, c.Nomics.TokenFile); err != nil {
		return fmt.Errorf("nomics token: %w", err)
	}
	return nil
}

func secret(value, path string) (string, error) {
	value = strings.TrimSpace(value)
	if value != "" || path == "" {
		return value, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram token is empty: set TELEGRAM_BOT_TOKEN or telegram.token_file")
	}
	if c.Nomics.Token == "" {
		return errors.New("nomics token is empty: set NOMICS_API_KEY or nomics.token_file")
	}
	switch c.Storage.Driver {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "file" && strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path is empty")
	}
	if len(c.Watchlist.DefaultSymbols) == 0 {
		return errors.New("watchlist.default_symbols is empty")
	}
	return nil
}
