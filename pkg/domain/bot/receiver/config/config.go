package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
	"gopkg.in/yaml.v3"
)

var DefaultPath = filepath.Join("cmd/bot/etc", "app.yml")

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	APIBaseURL     string        `yaml:"api_base_url" validate:"required,url"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	PageSize       int           `yaml:"page_size" validate:"gte=1,lte=20"`
	SettleDelay    time.Duration `yaml:"settle_delay" validate:"gte=0"`

	SessionBackend string        `yaml:"session_backend" validate:"required,oneof=memory redis postgres"`
	RedisAddr      string        `yaml:"redis_addr" validate:"required_if=SessionBackend redis"`
	SessionTTL     time.Duration `yaml:"session_ttl" validate:"gte=0"`
	PostgreAddr    string        `yaml:"postgre_addr" validate:"required_if=SessionBackend postgres"`

	HTTPPort    int    `yaml:"http_port" validate:"required,gte=1,lte=65535"`
	WorkerCount int    `yaml:"worker_count" validate:"required,gte=1"`
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`

	// Loaded from the environment / .env.
	BotToken        string `yaml:"-"`
	NotifyChannelID string `yaml:"-"`
}

func defaults() Config {
	return Config{
		RequestTimeout: 15 * time.Second,
		PageSize:       3,
		SettleDelay:    300 * time.Millisecond,
		SessionBackend: BackendMemory,
		HTTPPort:       8080,
		WorkerCount:    4,
		LogLevel:       "info",
	}
}

// LoadConfig reads the YAML file at path (DefaultPath when empty) and the
// bot secrets from the environment. A missing .env file is not an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New("failed to read config file").Arg("path", path).Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.New("failed to load .env").Wrap(err)
	}
	cfg.BotToken = os.Getenv("TG_TOKEN")
	if cfg.BotToken == "" {
		return nil, errs.New("empty token").WithKind(errs.KindValidation)
	}
	cfg.NotifyChannelID = os.Getenv("TG_CHANNEL_ID")

	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.New("failed to unmarshal YAML").Wrap(err)
	}

	// Validate
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errs.New("config validation failed").WithKind(errs.KindValidation).Wrap(err)
	}
	return &cfg, nil
}
