package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/temperature-dashboard/internal/common"
)

const defaultConfigFile = "config/config.yaml"

// Config is the full application configuration.
// Values come from defaults, then the YAML file, then the environment.
type Config struct {
	App       AppConfig       `yaml:"app" envconfig:"APP"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Log       LogConfig       `yaml:"log" envconfig:"LOG"`
	Upstream  UpstreamConfig  `yaml:"upstream" envconfig:"UPSTREAM"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
}

type AppConfig struct {
	Name string `yaml:"name" envconfig:"NAME" validate:"required"`
	Env  string `yaml:"env" envconfig:"ENV" validate:"oneof=development staging production test"`
}

type ServerConfig struct {
	Port         string        `yaml:"port" envconfig:"PORT" validate:"required,numeric"`
	UIPort       string        `yaml:"ui_port" envconfig:"UI_PORT" validate:"required,numeric,nefield=Port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
}

// UpstreamConfig describes the departments and temperatures APIs.
type UpstreamConfig struct {
	DepartmentsURL  string        `yaml:"departments_url" envconfig:"DEPARTMENTS_URL" validate:"required,url"`
	TemperaturesURL string        `yaml:"temperatures_url" envconfig:"TEMPERATURES_URL" validate:"required,url"`
	Dataset         string        `yaml:"dataset" envconfig:"DATASET" validate:"required"`
	PageSize        int           `yaml:"page_size" envconfig:"PAGE_SIZE" validate:"min=1,max=100"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	MaxRetries      int           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"min=0,max=10"`
	BackoffInitial  time.Duration `yaml:"backoff_initial" envconfig:"BACKOFF_INITIAL" validate:"gt=0"`
	BackoffMax      time.Duration `yaml:"backoff_max" envconfig:"BACKOFF_MAX" validate:"gtefield=BackoffInitial"`
}

// DashboardConfig holds the behaviour of the dashboard itself.
type DashboardConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL" validate:"gte=1m"`
	HistoryMonths   int           `yaml:"history_months" envconfig:"HISTORY_MONTHS" validate:"min=1,max=24"`
	// HistoryCacheSize caps cached history windows; 0 disables the cache.
	HistoryCacheSize int           `yaml:"history_cache_size" envconfig:"HISTORY_CACHE_SIZE" validate:"min=0"`
	HistoryCacheTTL  time.Duration `yaml:"history_cache_ttl" envconfig:"HISTORY_CACHE_TTL" validate:"gte=0"`
	// DefaultDate is the initially selected date (YYYY-MM-DD). Empty means yesterday.
	DefaultDate string `yaml:"default_date" envconfig:"DEFAULT_DATE" validate:"omitempty,datetime=2006-01-02"`
}

var validate = validator.New()

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		App: AppConfig{
			Name: "temperature-dashboard",
			Env:  "development",
		},
		Server: ServerConfig{
			Port:         "8080",
			UIPort:       "8081",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Upstream: UpstreamConfig{
			DepartmentsURL:  "https://geo.api.gouv.fr",
			TemperaturesURL: "https://odre.opendatasoft.com",
			Dataset:         "temperature-quotidienne-departementale",
			PageSize:        100,
			Timeout:         10 * time.Second,
			MaxRetries:      3,
			BackoffInitial:  500 * time.Millisecond,
			BackoffMax:      5 * time.Second,
		},
		Dashboard: DashboardConfig{
			RefreshInterval:  30 * time.Minute,
			HistoryMonths:    3,
			HistoryCacheSize: 200,
			HistoryCacheTTL:  10 * time.Minute,
		},
	}
}

// Load reads .env, the YAML file named by CONFIG_FILE (config/config.yaml by default),
// then the environment, and validates the result. A missing file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	return LoadFile(path)
}

// LoadFile is Load without the .env step, reading YAML from path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// InitialDate returns the configured default date, or the day before now.
func (c *Config) InitialDate(now time.Time) (time.Time, error) {
	if c.Dashboard.DefaultDate == "" {
		return common.StartOfDay(now).AddDate(0, 0, -1), nil
	}
	return common.ParseDay(c.Dashboard.DefaultDate)
}
