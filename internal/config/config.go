package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"go-vis-pipeline/internal/ingest"
	"go-vis-pipeline/internal/logger"
)

// EnvPrefix is stripped from environment variables before they are mapped
// to configuration paths (PIPELINE_SERVER_PORT -> server.port).
const EnvPrefix = "PIPELINE_"

type Config struct {
	Server ServerConfig `koanf:"server"`
	Store  StoreConfig  `koanf:"store"`
	Log    LogConfig    `koanf:"log"`
	Fetch  FetchConfig  `koanf:"fetch"`
	Export ExportConfig `koanf:"export"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
}

type StoreConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error disabled"`
	JSON  bool   `koanf:"json"`
}

// FetchConfig controls remote source downloads
type FetchConfig struct {
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	Retries      int           `koanf:"retries" validate:"min=0,max=10"`
	RetryWait    time.Duration `koanf:"retry_wait" validate:"gte=0"`
	RetryMaxWait time.Duration `koanf:"retry_max_wait" validate:"gte=0"`
}

type ExportConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

func Default() *Config {
	fetch := ingest.DefaultFetchConfig()
	return &Config{
		Server: ServerConfig{Host: "", Port: 8080},
		Store:  StoreConfig{Path: "pipeline.db"},
		Log:    LogConfig{Level: string(logger.InfoLevel)},
		Fetch: FetchConfig{
			Timeout:      fetch.Timeout,
			Retries:      fetch.Retries,
			RetryWait:    fetch.RetryWait,
			RetryMaxWait: fetch.RetryMaxWait,
		},
		Export: ExportConfig{Dir: "output"},
	}
}

// Addr is the listen address of the HTTP server
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.LogLevel(c.Log.Level)
	cfg.JSON = c.Log.JSON
	return cfg
}

func (c *Config) FetchConfig() ingest.FetchConfig {
	return ingest.FetchConfig{
		Timeout:      c.Fetch.Timeout,
		Retries:      c.Fetch.Retries,
		RetryWait:    c.Fetch.RetryWait,
		RetryMaxWait: c.Fetch.RetryMaxWait,
	}
}

// envKey maps PIPELINE_FETCH_RETRY_WAIT to fetch.retry_wait
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' })
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

// Load builds the configuration from defaults overlaid with PIPELINE_*
// environment variables and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}
