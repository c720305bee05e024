// Package config reads probe settings from PROBE_* environment variables and
// an optional probe.{toml,yaml,json} file in the working directory.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"apiprobe/internal/backend"
)

type Config struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	LoginPath     string        `mapstructure:"login_path" validate:"required,startswith=/"`
	LocationsPath string        `mapstructure:"locations_path" validate:"required,startswith=/"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Every         time.Duration `mapstructure:"every" validate:"gte=0"`

	Log      Log      `mapstructure:"log"`
	S3       S3       `mapstructure:"s3"`
	Postgres Postgres `mapstructure:"postgres"`
	SQLite   SQLite   `mapstructure:"sqlite"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Feishu   Feishu   `mapstructure:"feishu"`
}

type Log struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
}

type S3 struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key" validate:"required_with=Endpoint"`
	SecretKey string `mapstructure:"secret_key" validate:"required_with=Endpoint"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket" validate:"required_with=Endpoint"`
}

func (s S3) Enabled() bool { return s.Endpoint != "" }

type Postgres struct {
	DSN string `mapstructure:"dsn"`
}

func (p Postgres) Enabled() bool { return p.DSN != "" }

type SQLite struct {
	Path string `mapstructure:"path"`
}

func (s SQLite) Enabled() bool { return s.Path != "" }

type Kafka struct {
	Broker  string `mapstructure:"broker"`
	Topic   string `mapstructure:"topic" validate:"required_with=Broker"`
	GroupID string `mapstructure:"group_id"`
}

func (k Kafka) Enabled() bool { return k.Broker != "" }

type Feishu struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret" validate:"required_with=AppID"`
	// Receiver is "<receive_id_type>:<receive_id>", e.g. "chat_id:oc_123".
	Receiver string `mapstructure:"receiver" validate:"required_with=AppID,omitempty,contains=:"`
}

func (f Feishu) Enabled() bool { return f.AppID != "" }

// New returns a viper instance with defaults, env binding and the optional
// config file search path set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("base_url", "http://localhost:8000")
	v.SetDefault("login_path", backend.DefaultLoginPath)
	v.SetDefault("locations_path", backend.DefaultLocationsPath)
	v.SetDefault("username", "your_username")
	v.SetDefault("password", "your_password")
	v.SetDefault("timeout", 0)
	v.SetDefault("every", 0)
	v.SetDefault("log.level", "info")

	// Sink keys have empty defaults so AutomaticEnv can see them during
	// Unmarshal.
	for _, key := range []string{
		"s3.endpoint", "s3.access_key", "s3.secret_key", "s3.bucket",
		"postgres.dsn", "sqlite.path",
		"kafka.broker", "kafka.topic", "kafka.group_id",
		"feishu.app_id", "feishu.app_secret", "feishu.receiver",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("s3.use_ssl", false)

	v.SetEnvPrefix("PROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("probe")
	v.AddConfigPath(".")
	return v
}

// Load reads the optional config file into v, then unmarshals and validates.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
