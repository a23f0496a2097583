package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/riskcast-api/internal/service/accident"
	"github.com/jwalitptl/riskcast-api/internal/weather"
	"github.com/jwalitptl/riskcast-api/pkg/logger"
	"github.com/jwalitptl/riskcast-api/pkg/messaging/redis"
	"github.com/jwalitptl/riskcast-api/pkg/scoring"
)

const envPrefix = "RISKCAST"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Models    ModelsConfig    `mapstructure:"models"`
	Hospital  HospitalConfig  `mapstructure:"hospital"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type ModelsConfig struct {
	StayDays  string `mapstructure:"stay_days"`
	StayBlock string `mapstructure:"stay_block"`
	Accident  string `mapstructure:"accident"`
}

type HospitalConfig struct {
	DemoBypass bool `mapstructure:"demo_bypass"`
}

type WeatherConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Latitude        float64       `mapstructure:"lat"`
	Longitude       float64       `mapstructure:"lon"`
	Units           string        `mapstructure:"units"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	HorizonDays     int           `mapstructure:"horizon_days"`
	Timezone        string        `mapstructure:"timezone"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

// secrets are read only from the environment and override the file.
type secrets struct {
	WeatherAPIKey string `envconfig:"WEATHER_API_KEY"`
	RedisURL      string `envconfig:"REDIS_URL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("models.stay_days", "models/stay_days.json")
	v.SetDefault("models.stay_block", "models/stay_block.json")
	v.SetDefault("models.accident", "models/accident.json")

	v.SetDefault("hospital.demo_bypass", false)

	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5/forecast")
	v.SetDefault("weather.lat", 18.4861)
	v.SetDefault("weather.lon", -69.9312)
	v.SetDefault("weather.units", "metric")
	v.SetDefault("weather.timeout", 5*time.Second)
	v.SetDefault("weather.cache_ttl", 10*time.Minute)
	v.SetDefault("weather.horizon_days", accident.DefaultHorizonDays)
	v.SetDefault("weather.timezone", "America/Santo_Domingo")
	v.SetDefault("weather.breaker_failures", 5)
	v.SetDefault("weather.breaker_timeout", 30*time.Second)

	v.SetDefault("redis.channel", "riskcast.hospital.ingested")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
}

// LoadConfig reads config.yml from the usual locations. A missing file is not
// an error; defaults and environment variables still apply.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load reads the config from file when set, otherwise searches for config.yml.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var s secrets
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if s.WeatherAPIKey != "" {
		cfg.Weather.APIKey = s.WeatherAPIKey
	}
	if s.RedisURL != "" {
		cfg.Redis.URL = s.RedisURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Weather.HorizonDays <= 0 {
		return fmt.Errorf("weather.horizon_days must be positive")
	}
	if _, err := time.LoadLocation(c.Weather.Timezone); err != nil {
		return fmt.Errorf("weather.timezone: %w", err)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit needs positive requests_per_second and burst")
	}
	return nil
}

// Location returns the timezone target dates are interpreted in.
func (c *WeatherConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *WeatherConfig) ToClientConfig() weather.Config {
	return weather.Config{
		BaseURL:         c.BaseURL,
		APIKey:          c.APIKey,
		Latitude:        c.Latitude,
		Longitude:       c.Longitude,
		Units:           c.Units,
		Timeout:         c.Timeout,
		CacheTTL:        c.CacheTTL,
		BreakerFailures: c.BreakerFailures,
		BreakerTimeout:  c.BreakerTimeout,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func (c *ModelsConfig) ToPaths() scoring.Paths {
	return scoring.Paths{
		StayDays:  c.StayDays,
		StayBlock: c.StayBlock,
		Accident:  c.Accident,
	}
}

func (c *LogConfig) ToLoggerConfig() *logger.Config {
	return &logger.Config{
		Level:  c.Level,
		Format: c.Format,
	}
}
