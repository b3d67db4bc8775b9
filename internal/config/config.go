package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-envconfig"

	"breather/internal/conditions"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	AirVisual AirVisualConfig `env:", prefix=AIRVISUAL_"`
	Location  LocationConfig  `env:", prefix=LOCATION_"`

	// FetchTimeout bounds a single AirVisual request.
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT, default=30s"`
	// RefreshInterval is the background polling period; 0 disables polling.
	RefreshInterval time.Duration          `env:"REFRESH_INTERVAL, default=10m"`
	DisplayMode     conditions.DisplayMode `env:"DISPLAY_MODE, default=us"`
	// BandsFile optionally overrides the color and label tables (YAML).
	BandsFile string `env:"BANDS_FILE"`

	MQTT MQTTConfig `env:", prefix=MQTT_"`
}

type AirVisualConfig struct {
	BaseURL string `env:"BASE_URL, default=https://api.airvisual.com/v2"`
	// APIKey empty means the bundled sample snapshot is served instead.
	APIKey string `env:"API_KEY"`
}

type LocationConfig struct {
	Lat float64 `env:"LAT, default=40.676906"`
	Lon float64 `env:"LON, default=-73.942275"`
}

type MQTTConfig struct {
	Enabled     bool   `env:"ENABLED, default=false"`
	Broker      string `env:"BROKER, default=localhost"`
	Port        int    `env:"PORT, default=1883"`
	ClientID    string `env:"CLIENT_ID"`
	TopicPrefix string `env:"TOPIC_PREFIX, default=breather"`
}

// LoadFromEnv reads the process environment. A .env file, if any, must be
// loaded by the caller beforehand.
func LoadFromEnv(ctx context.Context) (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	cfg := Config{
		AppEnv:   appEnv,
		LogLevel: level,
		HTTPAddr: httpAddr,
	}
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	cfg.AirVisual.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.AirVisual.BaseURL), "/")
	cfg.AirVisual.APIKey = strings.TrimSpace(cfg.AirVisual.APIKey)
	cfg.MQTT.ClientID = strings.TrimSpace(cfg.MQTT.ClientID)
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "breather-" + uuid.NewString()
	}
	cfg.MQTT.TopicPrefix = strings.Trim(strings.TrimSpace(cfg.MQTT.TopicPrefix), "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.AirVisual.BaseURL == "" {
		errs = append(errs, errors.New("AIRVISUAL_BASE_URL must not be empty"))
	}
	if c.Location.Lat < -90 || c.Location.Lat > 90 {
		errs = append(errs, fmt.Errorf("invalid LOCATION_LAT %v (allowed: -90..90)", c.Location.Lat))
	}
	if c.Location.Lon < -180 || c.Location.Lon > 180 {
		errs = append(errs, fmt.Errorf("invalid LOCATION_LON %v (allowed: -180..180)", c.Location.Lon))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid FETCH_TIMEOUT %s (must be positive)", c.FetchTimeout))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("invalid REFRESH_INTERVAL %s (must not be negative)", c.RefreshInterval))
	}
	if c.MQTT.Enabled {
		if strings.TrimSpace(c.MQTT.Broker) == "" {
			errs = append(errs, errors.New("MQTT_BROKER must be set when MQTT_ENABLED=true"))
		}
		if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
			errs = append(errs, fmt.Errorf("invalid MQTT_PORT %d", c.MQTT.Port))
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, errors.New("MQTT_TOPIC_PREFIX must not be empty"))
		}
	}
	return errors.Join(errs...)
}

// UsesSampleData reports whether no API key is configured.
func (c Config) UsesSampleData() bool {
	return c.AirVisual.APIKey == ""
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
