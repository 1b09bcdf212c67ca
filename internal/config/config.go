package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var ErrBadServerURL = errors.New("server_url must be an absolute http(s) url")

type ReconnectConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
}

type CanvasConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`

	ServerURL    string          `mapstructure:"server_url"`
	WSPath       string          `mapstructure:"ws_path"`
	APITimeout   time.Duration   `mapstructure:"api_timeout"`
	Reconnect    ReconnectConfig `mapstructure:"reconnect"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	PingPeriod   time.Duration   `mapstructure:"ping_period"`
	SendBuffer   int             `mapstructure:"send_buffer"`

	SelectionMode       string        `mapstructure:"selection_mode"`
	TickInterval        time.Duration `mapstructure:"tick_interval"`
	RoomRefreshInterval time.Duration `mapstructure:"room_refresh_interval"`
	DefaultLevelCount   int           `mapstructure:"default_level_count"`
	DefaultLevelSeconds int           `mapstructure:"default_level_duration"`

	ControlAddr       string        `mapstructure:"control_addr"`
	ControlRateLimit  int           `mapstructure:"control_rate_limit"`
	ControlRateWindow time.Duration `mapstructure:"control_rate_window"`
	Canvas            CanvasConfig  `mapstructure:"canvas"`
	ShareQR           bool          `mapstructure:"share_qr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("ws_path", "/game-websocket")
	v.SetDefault("api_timeout", "10s")
	v.SetDefault("reconnect.max_attempts", 5)
	v.SetDefault("reconnect.base_delay", "1s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("selection_mode", "adjacent")
	v.SetDefault("tick_interval", "1s")
	v.SetDefault("room_refresh_interval", "5s")
	v.SetDefault("default_level_count", 10)
	v.SetDefault("default_level_duration", 30)
	v.SetDefault("control_addr", "")
	v.SetDefault("control_rate_limit", 50)
	v.SetDefault("control_rate_window", "1s")
	v.SetDefault("canvas.width", 480)
	v.SetDefault("canvas.height", 480)
	v.SetDefault("share_qr", true)
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults when the
// file is missing. WORDBRAIN_* environment variables (optionally from .env)
// override file values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Str("module", "config").Msg("loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.SetEnvPrefix("WORDBRAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").
		Str("mode", cfg.Mode).
		Str("server", cfg.ServerURL).
		Str("selection", cfg.SelectionMode).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrBadServerURL, c.ServerURL)
	}
	if c.SelectionMode != "adjacent" && c.SelectionMode != "free" {
		return fmt.Errorf("unknown selection_mode %q", c.SelectionMode)
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must not be negative")
	}
	return nil
}

// WebSocketURL maps the server origin onto the persistent connection endpoint:
// http becomes ws, https becomes wss.
func (c *Config) WebSocketURL() (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadServerURL, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("%w: %q", ErrBadServerURL, c.ServerURL)
	}
	u.Path = c.WSPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
