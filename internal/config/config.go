package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Engine struct {
	GatewayURL      string        `mapstructure:"gateway_url"`
	Region          string        `mapstructure:"region"`
	AccessKey       string        `mapstructure:"access_key"`
	ClientID        string        `mapstructure:"client_id"`
	Token           string        `mapstructure:"token"`
	LogLevel        string        `mapstructure:"log_level"`
	ICEServers      []string      `mapstructure:"ice_servers"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	RegisterTimeout time.Duration `mapstructure:"register_timeout"`
}

type Session struct {
	Mailbox      int    `mapstructure:"mailbox"`
	Queue        int    `mapstructure:"queue"`
	CallPolicy   string `mapstructure:"call_policy"`
	Backpressure string `mapstructure:"backpressure"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Engine     Engine        `mapstructure:"engine"`
	Session    Session       `mapstructure:"session"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFrom(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFrom reads fileName. A missing file is not an error; CALLSESSION_*
// environment variables override both file and defaults.
func LoadFrom(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("callsession")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("engine.gateway_url", "ws://localhost:9000/gateway")
	v.SetDefault("engine.region", "0-2-0")
	v.SetDefault("engine.access_key", "")
	v.SetDefault("engine.client_id", "")
	v.SetDefault("engine.token", "")
	v.SetDefault("engine.log_level", "2")
	v.SetDefault("engine.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("engine.dial_timeout", "10s")
	v.SetDefault("engine.register_timeout", "30s")
	v.SetDefault("session.mailbox", 32)
	v.SetDefault("session.queue", 64)
	v.SetDefault("session.call_policy", "override")
	v.SetDefault("session.backpressure", "spill")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("gateway", cfg.Engine.GatewayURL).
		Str("client_id", cfg.Engine.ClientID).
		Msg("config ready")
	return &cfg, nil
}
