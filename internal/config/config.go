package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/peercalls/internal/adapters/rtc"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode      string `mapstructure:"mode"`
	LogLevel  string `mapstructure:"log_level"`
	Port      int    `mapstructure:"port"`
	SignalURL string `mapstructure:"signal_url"`
	Room      string `mapstructure:"room"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`

	ICEServers         []rtc.ICEServer `mapstructure:"ice_servers"`
	NotificationsLimit int             `mapstructure:"notifications_limit"`
	MessageRate        int             `mapstructure:"message_rate"`
}

// Load reads config/config.<CONFIG_ENV>.yaml over the defaults.
// PEERCALLS_* environment variables override both.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("peercalls")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8090)
	v.SetDefault("signal_url", "ws://localhost:8080/ws")
	v.SetDefault("room", "default")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("notifications_limit", 50)
	v.SetDefault("message_rate", 30)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("signal_url", cfg.SignalURL).Str("room", cfg.Room).Msg("config")
	return &cfg, nil
}
