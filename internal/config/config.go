// Package config loads the server configuration from a YAML file, LINECLASH_
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "LINECLASH"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Game      GameConfig      `mapstructure:"game"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
	Spectator SpectatorConfig `mapstructure:"spectator"`
	Health    HealthConfig    `mapstructure:"health"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Replay    ReplayConfig    `mapstructure:"replay"`
}

type ServerConfig struct {
	Address             string        `mapstructure:"address"`
	MaxFrameBytes       int           `mapstructure:"max_frame_bytes"`
	ResolveDelay        time.Duration `mapstructure:"resolve_delay"`
	LingerAfterGameOver time.Duration `mapstructure:"linger_after_game_over"`
	SendQueue           int           `mapstructure:"send_queue"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GameConfig struct {
	StartingLives      int           `mapstructure:"starting_lives"`
	DeckSize           int           `mapstructure:"deck_size"`
	OpeningHand        int           `mapstructure:"opening_hand"`
	RoundDraw          int           `mapstructure:"round_draw"`
	MessageTTL         time.Duration `mapstructure:"message_ttl"`
	RevealOpponentHand bool          `mapstructure:"reveal_opponent_hand"`
	PlayerNames        []string      `mapstructure:"player_names"`
}

type RecorderConfig struct {
	// Driver is sqlite, postgres or none.
	Driver    string        `mapstructure:"driver"`
	DSN       string        `mapstructure:"dsn"`
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type SpectatorConfig struct {
	Address string `mapstructure:"address"`
}

type HealthConfig struct {
	Address string `mapstructure:"address"`
}

type FeedConfig struct {
	RedisURL      string `mapstructure:"redis_url"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
	QueueSize     int    `mapstructure:"queue_size"`
}

type ReplayConfig struct {
	Dir string `mapstructure:"dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":5555")
	v.SetDefault("server.max_frame_bytes", 1<<20)
	v.SetDefault("server.resolve_delay", time.Second)
	v.SetDefault("server.linger_after_game_over", 10*time.Second)
	v.SetDefault("server.send_queue", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.starting_lives", 2)
	v.SetDefault("game.deck_size", 20)
	v.SetDefault("game.opening_hand", 10)
	v.SetDefault("game.round_draw", 5)
	v.SetDefault("game.message_ttl", 2*time.Second)
	v.SetDefault("game.reveal_opponent_hand", false)
	v.SetDefault("game.player_names", []string{"Player 1", "Player 2"})

	v.SetDefault("recorder.driver", "sqlite")
	v.SetDefault("recorder.dsn", "game_data.db")
	v.SetDefault("recorder.queue_size", 256)
	v.SetDefault("recorder.timeout", 5*time.Second)

	v.SetDefault("spectator.address", "")
	v.SetDefault("health.address", "")
	v.SetDefault("feed.redis_url", "")
	v.SetDefault("feed.channel_prefix", "lineclash")
	v.SetDefault("feed.queue_size", 128)
	v.SetDefault("replay.dir", "")
}

// Load reads the configuration. A missing file is not an error; defaults and
// environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise break the match rules.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Server.MaxFrameBytes <= 0 {
		errs = append(errs, errors.New("server.max_frame_bytes must be positive"))
	}
	if c.Server.ResolveDelay < 0 {
		errs = append(errs, errors.New("server.resolve_delay must not be negative"))
	}
	if c.Server.SendQueue <= 0 {
		errs = append(errs, errors.New("server.send_queue must be positive"))
	}
	if c.Game.StartingLives <= 0 {
		errs = append(errs, errors.New("game.starting_lives must be positive"))
	}
	if c.Game.DeckSize <= 0 {
		errs = append(errs, errors.New("game.deck_size must be positive"))
	}
	if c.Game.OpeningHand < 0 || c.Game.OpeningHand > c.Game.DeckSize {
		errs = append(errs, fmt.Errorf("game.opening_hand must be between 0 and %d", c.Game.DeckSize))
	}
	if c.Game.RoundDraw < 0 {
		errs = append(errs, errors.New("game.round_draw must not be negative"))
	}
	if len(c.Game.PlayerNames) != 2 {
		errs = append(errs, fmt.Errorf("game.player_names needs exactly 2 names, got %d", len(c.Game.PlayerNames)))
	}
	switch c.Recorder.Driver {
	case "sqlite", "postgres":
		if c.Recorder.DSN == "" {
			errs = append(errs, fmt.Errorf("recorder.dsn is required for driver %s", c.Recorder.Driver))
		}
	case "none":
	default:
		errs = append(errs, fmt.Errorf("unknown recorder.driver %q", c.Recorder.Driver))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
