package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

// Backend names accepted in MARV_BACKEND.
const (
	BackendCompletions = "completions"
	BackendLangChain   = "langchain"
)

const marvBot = "marv"

// ErrBotNotConfigured is returned by ConfigInfo for a bot with no options.
var ErrBotNotConfigured = errors.New("bot is not configured")

// Config holds all configuration from environment variables.
type Config struct {
	Token       string `envconfig:"TELEGRAM_API_TOKEN"`
	Backend     string `envconfig:"MARV_BACKEND" default:"completions"`
	BaseURL     string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	APIKey      string `envconfig:"MARV_API_KEY"`
	WebhookAddr string `envconfig:"WEBHOOK_ADDR"`

	// Path to the TOML file holding per-bot options
	BotsFile string `envconfig:"BOTS_FILE" default:"bots.toml"`

	// Per-bot options loaded from BotsFile, keyed by bot name
	Bots map[string]map[string]string `ignored:"true"`
}

// FileConfig represents the structure of the bots file.
//
//	[bots.marv]
//	key = "sk-..."
type FileConfig struct {
	Bots map[string]map[string]string `toml:"bots"`
}

// LoadEnv loads the configuration from environment variables.
func (c Config) LoadEnv() (Config, error) {
	cfg := c

	if err := envconfig.Process("", &cfg); err != nil {
		return c, err
	}

	return cfg, nil
}

// LoadFile loads per-bot options from the bots file. A missing file is not
// an error; the bots simply have no options beyond the environment.
func (c *Config) LoadFile() error {
	configPath := c.BotsFile
	if !filepath.IsAbs(configPath) {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			execPath, err := os.Executable()
			if err == nil {
				configPath = filepath.Join(filepath.Dir(execPath), c.BotsFile)
			}
		}
	}

	if c.Bots == nil {
		c.Bots = make(map[string]map[string]string)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	var fileConfig FileConfig
	if _, err := toml.DecodeFile(configPath, &fileConfig); err != nil {
		return fmt.Errorf("failed to decode bots file %s: %w", configPath, err)
	}

	for name, opts := range fileConfig.Bots {
		c.Bots[name] = opts
	}

	return nil
}

// applyOverrides lets the environment win over the bots file.
func (c *Config) applyOverrides() {
	if c.APIKey == "" {
		return
	}
	if c.Bots[marvBot] == nil {
		c.Bots[marvBot] = make(map[string]string)
	}
	c.Bots[marvBot]["key"] = c.APIKey
}

// ConfigInfo returns a copy of the options configured for bot.
func (c *Config) ConfigInfo(bot string) (map[string]string, error) {
	opts, ok := c.Bots[bot]
	if !ok || len(opts) == 0 {
		return nil, fmt.Errorf("%s: %w", bot, ErrBotNotConfigured)
	}

	return maps.Clone(opts), nil
}

func NewConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load(".env")

	var cfg Config
	loadedCfg, err := cfg.LoadEnv()
	if err != nil {
		return nil, err
	}

	if err := loadedCfg.LoadFile(); err != nil {
		return nil, err
	}

	loadedCfg.applyOverrides()

	return &loadedCfg, nil
}

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(
			NewConfig,
		),
	)
}
