package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "WELLNESS"

// Config holds the terminal client settings.
type Config struct {
	// ServerURL is the base URL of the wellness relay.
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`

	// DataDir holds the local SQLite database with the to-do list.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// Timeout bounds a plan request and the wait for chat response headers.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultConfigPath returns ~/.config/wellness/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "wellness", "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".wellness")
	}
	return filepath.Join(home, ".local", "share", "wellness")
}

// LoadConfig merges, from lowest to highest priority: defaults, the YAML file at path,
// WELLNESS_* environment variables and explicitly set flags.
// A missing file is not an error.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("timeout", 60*time.Second)

	if flags != nil {
		for key, name := range map[string]string{"server_url": "server", "data_dir": "data-dir", "timeout": "timeout"} {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if strings.TrimSpace(cfg.ServerURL) == "" {
		return Config{}, errors.New("server_url is required")
	}
	if cfg.Timeout <= 0 {
		return Config{}, errors.New("timeout must be greater than 0")
	}

	return cfg, nil
}
