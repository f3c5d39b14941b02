package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. IROCK_GITHUB_TOKEN.
const EnvPrefix = "IROCK"

// DefaultDir returns the directory searched for config.yaml.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "irockprog"), nil
}

// Load reads configuration from defaults, an optional YAML file and
// IROCK_* environment variables, in increasing precedence. An empty path
// searches DefaultDir for config.yaml and tolerates its absence; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if dir, err := DefaultDir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	fillPaths(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	Debugf("config loaded from %q", v.ConfigFileUsed())
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.token", "")
	v.SetDefault("github.timeout", "0s")
	v.SetDefault("cache.dir", "")
	v.SetDefault("flash.tool", "st-flash")
	v.SetDefault("flash.address", "0x08000000")
	v.SetDefault("history.path", "")
	v.SetDefault("log.file", "")
}

// fillPaths resolves the log location left empty by the user. Empty cache
// and history paths select the defaults of the packages that own them.
func fillPaths(cfg *Config) {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	base = filepath.Join(base, "irockprog")

	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(base, "irockprog.log")
	}
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("ownerrepo", validateOwnerRepo); err != nil {
		return err
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func validateOwnerRepo(fl validator.FieldLevel) bool {
	parts := strings.Split(fl.Field().String(), "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}
