package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Verbose enables debug output when true
var Verbose bool

// Debugf logs a debug message when Verbose is true
func Debugf(format string, args ...any) {
	if Verbose {
		slog.Debug(fmt.Sprintf(format, args...))
	}
}

// Config holds all application configuration.
type Config struct {
	GitHub  GitHubConfig      `mapstructure:"github"`
	Cache   CacheConfig       `mapstructure:"cache"`
	Flash   FlashConfig       `mapstructure:"flash"`
	History HistoryConfig     `mapstructure:"history"`
	Log     LogConfig         `mapstructure:"log"`
	Repos   map[string]string `mapstructure:"repos" validate:"dive,keys,required,endkeys,ownerrepo"`
}

// GitHubConfig configures the release source.
type GitHubConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// CacheConfig sets where downloaded firmware is kept.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// FlashConfig configures the external flashing tool.
type FlashConfig struct {
	Tool    string `mapstructure:"tool" validate:"required"`
	Address string `mapstructure:"address" validate:"required,hexadecimal"`
}

// HistoryConfig sets where the download/flash history database lives.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig sets where the TUI writes its log.
type LogConfig struct {
	File string `mapstructure:"file"`
}
