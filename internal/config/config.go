// Package config provides Viper-based configuration loading for the
// adventure engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// LLMConfig holds language-model service settings.
type LLMConfig struct {
	// APIKey authenticates against the chat service. Empty disables the
	// LLM path entirely; intent resolution then uses only the fallback
	// parser and NPC dialogue uses stock lines.
	APIKey string `mapstructure:"api_key"`
	// Model is the model identifier to request.
	Model string `mapstructure:"model"`
	// MaxTokens bounds each completion.
	MaxTokens int `mapstructure:"max_tokens"`
	// Timeout is the per-attempt deadline for a completion.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `mapstructure:"max_retries"`
	// InitialBackoff seeds the exponential backoff between attempts.
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

// GameConfig holds turn-engine tuning.
type GameConfig struct {
	// HistorySize bounds the session's recent-command history.
	HistorySize int `mapstructure:"history_size"`
	// ArmorReductionCap bounds the flat damage reduction granted by
	// armor. 0 means uncapped.
	ArmorReductionCap int `mapstructure:"armor_reduction_cap"`
	// FleeBaseChance is the flee success percentage at agility 10.
	FleeBaseChance int `mapstructure:"flee_base_chance"`
	// ScriptInstructionLimit bounds Lua hook execution. 0 uses the
	// scripting package default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// ContentConfig holds content file locations.
type ContentConfig struct {
	// World is the path to the world snapshot YAML file.
	World string `mapstructure:"world"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Game    GameConfig    `mapstructure:"game"`
	Content ContentConfig `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: returns nil if the configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLLM(c.LLM); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.World == "" {
		errs = append(errs, "content.world must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateLLM(l LLMConfig) error {
	var errs []string
	if l.Model == "" {
		errs = append(errs, "llm.model must not be empty")
	}
	if l.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("llm.max_tokens must be >= 1, got %d", l.MaxTokens))
	}
	if l.Timeout <= 0 {
		errs = append(errs, "llm.timeout must be positive")
	}
	if l.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("llm.max_retries must be >= 0, got %d", l.MaxRetries))
	}
	if l.InitialBackoff < 0 {
		errs = append(errs, "llm.initial_backoff must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.HistorySize < 1 {
		errs = append(errs, fmt.Sprintf("game.history_size must be >= 1, got %d", g.HistorySize))
	}
	if g.ArmorReductionCap < 0 {
		errs = append(errs, fmt.Sprintf("game.armor_reduction_cap must be >= 0, got %d", g.ArmorReductionCap))
	}
	if g.FleeBaseChance < 0 || g.FleeBaseChance > 100 {
		errs = append(errs, fmt.Sprintf("game.flee_base_chance must be 0-100, got %d", g.FleeBaseChance))
	}
	if g.ScriptInstructionLimit < 0 {
		errs = append(errs, "game.script_instruction_limit must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ADVENTURE_ prefix
	v.SetEnvPrefix("ADVENTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance seeded with the default configuration.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("llm.model", "claude-sonnet-4-5")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", "10s")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.initial_backoff", "250ms")

	v.SetDefault("game.history_size", 10)
	v.SetDefault("game.armor_reduction_cap", 0)
	v.SetDefault("game.flee_base_chance", 50)
	v.SetDefault("game.script_instruction_limit", 0)

	v.SetDefault("content.world", "content/world.yaml")
}
