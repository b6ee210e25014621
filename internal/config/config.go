// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// the chatbot.
//
// Supports TOML, YAML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.chatbot/config.toml
//   - ~/.chatbot/config.yaml (or config.yml)
//   - ~/.chatbot/config.json
//   - Built-in defaults
package config

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/storage"
	"github.com/jeranaias/chatbot-tui/internal/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHATBOT_"

// HomeEnv overrides the configuration directory.
const HomeEnv = "CHATBOT_HOME"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatbot configuration.
type Config struct {
	Version string `toml:"version" yaml:"version" json:"version"`

	Chat    ChatConfig    `toml:"chat" yaml:"chat" json:"chat" envPrefix:"CHAT_"`
	Storage StorageConfig `toml:"storage" yaml:"storage" json:"storage" envPrefix:"STORAGE_"`
	UI      UIConfig      `toml:"ui" yaml:"ui" json:"ui" envPrefix:"UI_"`
	Logging LoggingConfig `toml:"logging" yaml:"logging" json:"logging" envPrefix:"LOG_"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics" json:"metrics" envPrefix:"METRICS_"`
}

// ChatConfig controls the scripted conversation.
type ChatConfig struct {
	// BotName is shown in the header and used by the name rule
	BotName string `toml:"bot_name" yaml:"bot_name" json:"bot_name" env:"BOT_NAME"`
	// Greeting seeds a conversation that has no stored history
	Greeting string `toml:"greeting" yaml:"greeting" json:"greeting" env:"GREETING"`
	// TypingMin and TypingMax bound the simulated typing delay
	TypingMin Duration `toml:"typing_min" yaml:"typing_min" json:"typing_min" env:"TYPING_MIN"`
	TypingMax Duration `toml:"typing_max" yaml:"typing_max" json:"typing_max" env:"TYPING_MAX"`
	// AttachmentReplyDelay is the fixed delay before an image is acknowledged
	AttachmentReplyDelay Duration `toml:"attachment_reply_delay" yaml:"attachment_reply_delay" json:"attachment_reply_delay" env:"ATTACHMENT_REPLY_DELAY"`
	// MaxAttachmentBytes rejects larger image files
	MaxAttachmentBytes int64 `toml:"max_attachment_bytes" yaml:"max_attachment_bytes" json:"max_attachment_bytes" env:"MAX_ATTACHMENT_BYTES"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is one of file, sqlite, pebble, memory
	Backend string `toml:"backend" yaml:"backend" json:"backend" env:"BACKEND"`
	// Dir holds the store; empty means the config directory
	Dir string `toml:"dir" yaml:"dir" json:"dir" env:"DIR"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is used until the user picks one
	Theme string `toml:"theme" yaml:"theme" json:"theme" env:"THEME"`
	// DarkMode is "auto", "on" or "off"; it applies until the user toggles
	DarkMode string `toml:"dark_mode" yaml:"dark_mode" json:"dark_mode" env:"DARK_MODE"`
	// AltScreen runs the TUI in the alternate screen buffer
	AltScreen bool `toml:"alt_screen" yaml:"alt_screen" json:"alt_screen" env:"ALT_SCREEN"`
}

// LoggingConfig controls the structured log file.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" yaml:"level" json:"level" env:"LEVEL"`
	// File is the log path; empty means chatbot.log in the config directory
	File string `toml:"file" yaml:"file" json:"file" env:"FILE"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// Addr is a listen address like "127.0.0.1:9464"; empty disables it
	Addr string `toml:"addr" yaml:"addr" json:"addr" env:"ADDR"`
}

// Dark mode settings.
const (
	DarkModeAuto = "auto"
	DarkModeOn   = "on"
	DarkModeOff  = "off"
)

// =============================================================================
// DURATION TYPE
// =============================================================================

// Duration is a time.Duration written as "1.5s" in every config format.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Chat: ChatConfig{
			BotName:              "ChatBot",
			Greeting:             "Hello! How can I help you?",
			TypingMin:            Duration(1 * time.Second),
			TypingMax:            Duration(3 * time.Second),
			AttachmentReplyDelay: Duration(1 * time.Second),
			MaxAttachmentBytes:   5 << 20,
		},

		Storage: StorageConfig{
			Backend: string(storage.BackendFile),
		},

		UI: UIConfig{
			Theme:    string(model.DefaultTheme),
			DarkMode: DarkModeAuto,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatbot configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatbot"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// candidateFiles lists config files in dir in precedence order.
func candidateFiles(dir string) []string {
	return []string{
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
		filepath.Join(dir, "config.json"),
	}
}

// FindConfigFile returns the first existing config file in dir, or "".
func FindConfigFile(dir string) string {
	for _, path := range candidateFiles(dir) {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config directory.
// Tries TOML first, then YAML, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		cfg := Default()
		if ferr := cfg.finalize(); ferr != nil {
			return nil, ferr
		}
		return cfg, err
	}
	return LoadDir(dir)
}

// LoadDir loads configuration from the first config file found in dir. A
// .env file in dir or the working directory seeds the environment first.
func LoadDir(dir string) (*Config, error) {
	LoadDotEnv(filepath.Join(dir, ".env"), ".env")

	if path := FindConfigFile(dir); path != "" {
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		// Return defaults with the load error for informational purposes
		def := Default()
		if ferr := def.finalize(); ferr != nil {
			return nil, ferr
		}
		return def, err
	}

	cfg := Default()
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The format follows the file extension; unknown extensions are
// read as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadYAML loads configuration from a YAML file.
func LoadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadDotEnv loads the first existing .env file among paths. Variables that
// are already set are not overwritten.
func LoadDotEnv(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
		}
		return
	}
}

// finalize runs the shared post-load pipeline.
func (c *Config) finalize() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	if err := c.Migrate(); err != nil {
		return fmt.Errorf("config migration failed: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with a header comment.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# chatbot configuration file\n")
	b.WriteString("# Generated by chatbot - edit with care\n")
	b.WriteString("#\n")
	b.WriteString("# Every key can be overridden with CHATBOT_<SECTION>_<KEY>,\n")
	b.WriteString("# e.g. CHATBOT_CHAT_TYPING_MAX=2s\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, []byte(b.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveYAML saves the configuration to a YAML file.
func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Chat.BotName) == "" {
		errs = append(errs, ValidationError{"chat.bot_name", "must not be empty"})
	}
	if c.Chat.TypingMin < 0 {
		errs = append(errs, ValidationError{"chat.typing_min", "must not be negative"})
	}
	if c.Chat.TypingMax < c.Chat.TypingMin {
		errs = append(errs, ValidationError{"chat.typing_max",
			fmt.Sprintf("must be at least typing_min (%s)", c.Chat.TypingMin)})
	}
	if c.Chat.TypingMax.Std() > time.Minute {
		errs = append(errs, ValidationError{"chat.typing_max", "must be at most 1m"})
	}
	if c.Chat.AttachmentReplyDelay < 0 {
		errs = append(errs, ValidationError{"chat.attachment_reply_delay", "must not be negative"})
	}
	if c.Chat.MaxAttachmentBytes <= 0 {
		errs = append(errs, ValidationError{"chat.max_attachment_bytes", "must be positive"})
	}

	if _, err := storage.ParseBackend(c.Storage.Backend); err != nil {
		errs = append(errs, ValidationError{"storage.backend",
			fmt.Sprintf("must be one of %v", storage.Backends)})
	}

	if _, err := model.ParseTheme(c.UI.Theme); err != nil {
		errs = append(errs, ValidationError{"ui.theme",
			fmt.Sprintf("must be one of %v", model.Themes)})
	}
	switch c.UI.DarkMode {
	case DarkModeAuto, DarkModeOn, DarkModeOff:
	default:
		errs = append(errs, ValidationError{"ui.dark_mode", "must be auto, on or off"})
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"logging.level", "must be debug, info, warn or error"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in missing values with defaults and normalizes case.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if strings.TrimSpace(c.Chat.BotName) == "" {
		c.Chat.BotName = defaults.Chat.BotName
	}
	if c.Chat.Greeting == "" {
		c.Chat.Greeting = defaults.Chat.Greeting
	}
	if c.Chat.MaxAttachmentBytes == 0 {
		c.Chat.MaxAttachmentBytes = defaults.Chat.MaxAttachmentBytes
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.Dir == "" {
		if dir, err := ConfigDir(); err == nil {
			c.Storage.Dir = dir
		}
	}

	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	c.UI.DarkMode = strings.ToLower(strings.TrimSpace(c.UI.DarkMode))
	if c.UI.DarkMode == "" {
		c.UI.DarkMode = defaults.UI.DarkMode
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.File == "" && c.Storage.Dir != "" {
		c.Logging.File = filepath.Join(c.Storage.Dir, "chatbot.log")
	}
}

// Migrate handles migration from old configuration formats to new ones.
func (c *Config) Migrate() error {
	// dark_mode used to be a boolean flag
	switch strings.ToLower(c.UI.DarkMode) {
	case "true", "dark":
		c.UI.DarkMode = DarkModeOn
	case "false", "light":
		c.UI.DarkMode = DarkModeOff
	}

	// "warning" was accepted by earlier builds
	if strings.EqualFold(c.Logging.Level, "warning") {
		c.Logging.Level = "warn"
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies CHATBOT_* environment variables to the config.
//
// Examples:
//   - CHATBOT_CHAT_BOT_NAME: overrides chat.bot_name
//   - CHATBOT_CHAT_TYPING_MAX: overrides chat.typing_max (e.g. "2s")
//   - CHATBOT_STORAGE_BACKEND: overrides storage.backend
//   - CHATBOT_UI_DARK_MODE: overrides ui.dark_mode
//   - CHATBOT_LOG_LEVEL: overrides logging.level
//   - CHATBOT_METRICS_ADDR: overrides metrics.addr
func (c *Config) ApplyEnvOverrides() error {
	return env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix})
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "chat.bot_name").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if s, ok := field.Interface().(fmt.Stringer); ok {
		return s.String(), nil
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "chat.typing_max").
// The result is not validated; call Validate afterwards.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) == 0 {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(strVal))
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		name := strings.Split(section.Tag.Get("toml"), ",")[0]
		if section.Type.Kind() != reflect.Struct {
			keys = append(keys, name)
			continue
		}
		for j := 0; j < section.Type.NumField(); j++ {
			f := section.Type.Field(j)
			keys = append(keys, name+"."+strings.Split(f.Tag.Get("toml"), ",")[0])
		}
	}
	sort.Strings(keys)
	return keys
}

// Clone creates a copy of the configuration. Config holds only value types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
			cfg.SetDefaults()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
