package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/larpo1/davidlarpent.com/internal/persist"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Editing EditingConfig     `yaml:"editing"`
	Persist PersistConfig     `yaml:"persist"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Editing.Validate(); err != nil {
		return err
	}
	return c.Persist.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig holds the content and public image directories. Path is
// the root containing the posts/ and sources/ collections.
type ContentConfig struct {
	Path       string `yaml:"path"`
	ImagesPath string `yaml:"images_path"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.ImagesPath, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// EditingConfig controls the editing API.
//
// The site is single-author: editing is either fully on (local dev),
// token protected (remote capture endpoints), or off entirely. When
// Enabled is false every editing request is rejected.
type EditingConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Token         string  `yaml:"token"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst"`
}

// Validate validates the editing configuration.
func (c *EditingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RatePerSecond, validation.Min(0.0)),
		validation.Field(&c.RateBurst, validation.Min(0)),
	)
}

// PersistConfig controls how document writes reach disk and git.
type PersistConfig struct {
	Mode          string `yaml:"mode"`
	WriteDelayMS  int    `yaml:"write_delay_ms"`
	CommitDelayMS int    `yaml:"commit_delay_ms"`
	AutoCommit    bool   `yaml:"auto_commit"`
}

// Validate validates the persistence configuration.
func (c *PersistConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = persist.ModeDeferred
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(persist.ModeSync, persist.ModeDeferred)),
		validation.Field(&c.WriteDelayMS, validation.Min(0)),
		validation.Field(&c.CommitDelayMS, validation.Min(0)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Path:       "./src/content",
			ImagesPath: "./public/images",
		},
		SQLite: SQLiteConfig{
			Path: "./larpo.db",
		},
		Editing: EditingConfig{
			Enabled:       true,
			RatePerSecond: 10,
			RateBurst:     20,
		},
		Persist: PersistConfig{
			Mode:          persist.ModeDeferred,
			WriteDelayMS:  200,
			CommitDelayMS: 3000,
			AutoCommit:    true,
		},
	}
}
