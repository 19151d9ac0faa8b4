// Package config loads and validates the exporter configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/alecthomas/chroma/v2/styles"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	storage "vaultpub/internal/storage/fs"
)

// Config is the top-level configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Vault   VaultConfig   `yaml:"vault"`
	Output  OutputConfig  `yaml:"output"`
	Render  RenderConfig  `yaml:"render"`
	Serve   ServeConfig   `yaml:"serve"`
	Publish PublishConfig `yaml:"publish"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	return c.Serve.Validate()
}

// SiteConfig holds site-wide presentation settings.
type SiteConfig struct {
	Title string `yaml:"title"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
	)
}

// VaultConfig describes the vault to export.
//
// Exclude holds glob patterns matched against vault-relative document
// paths; matching documents are resolvable but not exported. Index names
// the document additionally published as the site front page.
type VaultConfig struct {
	Path           string   `yaml:"path"`
	Exclude        []string `yaml:"exclude"`
	RequirePublish bool     `yaml:"require_publish"`
	Index          string   `yaml:"index"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// OutputConfig describes where the site is written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// WorkDir returns the exporter's bookkeeping directory inside the output.
func (c *OutputConfig) WorkDir() string {
	return filepath.Join(c.Dir, ".vaultpub")
}

// CachePath returns the incremental-export database path.
func (c *OutputConfig) CachePath() string {
	return filepath.Join(c.WorkDir(), "cache.db")
}

// LockPath returns the single-writer lock file path.
func (c *OutputConfig) LockPath() string {
	return filepath.Join(c.WorkDir(), "export.lock")
}

// RenderConfig holds Markdown rendering settings.
type RenderConfig struct {
	CodeStyle string `yaml:"code_style"`
	Template  string `yaml:"template"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.CodeStyle, validation.Required),
	); err != nil {
		return err
	}
	if !slices.Contains(styles.Names(), c.CodeStyle) {
		return fmt.Errorf("render: unknown code style %q", c.CodeStyle)
	}
	return nil
}

// ServeConfig holds preview server settings.
type ServeConfig struct {
	Port int `yaml:"port"`
}

// Address returns the preview server listen address.
func (c *ServeConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the preview server configuration.
func (c *ServeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// PublishConfig holds git publishing settings for the output directory.
type PublishConfig struct {
	Remote  string `yaml:"remote"`
	Branch  string `yaml:"branch"`
	Message string `yaml:"message"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title: "Vault",
		},
		Vault: VaultConfig{
			Path: ".",
		},
		Output: OutputConfig{
			Dir: "public",
		},
		Render: RenderConfig{
			CodeStyle: "github",
		},
		Serve: ServeConfig{
			Port: 8080,
		},
		Publish: PublishConfig{
			Remote:  "origin",
			Branch:  "gh-pages",
			Message: "",
		},
	}
}

// Load reads a YAML configuration file with environment variable
// expansion, applies it over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Vault.Index != "" {
		// The index document may be named the way links name it, without
		// the extension.
		cfg.Vault.Index = storage.EnsureMDExt(cfg.Vault.Index)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
