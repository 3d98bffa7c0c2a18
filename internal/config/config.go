// Package config loads the postbuilder YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Content   ContentConfig   `yaml:"content"`
	Templates TemplatesConfig `yaml:"templates"`
	Output    OutputConfig    `yaml:"output"`
	Query     QueryConfig     `yaml:"query"`
	Links     LinksConfig     `yaml:"links"`
	Render    RenderConfig    `yaml:"render"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// ProjectDir is the directory relative paths are resolved against: the
	// directory of the loaded file.
	ProjectDir string `yaml:"-"`
	// File is the absolute path of the loaded file, empty for parsed data.
	File string `yaml:"-"`
}

// SiteConfig is the metadata exposed to every template.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Author      string `yaml:"author,omitempty"`
}

// ContentConfig locates the Markdown sources.
type ContentConfig struct {
	Dir string `yaml:"dir"`
}

// TemplatesConfig names the index and post page components.
type TemplatesConfig struct {
	Dir   string `yaml:"dir"`
	Index string `yaml:"index,omitempty"`
	Post  string `yaml:"post,omitempty"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// QueryConfig tunes the posts query.
type QueryConfig struct {
	Limit int `yaml:"limit"`
}

// LinksConfig controls the maybeAbsoluteLinks field.
type LinksConfig struct {
	// CollectAbsolute stores scanned absolute links instead of an empty list.
	CollectAbsolute bool `yaml:"collect_absolute"`
}

// RenderConfig controls page rendering.
type RenderConfig struct {
	Concurrency int  `yaml:"concurrency"`
	UnsafeHTML  bool `yaml:"unsafe_html"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Load reads configPath, expands ${VAR} references, applies defaults and
// validates the result.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(filepath.Dir(configPath)); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.NotFoundError("configuration file not found").WithContext("path", configPath).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read configuration file").WithContext("path", configPath).Build()
	}

	cfg, err := decode([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.File = abs
	cfg.ProjectDir = filepath.Dir(abs)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration, applies defaults and validates it.
// ProjectDir is left for the caller to set; paths are checked against the
// working directory until then.
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid configuration YAML").UserAction().Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	var cfg Config
	_ = ApplyDefaults(&cfg)
	return &cfg
}

// Resolve returns p made absolute against the project directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	base := c.ProjectDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}

// Write serialises cfg to path. It refuses to overwrite an existing file
// unless force is set.
func Write(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").WithContext("path", path).Build()
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create config directory").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write configuration file").WithContext("path", path).Build()
	}
	return nil
}
