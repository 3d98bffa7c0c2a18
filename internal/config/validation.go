package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// Validate checks a configuration after defaults were applied. It must be
// called again after command-line overrides change any path.
func Validate(cfg *Config) error {
	switch {
	case cfg.Query.Limit < 0:
		return invalid("query.limit must be positive", "query.limit", cfg.Query.Limit)
	case cfg.Render.Concurrency < 0:
		return invalid("render.concurrency must be positive", "render.concurrency", cfg.Render.Concurrency)
	case cfg.Content.Dir == "":
		return invalid("content.dir is required", "content.dir", "")
	case cfg.Output.Directory == "":
		return invalid("output.directory is required", "output.directory", "")
	}
	return ValidateOutput(cfg)
}

// ValidateOutput rejects an output directory that is the filesystem root,
// that contains the project directory or the configuration file, or that
// overlaps the content or templates directory in either direction.
// Everything under the output directory may be deleted by a build.
func ValidateOutput(cfg *Config) error {
	out, err := absPath(cfg, cfg.Output.Directory)
	if err != nil {
		return invalid("output.directory cannot be resolved", "output.directory", cfg.Output.Directory)
	}
	if out == filepath.Dir(out) {
		return invalid("output.directory must not be the filesystem root", "output.directory", cfg.Output.Directory)
	}

	protected := []struct {
		name, path string
		overlap    bool
	}{
		{"project directory", cfg.ProjectDir, false},
		{"content.dir", cfg.Content.Dir, true},
		{"templates.dir", cfg.Templates.Dir, true},
		{"configuration file", cfg.File, false},
	}
	if cfg.ProjectDir == "" {
		protected[0].path = "."
	}
	for _, p := range protected {
		if p.path == "" {
			continue
		}
		abs, err := absPath(cfg, p.path)
		if err != nil {
			continue
		}
		if within(out, abs) {
			return invalid(fmt.Sprintf("output.directory must not contain the %s", p.name), "output.directory", cfg.Output.Directory)
		}
		if p.overlap && within(abs, out) {
			return invalid(fmt.Sprintf("output.directory must not lie inside the %s", p.name), "output.directory", cfg.Output.Directory)
		}
	}
	return nil
}

func absPath(cfg *Config, p string) (string, error) {
	return filepath.Abs(cfg.Resolve(p))
}

// within reports whether path is dir or lies below it. Both must be absolute.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func invalid(msg, field string, value any) error {
	return ferrors.ConfigError(msg).WithContext("field", field).WithContext("value", value).Build()
}
