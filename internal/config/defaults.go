package config

import "git.home.luguber.info/inful/postbuilder/internal/graph"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }

func (siteDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "My Blog"
	}
	return nil
}

type pathDefaults struct{}

func (pathDefaults) Domain() string { return "paths" }

func (pathDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = "content"
	}
	if cfg.Templates.Dir == "" {
		cfg.Templates.Dir = "templates"
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "public"
		cfg.Output.Clean = true
	}
	return nil
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Query.Limit == 0 {
		cfg.Query.Limit = graph.DefaultPostsLimit
	}
	if cfg.Render.Concurrency == 0 {
		cfg.Render.Concurrency = 4
	}
	return nil
}

var defaultAppliers = []DefaultApplier{siteDefaults{}, pathDefaults{}, buildDefaults{}}

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
