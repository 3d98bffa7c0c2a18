package pages

import (
	"fmt"
	"path/filepath"
)

// Default component file names inside the templates directory.
const (
	DefaultIndexComponent = "blog-index.html"
	DefaultPostComponent  = "blog-post.html"
)

// Components are the absolute paths of the two page templates.
type Components struct {
	Index string
	Post  string
}

// ResolveComponents resolves the index and post template names against
// templatesDir, which itself is resolved against projectDir when relative.
// Empty names fall back to the defaults.
func ResolveComponents(projectDir, templatesDir, index, post string) (Components, error) {
	if index == "" {
		index = DefaultIndexComponent
	}
	if post == "" {
		post = DefaultPostComponent
	}
	if !filepath.IsAbs(templatesDir) {
		templatesDir = filepath.Join(projectDir, templatesDir)
	}

	resolve := func(name string) (string, error) {
		p := name
		if !filepath.IsAbs(p) {
			p = filepath.Join(templatesDir, name)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("resolve component %s: %w", name, err)
		}
		return abs, nil
	}

	var (
		c   Components
		err error
	)
	if c.Index, err = resolve(index); err != nil {
		return Components{}, err
	}
	if c.Post, err = resolve(post); err != nil {
		return Components{}, err
	}
	return c, nil
}
