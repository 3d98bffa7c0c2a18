package render

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed defaults/*.html
var embeddedTemplates embed.FS

// TemplateSource tells where a component was loaded from.
type TemplateSource string

const (
	SourceFile     TemplateSource = "file"
	SourceEmbedded TemplateSource = "embedded"
)

// loadComponent parses the template at path. When the file does not exist
// the embedded default with the same base name is used instead.
func loadComponent(path, baseURL string) (*template.Template, TemplateSource, error) {
	name := filepath.Base(path)
	// #nosec G304 -- component paths come from the project configuration.
	raw, err := os.ReadFile(path)
	source := SourceFile
	if errors.Is(err, fs.ErrNotExist) {
		raw, err = embeddedTemplates.ReadFile("defaults/" + name)
		if err != nil {
			return nil, "", fmt.Errorf("component %s not found and no embedded default exists", path)
		}
		source = SourceEmbedded
	} else if err != nil {
		return nil, "", fmt.Errorf("read component %s: %w", path, err)
	}

	tpl, err := template.New(name).Funcs(templateFuncs(baseURL)).Option("missingkey=zero").Parse(string(raw))
	if err != nil {
		return nil, "", fmt.Errorf("parse component %s: %w", path, err)
	}
	return tpl, source, nil
}

func templateFuncs(baseURL string) template.FuncMap {
	base := strings.TrimRight(baseURL, "/")
	return template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format("January 2, 2006") },
		"url":        func(p string) string { return base + p },
	}
}

// DefaultTemplate returns the embedded default component named name, such
// as "blog-post.html".
func DefaultTemplate(name string) ([]byte, error) {
	b, err := embeddedTemplates.ReadFile("defaults/" + name)
	if err != nil {
		return nil, fmt.Errorf("no embedded template %s: %w", name, err)
	}
	return b, nil
}
