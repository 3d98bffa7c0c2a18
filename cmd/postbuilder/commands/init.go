package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/postbuilder/internal/pages"
	"git.home.luguber.info/inful/postbuilder/internal/render"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing files"`
	Title string `help:"Site title" default:"My Blog"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	return RunInit(root.Config, i.Title, i.Force, g.stdout())
}

// RunInit writes a configuration file next to a templates directory holding
// the default components and a content directory with one sample post.
func RunInit(configPath, title string, force bool, out io.Writer) error {
	cfg := config.Example(title)
	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", configPath)
	if err := config.Write(configPath, cfg, force); err != nil {
		return err
	}

	projectDir := filepath.Dir(configPath)
	for _, name := range []string{pages.DefaultIndexComponent, pages.DefaultPostComponent} {
		raw, err := render.DefaultTemplate(name)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "load default template").Build()
		}
		if err := writeScaffold(out, filepath.Join(projectDir, cfg.Templates.Dir, name), raw, force); err != nil {
			return err
		}
	}

	post, err := frontmatter.Render(map[string]any{
		"title":   "Hello World",
		"date":    time.Now().Format(time.DateOnly),
		"spoiler": "The first post.",
	}, []byte("This is my first post. Edit `content/hello-world/index.md` to change it.\n"))
	if err != nil {
		return fmt.Errorf("render sample post: %w", err)
	}
	if err := writeScaffold(out, filepath.Join(projectDir, cfg.Content.Dir, "hello-world", "index.md"), post, force); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}

// writeScaffold writes content unless path exists and force is not set.
func writeScaffold(out io.Writer, path string, content []byte, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		_, _ = fmt.Fprintf(out, "Keeping existing %s\n", path)
		return nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat scaffold file").WithContext("path", path).Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create directory").WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write scaffold file").WithContext("path", path).Build()
	}
	_, _ = fmt.Fprintf(out, "Created %s\n", path)
	return nil
}
