package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"github.com/joho/godotenv"
)

// envFiles are loaded from the project directory in order. godotenv never
// overrides a variable that is already set, so earlier files win.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles(dir string) error {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return ferrors.WrapError(err, ferrors.CategoryConfig, "load env file").WithContext("path", path).Build()
		}
	}
	return nil
}
