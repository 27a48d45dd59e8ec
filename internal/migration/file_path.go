package migration

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

const modulePath = "github.com/elskow/gatekeep"

// MigrationsDirEnv overrides the migrations directory, for deployments that
// ship the SQL files without the source tree.
const MigrationsDirEnv = "GATEKEEP_MIGRATIONS_DIR"

// getMigrationsDir returns the absolute path to the migrations directory
func getMigrationsDir() (string, error) {
	if dir := os.Getenv(MigrationsDirEnv); dir != "" {
		return filepath.Abs(dir)
	}

	dir, err := findModuleRoot()
	if err != nil {
		return "", fmt.Errorf("failed to find project root: %w", err)
	}

	return filepath.Join(dir, "migrations"), nil
}

// findModuleRoot walks up from the working directory to this module's go.mod.
func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		gomod := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(gomod); err == nil {
			content, err := os.ReadFile(gomod)
			if err != nil {
				return "", err
			}

			if modfile.ModulePath(content) == modulePath {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod for %s not found", modulePath)
		}
		dir = parent
	}
}
