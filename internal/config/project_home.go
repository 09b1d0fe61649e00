package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides project directory discovery.
const HomeEnv = "LPREPORT_HOME"

// GetProjectHome returns the directory results.csv and README.md live in
// Priority order:
//  1. LPREPORT_HOME environment variable (if set)
//  2. Nearest ancestor of the working directory holding .lpreport/ or results.csv
//  3. Current working directory (fallback)
func GetProjectHome() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Abs(home)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if root, ok := findProjectRoot(cwd); ok {
		return root, nil
	}

	return cwd, nil
}

// findProjectRoot walks up from dir looking for a project marker.
func findProjectRoot(dir string) (string, bool) {
	current := dir
	for {
		if info, err := os.Stat(filepath.Join(current, ConfigDirName)); err == nil && info.IsDir() {
			return current, true
		}
		if info, err := os.Stat(filepath.Join(current, "results.csv")); err == nil && !info.IsDir() {
			return current, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}
